package proxyauth

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultAuthKeyHeader     = "X-Daytona-Preview-Key"
	defaultAuthKeyQueryParam = "daytonaPreviewKey"
	defaultAuthCookiePrefix  = "daytona-preview-auth-"
)

// Config is the proxy-side configuration. The header/query/cookie names
// fall back to documented defaults when unset, and EnableTLS defaults to
// false when unset or unparsable; everything else is a hard startup
// requirement.
type Config struct {
	ListenPort        string
	DaytonaAPIURL     string
	DaytonaAPIKey     string
	AuthKeyHeader     string
	AuthKeyQueryParam string
	AuthCookiePrefix  string
	CookieHashKey     []byte
	CookieBlockKey    []byte
	EnableTLS         bool
}

// LoadConfig reads and validates environment variables for the preview
// proxy. Missing or invalid required values abort startup with a
// descriptive error.
func LoadConfig() (Config, error) {
	cfg := Config{
		AuthKeyHeader:     getenv("SANDBOX_AUTH_KEY_HEADER", defaultAuthKeyHeader),
		AuthKeyQueryParam: getenv("SANDBOX_AUTH_KEY_QUERY_PARAM", defaultAuthKeyQueryParam),
		AuthCookiePrefix:  getenv("SANDBOX_AUTH_COOKIE_PREFIX", defaultAuthCookiePrefix),
		EnableTLS:         getenvBool("PROXY_ENABLE_TLS", false),
	}

	var err error
	if cfg.ListenPort, err = requireEnv("PREVIEW_PROXY_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.DaytonaAPIURL, err = requireEnv("DAYTONA_API_URL"); err != nil {
		return Config{}, err
	}
	if cfg.DaytonaAPIKey, err = requireEnv("DAYTONA_API_KEY"); err != nil {
		return Config{}, err
	}

	hashKey, err := requireEnv("PROXY_COOKIE_HASH_KEY")
	if err != nil {
		return Config{}, err
	}
	cfg.CookieHashKey = []byte(hashKey)

	blockKey, err := requireEnv("PROXY_COOKIE_BLOCK_KEY")
	if err != nil {
		return Config{}, err
	}
	cfg.CookieBlockKey = []byte(blockKey)

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return v, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
