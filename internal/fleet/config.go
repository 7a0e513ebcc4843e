package fleet

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPlaceholderImage = "rancher/pause:3.6"
	defaultPlaceholderLabel = "daytona-runner-placeholder"
	defaultNodeSelectorKey  = "daytona-sandbox-c"
	defaultTaintKey         = "sandbox"
	defaultCheckInterval    = 30 * time.Second
)

// Config is the strict, required-env-var configuration for the runner
// fleet autoscaler. Every env-backed field is required at startup; a
// missing or invalid value aborts startup with a descriptive error. Policy
// is optional and falls back to defaults.
type Config struct {
	APIPort                       string
	DaytonaAPIURL                 string
	DaytonaAPIKey                 string
	ProviderNamespace             string
	RegionID                      string
	MaxResourceUtilizationPercent int
	MinIdleRunners                int
	MinIdleCPU                    int
	MinIdleMemory                 int

	Policy Policy
}

// Policy holds operational knobs that are NOT part of the required env-var
// contract: scheduling shape for placeholder pods. Every field has a
// constant default; an optional FLEET_CONFIG YAML file may override them.
// Absence of the file, or of FLEET_CONFIG itself, is never an error.
type Policy struct {
	PlaceholderImage string           `yaml:"placeholder_image"`
	PlaceholderLabel string           `yaml:"placeholder_label"`
	NodeSelectorKey  string           `yaml:"node_selector_key"`
	TaintKey         string           `yaml:"taint_key"`
	ExtraTolerations []TolerationSpec `yaml:"extra_tolerations"`
}

// TolerationSpec mirrors corev1.Toleration in a YAML-friendly shape.
type TolerationSpec struct {
	Key      string `yaml:"key"`
	Operator string `yaml:"operator"`
	Value    string `yaml:"value"`
	Effect   string `yaml:"effect"`
}

func defaultPolicy() Policy {
	return Policy{
		PlaceholderImage: defaultPlaceholderImage,
		PlaceholderLabel: defaultPlaceholderLabel,
		NodeSelectorKey:  defaultNodeSelectorKey,
		TaintKey:         defaultTaintKey,
	}
}

// LoadConfig reads and validates the required environment variables, then
// layers the optional FLEET_CONFIG policy overlay on top of the defaults.
func LoadConfig() (Config, error) {
	cfg := Config{Policy: defaultPolicy()}

	var err error
	if cfg.APIPort, err = requireEnv("API_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.DaytonaAPIURL, err = requireEnv("DAYTONA_API_URL"); err != nil {
		return Config{}, err
	}
	if cfg.DaytonaAPIKey, err = requireEnv("DAYTONA_API_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.ProviderNamespace, err = requireEnv("PROVIDER_NAMESPACE"); err != nil {
		return Config{}, err
	}
	if cfg.RegionID, err = requireEnv("REGION_ID"); err != nil {
		return Config{}, err
	}

	if cfg.MaxResourceUtilizationPercent, err = requireEnvInt("MAX_RESOURCE_UTILIZATION_PERCENT"); err != nil {
		return Config{}, err
	}
	if cfg.MaxResourceUtilizationPercent < 0 || cfg.MaxResourceUtilizationPercent > 100 {
		return Config{}, fmt.Errorf("MAX_RESOURCE_UTILIZATION_PERCENT must be between 0 and 100")
	}

	if cfg.MinIdleRunners, err = requireEnvInt("MIN_IDLE_RUNNERS"); err != nil {
		return Config{}, err
	}
	if cfg.MinIdleRunners < 0 {
		return Config{}, fmt.Errorf("MIN_IDLE_RUNNERS cannot be negative")
	}

	if cfg.MinIdleCPU, err = requireEnvInt("MIN_IDLE_CPU"); err != nil {
		return Config{}, err
	}
	if cfg.MinIdleCPU < 0 {
		return Config{}, fmt.Errorf("MIN_IDLE_CPU cannot be negative")
	}

	if cfg.MinIdleMemory, err = requireEnvInt("MIN_IDLE_MEMORY"); err != nil {
		return Config{}, err
	}
	if cfg.MinIdleMemory < 0 {
		return Config{}, fmt.Errorf("MIN_IDLE_MEMORY cannot be negative")
	}

	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		policy, err := loadPolicy(path, cfg.Policy)
		if err != nil {
			return Config{}, fmt.Errorf("loading FLEET_CONFIG %q: %w", path, err)
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

func loadPolicy(path string, base Policy) (Policy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return Policy{}, err
	}
	overlay := base
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Policy{}, err
	}
	if overlay.PlaceholderImage == "" {
		overlay.PlaceholderImage = base.PlaceholderImage
	}
	if overlay.PlaceholderLabel == "" {
		overlay.PlaceholderLabel = base.PlaceholderLabel
	}
	if overlay.NodeSelectorKey == "" {
		overlay.NodeSelectorKey = base.NodeSelectorKey
	}
	if overlay.TaintKey == "" {
		overlay.TaintKey = base.TaintKey
	}
	return overlay, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return v, nil
}

func requireEnvInt(key string) (int, error) {
	v, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
