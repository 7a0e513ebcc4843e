package fleet

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"API_PORT":                         "8080",
		"DAYTONA_API_URL":                  "https://api.example.com",
		"DAYTONA_API_KEY":                  "secret",
		"PROVIDER_NAMESPACE":               "daytona",
		"REGION_ID":                        "us-east-1",
		"MAX_RESOURCE_UTILIZATION_PERCENT": "80",
		"MIN_IDLE_RUNNERS":                 "2",
		"MIN_IDLE_CPU":                     "16",
		"MIN_IDLE_MEMORY":                  "32",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadConfigValid(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_CONFIG", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.MaxResourceUtilizationPercent != 80 {
		t.Errorf("MaxResourceUtilizationPercent = %d, want 80", cfg.MaxResourceUtilizationPercent)
	}
	if cfg.Policy.PlaceholderImage != defaultPlaceholderImage {
		t.Errorf("PlaceholderImage = %q, want default %q", cfg.Policy.PlaceholderImage, defaultPlaceholderImage)
	}
}

func TestLoadConfigMissingRequiredVar(t *testing.T) {
	required := []string{
		"API_PORT", "DAYTONA_API_URL", "DAYTONA_API_KEY", "PROVIDER_NAMESPACE",
		"REGION_ID", "MAX_RESOURCE_UTILIZATION_PERCENT", "MIN_IDLE_RUNNERS",
		"MIN_IDLE_CPU", "MIN_IDLE_MEMORY",
	}
	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error with %s unset, got nil", missing)
			}
		})
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"utilization not a number", "MAX_RESOURCE_UTILIZATION_PERCENT", "not-a-number"},
		{"utilization above 100", "MAX_RESOURCE_UTILIZATION_PERCENT", "150"},
		{"utilization negative", "MAX_RESOURCE_UTILIZATION_PERCENT", "-1"},
		{"min idle runners negative", "MIN_IDLE_RUNNERS", "-1"},
		{"min idle cpu negative", "MIN_IDLE_CPU", "-5"},
		{"min idle memory negative", "MIN_IDLE_MEMORY", "-10"},
		{"min idle cpu not a number", "MIN_IDLE_CPU", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.val)

			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s, got nil", tc.key, tc.val)
			}
		})
	}
}

func TestLoadConfigPolicyOverlay(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "fleet-policy.yaml")
	contents := []byte("placeholder_image: custom/pause:1.0\nextra_tolerations:\n  - key: dedicated\n    operator: Equal\n    value: sandboxes\n    effect: NoSchedule\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("writing overlay file: %v", err)
	}
	t.Setenv("FLEET_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Policy.PlaceholderImage != "custom/pause:1.0" {
		t.Errorf("PlaceholderImage = %q, want overlay value", cfg.Policy.PlaceholderImage)
	}
	// Fields absent from the overlay fall back to defaults.
	if cfg.Policy.PlaceholderLabel != defaultPlaceholderLabel {
		t.Errorf("PlaceholderLabel = %q, want default %q", cfg.Policy.PlaceholderLabel, defaultPlaceholderLabel)
	}
	if len(cfg.Policy.ExtraTolerations) != 1 || cfg.Policy.ExtraTolerations[0].Key != "dedicated" {
		t.Fatalf("ExtraTolerations not parsed from overlay: %+v", cfg.Policy.ExtraTolerations)
	}
}

func TestLoadConfigMissingOverlayFileUsesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FLEET_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want defaults when the overlay file is absent", err)
	}
	if cfg.Policy.PlaceholderImage != defaultPlaceholderImage {
		t.Errorf("PlaceholderImage = %q, want default %q", cfg.Policy.PlaceholderImage, defaultPlaceholderImage)
	}
}

func TestLoadConfigMalformedOverlayFile(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "fleet-policy.yaml")
	if err := os.WriteFile(path, []byte("placeholder_image: [not: valid"), 0o644); err != nil {
		t.Fatalf("writing overlay file: %v", err)
	}
	t.Setenv("FLEET_CONFIG", path)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for a malformed overlay file")
	}
}
