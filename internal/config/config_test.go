package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sync.Workers != 7 {
		t.Fatalf("expected 7 workers by default, got %d", cfg.Sync.Workers)
	}
	if len(cfg.Sync.SeriesDirs) != 28 {
		t.Fatalf("expected 28 default series dirs, got %d", len(cfg.Sync.SeriesDirs))
	}
	if cfg.Remote.BaseURL == "" {
		t.Fatal("expected a default base url")
	}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", got)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("metrics should be disabled by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
remote:
  base_url: https://mirror.example.com/specs/Rel-17/
  user_agent: specsync-test
  timeout_seconds: 5
sync:
  series_dirs: ["21_series/", "38_series/"]
  content_root: /tmp/specs
  state_file: /tmp/specs.state.json
  workers: 3
metrics:
  enabled: true
  port: 9191
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Remote.BaseURL != "https://mirror.example.com/specs/Rel-17/" {
		t.Fatalf("base url override not applied: %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.UserAgent != "specsync-test" {
		t.Fatalf("user agent override not applied: %q", cfg.Remote.UserAgent)
	}
	if len(cfg.Sync.SeriesDirs) != 2 {
		t.Fatalf("expected 2 series dirs, got %v", cfg.Sync.SeriesDirs)
	}
	if cfg.Sync.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Sync.Workers)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Fatalf("metrics overrides not applied: %+v", cfg.Metrics)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if got := cfg.Timeout(); got != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Remote: RemoteConfig{
				BaseURL:        "https://example.com/specs/",
				TimeoutSeconds: 30,
			},
			Sync: SyncConfig{
				SeriesDirs:  []string{"21_series/"},
				ContentRoot: "data",
				StateFile:   "state.json",
				Workers:     7,
			},
			Metrics: MetricsConfig{Port: 9090},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Remote.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Remote.BaseURL = "specs/latest" }},
		{"zero timeout", func(c *Config) { c.Remote.TimeoutSeconds = 0 }},
		{"no series dirs", func(c *Config) { c.Sync.SeriesDirs = nil }},
		{"empty content root", func(c *Config) { c.Sync.ContentRoot = "" }},
		{"empty state file", func(c *Config) { c.Sync.StateFile = "" }},
		{"zero workers", func(c *Config) { c.Sync.Workers = 0 }},
		{"metrics enabled without port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}
