// Package config loads and validates specsync configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Remote  RemoteConfig  `mapstructure:"remote"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RemoteConfig describes the upstream listing server.
type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SyncConfig governs discovery and the fetch pool.
type SyncConfig struct {
	SeriesDirs  []string `mapstructure:"series_dirs"`
	ContentRoot string   `mapstructure:"content_root"`
	StateFile   string   `mapstructure:"state_file"`
	Workers     int      `mapstructure:"workers"`
}

// MetricsConfig controls the optional observability endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// defaultSeriesDirs lists the known specification series under a release
// directory. The upstream server publishes no index of these, so the set is
// static configuration.
var defaultSeriesDirs = []string{
	"21_series/", "22_series/", "23_series/", "24_series/", "25_series/",
	"26_series/", "27_series/", "28_series/", "29_series/", "31_series/",
	"32_series/", "33_series/", "34_series/", "35_series/", "36_series/",
	"37_series/", "38_series/", "41_series/", "42_series/", "43_series/",
	"44_series/", "45_series/", "46_series/", "48_series/", "49_series/",
	"51_series/", "52_series/", "55_series/",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPECSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.base_url", "https://www.3gpp.org/ftp/Specs/latest/Rel-18/")
	v.SetDefault("remote.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("remote.timeout_seconds", 30)
	v.SetDefault("sync.series_dirs", defaultSeriesDirs)
	v.SetDefault("sync.content_root", "data/Rel-18")
	v.SetDefault("sync.state_file", "specsync-state.json")
	v.SetDefault("sync.workers", 7)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url must be set")
	}
	if u, err := url.Parse(c.Remote.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url %q is not an absolute URL", c.Remote.BaseURL)
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return fmt.Errorf("remote.timeout_seconds must be > 0")
	}
	if len(c.Sync.SeriesDirs) == 0 {
		return fmt.Errorf("sync.series_dirs must not be empty")
	}
	if c.Sync.ContentRoot == "" {
		return fmt.Errorf("sync.content_root must be set")
	}
	if c.Sync.StateFile == "" {
		return fmt.Errorf("sync.state_file must be set")
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be > 0")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// Timeout converts the remote timeout config into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}
