// Package config loads application configuration from file, environment and
// flags via viper, exposing it as an immutable snapshot passed down to the
// components that need it rather than read through globals.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Features FeaturesConfig `mapstructure:"features"`
	UI       UIConfig       `mapstructure:"ui"`
}

// FeedConfig points at the content distribution endpoints.
type FeedConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// SyncConfig controls the sync loop. Polling cadence and push triggering are
// policy, not contract, so both are configurable. An interval of 0 disables
// polling entirely.
type SyncConfig struct {
	Interval    string `mapstructure:"interval"`
	PushEnabled bool   `mapstructure:"push_enabled"`
}

// FeaturesConfig carries the enabled-feature flags the host exposes.
type FeaturesConfig struct {
	RoadmapEnabled bool `mapstructure:"roadmap_enabled"`
}

// UIConfig carries the display preferences the host settings store provides.
type UIConfig struct {
	Language string `mapstructure:"language"`
	Theme    string `mapstructure:"theme"`
}

// Load unmarshals configuration from viper's current state and applies
// defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Feed.Timeout == "" {
		cfg.Feed.Timeout = "10s"
	}

	if cfg.Sync.Interval == "" {
		cfg.Sync.Interval = "5m"
	}

	if cfg.UI.Language == "" {
		cfg.UI.Language = "en"
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "dark"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed base_url is required")
	}

	parsed, err := url.Parse(c.Feed.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid feed base_url: %s", c.Feed.BaseURL)
	}

	if _, err := time.ParseDuration(c.Feed.Timeout); err != nil {
		return fmt.Errorf("invalid feed timeout: %w", err)
	}

	interval, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return fmt.Errorf("invalid sync interval: %w", err)
	}
	if interval != 0 && interval < time.Second {
		return fmt.Errorf("sync interval %s is below 1s (use 0 to disable polling)", c.Sync.Interval)
	}

	return nil
}

// FeedTimeout returns the parsed HTTP timeout. Validate must have passed.
func (c *Config) FeedTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Feed.Timeout)
	return d
}

// SyncInterval returns the parsed polling cadence. Validate must have passed.
func (c *Config) SyncInterval() time.Duration {
	d, _ := time.ParseDuration(c.Sync.Interval)
	return d
}
