// Package config loads the console configuration from a YAML file with
// DEXQUOTE_* environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the console's full configuration.
type Config struct {
	// SnapshotPath is the state snapshot loaded at startup.
	SnapshotPath string `mapstructure:"snapshot_path"`
	// SlippageBps is the default slippage tolerance applied to quotes.
	SlippageBps uint16 `mapstructure:"slippage_bps"`

	Log     Log     `mapstructure:"log"`
	Metrics Metrics `mapstructure:"metrics"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Metrics configures the optional Prometheus endpoint for long-lived
// sessions.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads the configuration. A missing path loads defaults and
// environment overrides only; a path that exists but does not parse is an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("snapshot_path", "snapshot.json")
	v.SetDefault("slippage_bps", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetEnvPrefix("DEXQUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SnapshotPath == "" {
		return fmt.Errorf("config: snapshot_path cannot be empty")
	}
	if c.SlippageBps > 10000 {
		return fmt.Errorf("config: slippage_bps %d exceeds 10000", c.SlippageBps)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics.addr cannot be empty when metrics are enabled")
	}
	return nil
}

// ZapLevel returns the configured log level. validate has already checked
// that it parses.
func (c *Config) ZapLevel() zapcore.Level {
	level, _ := zapcore.ParseLevel(c.Log.Level)
	return level
}
