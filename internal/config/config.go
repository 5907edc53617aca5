// Package config handles configuration loading for esefscan.
// It supports YAML config files with environment variable overrides and
// owns the per-sample directory scaffolding.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Terminal TerminalConfig `mapstructure:"terminal" yaml:"terminal"`
	Sample   SampleConfig   `mapstructure:"sample"   yaml:"sample"`
	Discover DiscoverConfig `mapstructure:"discover" yaml:"discover"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// TerminalConfig holds the financial-data terminal connection settings.
type TerminalConfig struct {
	BaseURL       string `mapstructure:"base_url"        yaml:"base_url"`
	AppKey        string `mapstructure:"app_key"         yaml:"app_key"`
	MinIntervalMS int    `mapstructure:"min_interval_ms" yaml:"min_interval_ms"`
	MaxAttempts   int    `mapstructure:"max_attempts"    yaml:"max_attempts"`
}

// SampleConfig holds the data layout of one research sample.
type SampleConfig struct {
	DataRoot string `mapstructure:"data_root" yaml:"data_root"`
}

// DiscoverConfig holds the filing registry feed settings.
type DiscoverConfig struct {
	Feeds []string `mapstructure:"feeds" yaml:"feeds"`
	Limit int      `mapstructure:"limit" yaml:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.esefscan/config.yaml (home directory)
//  3. /etc/esefscan/config.yaml (system)
//
// Environment variables override config file values.
// Format: ESEFSCAN_<SECTION>_<KEY>, e.g., ESEFSCAN_TERMINAL_APP_KEY
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".esefscan"))
	v.AddConfigPath("/etc/esefscan")

	v.SetEnvPrefix("ESEFSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults + env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("ESEFSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Terminal defaults: the local data API of the terminal application,
	// spaced to its documented five requests per second.
	v.SetDefault("terminal.base_url", "http://localhost:9000/api/v1/data")
	v.SetDefault("terminal.min_interval_ms", 200)
	v.SetDefault("terminal.max_attempts", 5)

	// Sample defaults
	v.SetDefault("sample.data_root", "./data")

	// Discover defaults
	v.SetDefault("discover.feeds", []string{
		"https://filings.xbrl.org/rss.xml",
		"https://www.xbrl.org/feed/",
	})
	v.SetDefault("discover.limit", 25)

	// Logging defaults
	v.SetDefault("logging.verbose", false)
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("ESEFSCAN_TERMINAL_APP_KEY"); key != "" {
		cfg.Terminal.AppKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
