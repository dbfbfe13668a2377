// Package config loads process configuration from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	// Store is the local database configuration.
	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	// Remote is the Postgres sync backend. Sync stays disabled until a DSN
	// is configured.
	Remote struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"remote"`

	Daemon struct {
		ProbeIntervalSeconds    int  `mapstructure:"probe_interval_seconds"`
		DebounceIntervalSeconds int  `mapstructure:"debounce_interval_seconds"`
		WatchStore              bool `mapstructure:"watch_store"`
	} `mapstructure:"daemon"`

	Dashboard struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"dashboard"`

	Log struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"log"`
}

// DefaultStorePath is used when no store path is configured.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "invoicepro.db"
	}
	return filepath.Join(home, ".invoicepro", "invoicepro.db")
}

// Load reads configuration. The config file is optional; the binary works
// with defaults and environment variables alone.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join("$HOME", ".invoicepro"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("invoicepro")
	v.AutomaticEnv()

	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("daemon.probe_interval_seconds", 30)
	v.SetDefault("daemon.debounce_interval_seconds", 2)
	v.SetDefault("daemon.watch_store", true)
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", 8420)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Config file is optional unless one was named explicitly.
	if err := v.ReadInConfig(); err != nil {
		if file != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if dsn := os.Getenv("INVOICEPRO_REMOTE_DSN"); dsn != "" {
		cfg.Remote.DSN = dsn
	}
	return &cfg, nil
}
