// Package config provides the YAML-based application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen"`

	// DatabasePath is where the SQLite database lives.
	DatabasePath string `yaml:"database_path"`

	// DefaultSessionMinutes is the focus-timer session length a fresh
	// timer starts with.
	DefaultSessionMinutes int `yaml:"default_session_minutes"`

	// XPPerMinute overrides the experience reward rate. Zero keeps the
	// built-in rate.
	XPPerMinute int `yaml:"xp_per_minute"`

	// MaxInstances caps how many occurrences one recurring event may
	// expand to per query. Zero keeps the built-in cap.
	MaxInstances int `yaml:"max_instances"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	return &Config{
		Listen:                ":8080",
		DatabasePath:          "lifeos.db",
		DefaultSessionMinutes: 25,
		LogLevel:              "info",
	}
}

// Load reads the configuration at path, merged over the defaults. A missing
// file is not an error: the defaults are returned so first runs work without
// any setup.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets deployment tooling override the listen address without
// editing the file.
func (c *Config) applyEnv() {
	if addr := os.Getenv("LIFEOS_LISTEN"); addr != "" {
		c.Listen = addr
	}
}

// applyDefaults backfills zero values after an explicit file load.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.DefaultSessionMinutes <= 0 {
		c.DefaultSessionMinutes = def.DefaultSessionMinutes
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}
