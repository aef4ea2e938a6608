// Package config loads the .deckhand.yaml runner configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runner defaults read from .deckhand.yaml. Values unset
// in the file keep their hardcoded defaults; explicit runner options
// always win over the file.
type Config struct {
	Theme   string `yaml:"theme"`
	NoColor bool   `yaml:"no_color"`
	CI      bool   `yaml:"ci"`
	Debug   bool   `yaml:"debug"`

	// SlowMs and TimeoutMs apply to every test that declares no value
	// of its own. Zero means unset.
	SlowMs    int `yaml:"slow_ms"`
	TimeoutMs int `yaml:"timeout_ms"`
}

// Constants for default values.
const (
	DefaultTheme = "default"
	FileName     = ".deckhand.yaml"
)

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{Theme: DefaultTheme}
}

// Load reads the configuration, searching dir and then its parents for
// a .deckhand.yaml. A missing file is not an error; defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()
	defer applyEnv(cfg)

	path := findConfig(dir)
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if fileCfg.Theme != "" {
		cfg.Theme = fileCfg.Theme
	}
	cfg.NoColor = fileCfg.NoColor
	cfg.CI = fileCfg.CI
	cfg.Debug = fileCfg.Debug
	if fileCfg.SlowMs > 0 {
		cfg.SlowMs = fileCfg.SlowMs
	}
	if fileCfg.TimeoutMs > 0 {
		cfg.TimeoutMs = fileCfg.TimeoutMs
	}

	return cfg, nil
}

// applyEnv lets the environment override the file: CI pipelines set
// these without touching the checkout.
func applyEnv(cfg *Config) {
	if os.Getenv("DECKHAND_CI") != "" {
		cfg.CI = true
	}
	if os.Getenv("DECKHAND_DEBUG") != "" {
		cfg.Debug = true
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
}

// Slow returns the configured default slow threshold.
func (c *Config) Slow() time.Duration {
	return time.Duration(c.SlowMs) * time.Millisecond
}

// Timeout returns the configured default timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// findConfig walks from dir up to the filesystem root looking for the
// config file.
func findConfig(dir string) string {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
