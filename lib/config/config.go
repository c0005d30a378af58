// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon configuration file. The file is
// YAML; every field has a sensible default so an absent file yields a
// working configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Dir is the root under which sandbox working directories live.
	Dir string `yaml:"dir"`

	// Socket is the Unix socket path the controller listens on.
	Socket string `yaml:"socket"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Platform PlatformConfig `yaml:"platform"`
}

// PlatformConfig overrides the platform identity reported by the
// platform action. Empty fields fall back to the build's GOOS/GOARCH.
type PlatformConfig struct {
	OS           string `yaml:"os"`
	Architecture string `yaml:"architecture"`
	Variant      string `yaml:"variant"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dir:      "/var/lib/warren",
		Socket:   "/run/warren/warren.sock",
		LogLevel: "info",
		Platform: PlatformConfig{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
		},
	}
}

// Load reads the configuration file at path, applying defaults for
// absent fields. An empty path, or a missing file at the default
// location, yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	// Platform fields left empty fall back to the build's identity.
	if cfg.Platform.OS == "" {
		cfg.Platform.OS = runtime.GOOS
	}
	if cfg.Platform.Architecture == "" {
		cfg.Platform.Architecture = runtime.GOARCH
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir must not be empty")
	}
	if c.Socket == "" {
		return fmt.Errorf("socket must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name onto slog's levels.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
