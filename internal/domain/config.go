// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Version       string
	Host          string `toml:"host" mapstructure:"host"`
	Port          int    `toml:"port" mapstructure:"port"`
	BaseURL       string `toml:"baseUrl" mapstructure:"baseUrl"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`

	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`

	// Search tuning. SeasonPackThreshold is the fraction of a season that must
	// still be missing after individual episode search before a season-pack
	// search is attempted.
	SeasonPackThreshold  float64 `toml:"seasonPackThreshold" mapstructure:"seasonPackThreshold"`
	SearchRetryAttempts  int     `toml:"searchRetryAttempts" mapstructure:"searchRetryAttempts"`
	NewEpisodeWindowHrs  int     `toml:"newEpisodeWindowHours" mapstructure:"newEpisodeWindowHours"`
	ProviderTimeoutSecs  int     `toml:"providerTimeoutSeconds" mapstructure:"providerTimeoutSeconds"`
	BreakerFailThreshold int     `toml:"breakerFailureThreshold" mapstructure:"breakerFailureThreshold"`
	BreakerCooldownSecs  int     `toml:"breakerCooldownSeconds" mapstructure:"breakerCooldownSeconds"`
}

// Validate returns a non-nil error when the configuration cannot be used to
// start the daemon.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DataDir == "" {
		return errors.New("dataDir is required")
	}
	if c.SeasonPackThreshold < 0 || c.SeasonPackThreshold > 1 {
		return fmt.Errorf("seasonPackThreshold must be within [0,1], got %v", c.SeasonPackThreshold)
	}
	if c.BreakerFailThreshold < 1 {
		return fmt.Errorf("breakerFailureThreshold must be at least 1, got %d", c.BreakerFailThreshold)
	}
	if c.BreakerCooldownSecs < 1 {
		return fmt.Errorf("breakerCooldownSeconds must be at least 1, got %d", c.BreakerCooldownSecs)
	}
	return nil
}

// ProviderTimeout returns the per-provider search timeout.
func (c *Config) ProviderTimeout() time.Duration {
	if c.ProviderTimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}

// BreakerCooldown returns how long an open circuit waits before probing.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSecs) * time.Second
}

// NewEpisodeWindow returns the interval used by the newly-aired specification.
func (c *Config) NewEpisodeWindow() time.Duration {
	if c.NewEpisodeWindowHrs <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.NewEpisodeWindowHrs) * time.Hour
}
