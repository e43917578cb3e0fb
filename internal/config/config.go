// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the application configuration from a TOML file with
// environment variable overrides (FETCHARR__ prefix).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/fetcharr/internal/domain"
)

// AppConfig wraps the loaded configuration and the viper instance that
// produced it, so callers can react to config file changes.
type AppConfig struct {
	Config *domain.Config
	viper  *viper.Viper
}

// New loads configuration from configDir/config.toml, creating the file with
// defaults when it does not exist yet.
func New(configDir, version string) (*AppConfig, error) {
	c := &AppConfig{
		viper: viper.New(),
	}
	if err := c.load(configDir); err != nil {
		return nil, err
	}
	c.Config.Version = version
	if err := c.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func (c *AppConfig) setDefaults(configDir string) {
	c.viper.SetDefault("host", "127.0.0.1")
	c.viper.SetDefault("port", 7935)
	c.viper.SetDefault("baseUrl", "/")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("dataDir", configDir)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9935)
	c.viper.SetDefault("seasonPackThreshold", 0.6)
	c.viper.SetDefault("searchRetryAttempts", 2)
	c.viper.SetDefault("newEpisodeWindowHours", 24)
	c.viper.SetDefault("providerTimeoutSeconds", 60)
	c.viper.SetDefault("breakerFailureThreshold", 5)
	c.viper.SetDefault("breakerCooldownSeconds", 300)
}

func (c *AppConfig) load(configDir string) error {
	c.setDefaults(configDir)

	c.viper.SetConfigName("config")
	c.viper.SetConfigType("toml")
	c.viper.AddConfigPath(configDir)

	c.viper.SetEnvPrefix("FETCHARR")
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	c.viper.AutomaticEnv()

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := c.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		if err := c.writeDefaultConfig(configDir); err != nil {
			return err
		}
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read generated config: %w", err)
		}
	}

	cfg := &domain.Config{}
	if err := c.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	c.Config = cfg
	return nil
}

func (c *AppConfig) writeDefaultConfig(configDir string) error {
	path := filepath.Join(configDir, "config.toml")
	if err := c.viper.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	log.Info().Str("path", path).Msg("config: wrote default config file")
	return nil
}

// WatchConfig reloads the log level when the config file changes on disk.
// Structural settings (ports, data dir, thresholds) require a restart and are
// deliberately not hot-swapped; evaluations started before a change keep the
// snapshot they were given.
func (c *AppConfig) WatchConfig() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Msg("config: file changed")
		level := c.viper.GetString("logLevel")
		if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			zerolog.SetGlobalLevel(lvl)
			log.Info().Str("level", level).Msg("config: log level updated")
		}
	})
	c.viper.WatchConfig()
}
