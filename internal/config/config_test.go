// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()

	appCfg, err := New(dir, "test")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	cfg := appCfg.Config
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 7935, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "test", cfg.Version)
	assert.InDelta(t, 0.6, cfg.SeasonPackThreshold, 0.0001)
	assert.Equal(t, 5, cfg.BreakerFailThreshold)
	assert.Equal(t, 300, cfg.BreakerCooldownSecs)
	assert.False(t, cfg.MetricsEnabled)
}

func TestNewReadsExistingConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `host = "0.0.0.0"
port = 8080
logLevel = "DEBUG"
seasonPackThreshold = 0.8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	appCfg, err := New(dir, "test")
	require.NoError(t, err)

	cfg := appCfg.Config
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.InDelta(t, 0.8, cfg.SeasonPackThreshold, 0.0001)

	// Unspecified keys keep their defaults.
	assert.Equal(t, 5, cfg.BreakerFailThreshold)
}

func TestNewEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FETCHARR_PORT", "9090")
	t.Setenv("FETCHARR_LOGLEVEL", "TRACE")

	appCfg, err := New(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, 9090, appCfg.Config.Port)
	assert.Equal(t, "TRACE", appCfg.Config.LogLevel)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "port = -1\n"},
		{"bad threshold", "seasonPackThreshold = 1.5\n"},
		{"bad breaker threshold", "breakerFailureThreshold = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := filepath.Join(dir, tt.name)
			require.NoError(t, os.MkdirAll(sub, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(sub, "config.toml"), []byte(tt.content), 0o644))

			_, err := New(sub, "test")
			assert.Error(t, err)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	dir := t.TempDir()

	appCfg, err := New(dir, "test")
	require.NoError(t, err)

	cfg := appCfg.Config
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout())
	assert.Equal(t, 300*time.Second, cfg.BreakerCooldown())
	assert.Equal(t, 24*time.Hour, cfg.NewEpisodeWindow())

	cfg.ProviderTimeoutSecs = 0
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout(), "zero falls back to the default")
	cfg.NewEpisodeWindowHrs = 0
	assert.Equal(t, 24*time.Hour, cfg.NewEpisodeWindow())
}
