// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so host settings cannot leak
// into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CHATWIRE_MODEL", "CHATWIRE_BASE_URL", "CHATWIRE_API_KEY",
		"CHATWIRE_TEMPERATURE", "CHATWIRE_MAX_TOKENS",
		"CHATWIRE_MARKDOWN", "CHATWIRE_THINKING", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "gpt-4o-mini", cfg.Model)
	require.Equal(t, "https://api.openai.com/v1", cfg.API.BaseURL)
	require.True(t, cfg.UI.Markdown)
	require.True(t, cfg.UI.ThinkingIndicator)
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default().Model, cfg.Model)
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".chatwire")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
model = "gpt-4o"

[api]
base_url = "https://proxy.example.com/v1"
key = "file-key"
temperature = 0.7

[ui]
markdown = false
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", cfg.Model)
	require.Equal(t, "https://proxy.example.com/v1", cfg.API.BaseURL)
	require.Equal(t, "file-key", cfg.API.Key)
	require.InDelta(t, 0.7, cfg.API.Temperature, 1e-9)
	require.False(t, cfg.UI.Markdown)
	// Untouched fields keep their defaults.
	require.True(t, cfg.UI.ThinkingIndicator)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".chatwire")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("model = \"from-file\"\n"), 0600))

	t.Setenv("CHATWIRE_MODEL", "from-env")
	t.Setenv("CHATWIRE_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Model)
	require.Equal(t, "env-key", cfg.API.Key)
}

func TestOpenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "fallback-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "fallback-key", cfg.API.Key)
}

func TestChatwireKeyBeatsOpenAIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("CHATWIRE_API_KEY", "chatwire-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "chatwire-key", cfg.API.Key)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".chatwire")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("model = [broken"), 0600))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"empty model", func(c *Config) { c.Model = "" }, false},
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, false},
		{"relative url", func(c *Config) { c.API.BaseURL = "/v1" }, false},
		{"temperature too high", func(c *Config) { c.API.Temperature = 2.5 }, false},
		{"temperature max", func(c *Config) { c.API.Temperature = 2.0 }, true},
		{"negative max tokens", func(c *Config) { c.API.MaxTokens = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestHistoryFile(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	require.Equal(t, "/home/tester/.chatwire/history", HistoryFile())
}
