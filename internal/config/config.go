// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for chatwire.
//
// Precedence, lowest to highest:
//   - built-in defaults
//   - ~/.chatwire/config.toml
//   - environment variables (CHATWIRE_*)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete chatwire configuration.
type Config struct {
	// Model is the model identifier sent with every request.
	Model string `toml:"model" env:"CHATWIRE_MODEL"`

	API APIConfig `toml:"api"`
	UI  UIConfig  `toml:"ui"`
}

// APIConfig configures the chat-completions endpoint.
type APIConfig struct {
	// BaseURL is the API base, e.g. https://api.openai.com/v1.
	BaseURL string `toml:"base_url" env:"CHATWIRE_BASE_URL"`
	// Key is the bearer token. OPENAI_API_KEY is honored as a fallback.
	Key string `toml:"key" env:"CHATWIRE_API_KEY"`
	// Temperature is the optional sampling temperature (0 = omit).
	Temperature float64 `toml:"temperature" env:"CHATWIRE_TEMPERATURE"`
	// MaxTokens caps the reply length (0 = omit).
	MaxTokens int `toml:"max_tokens" env:"CHATWIRE_MAX_TOKENS"`
}

// UIConfig configures terminal output behavior.
type UIConfig struct {
	// Markdown enables the styled re-render of completed replies on a TTY.
	Markdown bool `toml:"markdown" env:"CHATWIRE_MARKDOWN"`
	// ThinkingIndicator enables the dot ticker while waiting for the
	// first response byte.
	ThinkingIndicator bool `toml:"thinking_indicator" env:"CHATWIRE_THINKING"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Model: "gpt-4o-mini",
		API: APIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		UI: UIConfig{
			Markdown:          true,
			ThinkingIndicator: true,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration with full precedence applied.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, decErr := toml.DecodeFile(path, cfg); decErr != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, decErr)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Common fallback so existing OpenAI-style setups work unchanged.
	if cfg.API.Key == "" {
		cfg.API.Key = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and shapes.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if c.API.Temperature < 0 || c.API.Temperature > 2 {
		return fmt.Errorf("api.temperature %v out of range [0, 2]", c.API.Temperature)
	}
	if c.API.MaxTokens < 0 {
		return fmt.Errorf("api.max_tokens %d must not be negative", c.API.MaxTokens)
	}
	return nil
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.chatwire.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatwire"), nil
}

// ConfigPath returns the config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory when missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// HistoryFile returns the input history file location.
func HistoryFile() string {
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chatwire_history")
	}
	return filepath.Join(dir, "history")
}
