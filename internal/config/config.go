// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for meshchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.meshchat/config.toml
//   - ~/.meshchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete meshchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Gateway connection settings
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Polling backoff settings for fan-out replies
	Polling PollingConfig `toml:"polling" json:"polling"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// GatewayConfig contains mesh gateway connection settings.
type GatewayConfig struct {
	// URL of the mesh gateway
	URL string `toml:"url" json:"url"`
	// TimeoutSecs is the hard timeout for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Model used for direct queries
	Model string `toml:"model" json:"model"`
	// PollRate limits reply-poll requests per second
	PollRate float64 `toml:"poll_rate" json:"poll_rate"`
}

// PollingConfig bounds the fan-out reply polling loop.
type PollingConfig struct {
	// InitialDelayMs before the first poll attempt
	InitialDelayMs int `toml:"initial_delay_ms" json:"initial_delay_ms"`
	// MaxDelayMs caps the backoff growth
	MaxDelayMs int `toml:"max_delay_ms" json:"max_delay_ms"`
	// MaxAttempts bounds the polling loop
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	// Multiplier grows the delay between attempts
	Multiplier float64 `toml:"multiplier" json:"multiplier"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// MaxMessageLength rejects longer submissions before any network call
	MaxMessageLength int `toml:"max_message_length" json:"max_message_length"`
	// ErrorDisplaySecs is how long an error banner stays before auto-dismiss
	ErrorDisplaySecs int `toml:"error_display_secs" json:"error_display_secs"`
	// Markdown renders completed assistant messages with glamour
	Markdown bool `toml:"markdown" json:"markdown"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Gateway: GatewayConfig{
			URL:         "http://127.0.0.1:8080",
			TimeoutSecs: 30,
			Model:       "default",
			PollRate:    4,
		},

		Polling: PollingConfig{
			InitialDelayMs: 1000,
			MaxDelayMs:     10000,
			MaxAttempts:    10,
			Multiplier:     1.5,
		},

		UI: UIConfig{
			Theme:            "dark",
			MaxMessageLength: 4000,
			ErrorDisplaySecs: 5,
			Markdown:         true,
		},
	}
}

// InitialDelay returns the polling initial delay as a duration.
func (p PollingConfig) InitialDelay() time.Duration {
	return time.Duration(p.InitialDelayMs) * time.Millisecond
}

// MaxDelay returns the polling delay cap as a duration.
func (p PollingConfig) MaxDelay() time.Duration {
	return time.Duration(p.MaxDelayMs) * time.Millisecond
}

// Timeout returns the gateway request timeout as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// ErrorDisplay returns the error banner duration.
func (u UIConfig) ErrorDisplay() time.Duration {
	return time.Duration(u.ErrorDisplaySecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the meshchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".meshchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finalize(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finalize(cfg)
		}
	}

	return finalize(cfg)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finalize(cfg)
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills in any missing values with defaults and clamps values
// that are out of range.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = defaults.Gateway.URL
	}
	if c.Gateway.TimeoutSecs <= 0 {
		c.Gateway.TimeoutSecs = defaults.Gateway.TimeoutSecs
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = defaults.Gateway.Model
	}
	if c.Gateway.PollRate <= 0 {
		c.Gateway.PollRate = defaults.Gateway.PollRate
	}

	if c.Polling.InitialDelayMs <= 0 {
		c.Polling.InitialDelayMs = defaults.Polling.InitialDelayMs
	}
	if c.Polling.MaxDelayMs < c.Polling.InitialDelayMs {
		c.Polling.MaxDelayMs = defaults.Polling.MaxDelayMs
	}
	if c.Polling.MaxAttempts <= 0 {
		c.Polling.MaxAttempts = defaults.Polling.MaxAttempts
	}
	if c.Polling.Multiplier < 1.0 {
		c.Polling.Multiplier = defaults.Polling.Multiplier
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.MaxMessageLength <= 0 {
		c.UI.MaxMessageLength = defaults.UI.MaxMessageLength
	}
	if c.UI.ErrorDisplaySecs <= 0 {
		c.UI.ErrorDisplaySecs = defaults.UI.ErrorDisplaySecs
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.url %q is not a valid URL", c.Gateway.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.url scheme %q must be http or https", u.Scheme)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme %q must be dark, light, or auto", c.UI.Theme)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies MESHCHAT_* environment variables over the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MESHCHAT_GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv("MESHCHAT_MODEL"); v != "" {
		c.Gateway.Model = v
	}
	if v := os.Getenv("MESHCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("MESHCHAT_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Gateway.TimeoutSecs = n
		}
	}
	if v := os.Getenv("MESHCHAT_POLL_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Polling.MaxAttempts = n
		}
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the TOML config file.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
