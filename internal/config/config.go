// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// samadhan-tui.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides:
//   - ~/.samadhan/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/techiesflock/samadhan-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete samadhan-tui configuration.
type Config struct {
	Version string `toml:"version"`

	// Server configuration
	Server ServerConfig `toml:"server"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// Sessions configuration
	Sessions SessionsConfig `toml:"sessions"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection configuration.
type ServerConfig struct {
	// BaseURL is the backend API base URL
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the timeout for standard requests in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// UploadTimeoutSecs is the timeout for file uploads in seconds
	UploadTimeoutSecs int `toml:"upload_timeout_secs"`
}

// Timeout returns the standard request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// UploadTimeout returns the file upload timeout as a duration.
func (s ServerConfig) UploadTimeout() time.Duration {
	return time.Duration(s.UploadTimeoutSecs) * time.Second
}

// ChatConfig contains retrieval and generation configuration.
type ChatConfig struct {
	// DefaultModel is used until the user picks one in the model selector
	DefaultModel string `toml:"default_model"`
	// Models is the list offered in the model selector
	Models []string `toml:"models"`
	// TopK is the number of document chunks retrieved per question
	TopK int `toml:"top_k"`
	// IncludeHistory sends prior turns of the session as context
	IncludeHistory bool `toml:"include_history"`
}

// SessionsConfig contains session list polling configuration.
type SessionsConfig struct {
	// PollIntervalSecs is how often the session list is re-fetched
	PollIntervalSecs int `toml:"poll_interval_secs"`
}

// PollInterval returns the poll interval as a duration.
func (s SessionsConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSecs) * time.Second
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the color theme: "dark" or "light"
	Theme string `toml:"theme"`
	// CompactMode reduces padding in lists
	CompactMode bool `toml:"compact_mode"`
	// ShowSources renders the answer source badge (cache / knowledge base)
	ShowSources bool `toml:"show_sources"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:           "http://127.0.0.1:3000/api/v1",
			TimeoutSecs:       30,
			UploadTimeoutSecs: 120,
		},

		Chat: ChatConfig{
			DefaultModel: "gemini-2.5-flash",
			Models: []string{
				"gemini-2.5-flash",
				"gemini-2.5-pro",
				"gemini-2.5-flash-lite",
			},
			TopK:           5,
			IncludeHistory: true,
		},

		Sessions: SessionsConfig{
			PollIntervalSecs: 30,
		},

		UI: UIConfig{
			Theme:       "dark",
			CompactMode: false,
			ShowSources: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the samadhan configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".samadhan"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions fixes overly permissive config files. The config
// sits next to the persisted auth token, so the whole directory is private.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. A missing
// file is not an error; the defaults stand.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the standard location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path atomically.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors aggregates all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"server.base_url", "must be an absolute http(s) URL"})
	}
	if c.Server.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"server.timeout_secs", "must be positive"})
	}
	if c.Server.UploadTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"server.upload_timeout_secs", "must be positive"})
	}
	if c.Chat.TopK <= 0 || c.Chat.TopK > 50 {
		errs = append(errs, ValidationError{"chat.top_k", "must be between 1 and 50"})
	}
	if c.Chat.DefaultModel == "" {
		errs = append(errs, ValidationError{"chat.default_model", "must not be empty"})
	}
	if c.Sessions.PollIntervalSecs < 5 {
		errs = append(errs, ValidationError{"sessions.poll_interval_secs", "must be at least 5"})
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		errs = append(errs, ValidationError{"ui.theme", "must be \"dark\" or \"light\""})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Server.UploadTimeoutSecs == 0 {
		c.Server.UploadTimeoutSecs = def.Server.UploadTimeoutSecs
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = def.Chat.DefaultModel
	}
	if len(c.Chat.Models) == 0 {
		c.Chat.Models = def.Chat.Models
	}
	if c.Chat.TopK == 0 {
		c.Chat.TopK = def.Chat.TopK
	}
	if c.Sessions.PollIntervalSecs == 0 {
		c.Sessions.PollIntervalSecs = def.Sessions.PollIntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies SAMADHAN_* environment variable overrides.
// Environment always wins over the file.
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("SAMADHAN_SERVER_URL"); u != "" {
		c.Server.BaseURL = u
	}
	if m := os.Getenv("SAMADHAN_MODEL"); m != "" {
		c.Chat.DefaultModel = m
	}
	if k := os.Getenv("SAMADHAN_TOP_K"); k != "" {
		if n, err := strconv.Atoi(k); err == nil {
			c.Chat.TopK = n
		}
	}
	if v := os.Getenv("SAMADHAN_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sessions.PollIntervalSecs = n
		}
	}
	if t := os.Getenv("SAMADHAN_THEME"); t != "" {
		c.UI.Theme = t
	}
	if v := os.Getenv("SAMADHAN_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.TimeoutSecs = n
		}
	}
}
