// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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

	"github.com/BurntSushi/toml"

	"github.com/sdetchat/sdetchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sdetchat configuration.
type Config struct {
	// DefaultModel is the model used when none is selected explicitly and
	// the fallback route for unrecognized model identifiers.
	DefaultModel string `toml:"default_model" json:"default_model"`

	Quota     QuotaConfig      `toml:"quota" json:"quota"`
	Storage   StorageConfig    `toml:"storage" json:"storage"`
	UI        UIConfig         `toml:"ui" json:"ui"`
	Providers []ProviderConfig `toml:"providers" json:"providers"`
}

// QuotaConfig contains the request quota settings.
type QuotaConfig struct {
	// Limit is the number of requests available before the gate refuses.
	Limit int `toml:"limit" json:"limit"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "memory".
	Backend string `toml:"backend" json:"backend"`
	// Dir is the data directory (empty = ~/.sdetchat).
	Dir string `toml:"dir" json:"dir"`
}

// UIConfig contains terminal front-end settings.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowQuota displays the remaining request count in the status bar
	ShowQuota bool `toml:"show_quota" json:"show_quota"`
}

// ProviderConfig is one entry in the model routing table.
type ProviderConfig struct {
	// Model is the identifier users select.
	Model string `toml:"model" json:"model"`
	// Endpoint is the URL chat requests are POSTed to.
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Schema is the wire shape: "builtin" or "openai".
	Schema string `toml:"schema" json:"schema"`
	// APIKey is sent as a bearer token for schemas requiring auth.
	APIKey string `toml:"api_key" json:"api_key"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DefaultModel: "sdet-builtin",

		Quota: QuotaConfig{
			Limit: 50,
		},

		Storage: StorageConfig{
			Backend: "file",
		},

		UI: UIConfig{
			Theme:     "dark",
			ShowQuota: true,
		},

		Providers: []ProviderConfig{
			{
				Model:    "sdet-builtin",
				Endpoint: "http://127.0.0.1:8080/api/chat",
				Schema:   "builtin",
			},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sdetchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sdetchat"), nil
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

// DataDir resolves the storage directory, creating it if needed.
func (c *Config) DataDir() (string, error) {
	dir := c.Storage.Dir
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return dir, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The file format is chosen by extension; anything that is not
// .json is decoded as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config from %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config from %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config from %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in any missing values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.Quota.Limit == 0 {
		c.Quota.Limit = defaults.Quota.Limit
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if len(c.Providers) == 0 {
		c.Providers = defaults.Providers
	}
	for i := range c.Providers {
		if c.Providers[i].Schema == "" {
			c.Providers[i].Schema = "builtin"
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// Config files carry API keys, so they are written 0600.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# sdetchat configuration file")
	fmt.Fprintln(file, "# Generated by sdetchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file with an atomic write.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Quota.Limit < 0 {
		errs = append(errs, ValidationError{
			Field:   "quota.limit",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Quota.Limit),
		})
	}

	validBackends := map[string]bool{"file": true, "sqlite": true, "memory": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	validSchemas := map[string]bool{"builtin": true, "openai": true}
	defaultRouted := false
	for i, p := range c.Providers {
		if p.Model == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers[%d].model", i),
				Message: "model identifier is required",
			})
		}
		if p.Model == c.DefaultModel {
			defaultRouted = true
		}
		if !validSchemas[strings.ToLower(p.Schema)] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers[%d].schema", i),
				Message: fmt.Sprintf("invalid schema '%s', must be one of: builtin, openai", p.Schema),
			})
		}
		if p.Endpoint == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers[%d].endpoint", i),
				Message: "endpoint URL is required",
			})
		} else if _, err := url.Parse(p.Endpoint); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("providers[%d].endpoint", i),
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if len(c.Providers) > 0 && !defaultRouted {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: fmt.Sprintf("'%s' has no matching providers entry", c.DefaultModel),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SDETCHAT_MODEL: overrides default_model
//   - SDETCHAT_API_KEY: overrides the api_key of every openai provider entry
//   - SDETCHAT_QUOTA_LIMIT: overrides quota.limit
//   - SDETCHAT_STORAGE_BACKEND: overrides storage.backend
//   - SDETCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("SDETCHAT_MODEL"); model != "" {
		c.DefaultModel = model
	}

	if key := os.Getenv("SDETCHAT_API_KEY"); key != "" {
		for i := range c.Providers {
			if strings.ToLower(c.Providers[i].Schema) == "openai" {
				c.Providers[i].APIKey = key
			}
		}
	}

	if limit := os.Getenv("SDETCHAT_QUOTA_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Quota.Limit = n
		}
	}

	if backend := os.Getenv("SDETCHAT_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if theme := os.Getenv("SDETCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Providers = make([]ProviderConfig, len(c.Providers))
	copy(clone.Providers, c.Providers)
	return &clone
}

// String returns a string representation of the config for debugging.
// API keys are redacted so the output is safe to log.
func (c *Config) String() string {
	safe := c.Clone()
	for i := range safe.Providers {
		if safe.Providers[i].APIKey != "" {
			safe.Providers[i].APIKey = "[REDACTED]"
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
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

// SetGlobal sets the global configuration instance. Thread-safe. A config
// set here is never clobbered by Global's lazy load.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	globalConfigOnce.Do(func() {})
}
