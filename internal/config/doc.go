// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for sdetchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ProviderConfig: One entry in the model routing table
//   - StorageConfig: Persistence backend selection
//   - QuotaConfig: Request quota settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SDETCHAT_*)
//   - ~/.sdetchat/config.toml
//   - ~/.sdetchat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.DefaultModel
//	limit := cfg.Quota.Limit
//
// A Watcher can be attached to the config file to pick up edits while the
// program runs; see NewWatcher.
package config
