// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the nova configuration.
//
// # Configuration Precedence
//
// Values are resolved in this order, highest first:
//   - Environment variables (NOVA_*)
//   - ~/.nova/config.toml
//   - Built-in defaults
//
// The API key is special: NOVA_API_KEY, GEMINI_API_KEY and API_KEY are read
// each time Config.APIKey is called, so a key exported after startup is
// picked up by the next remote call.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := gemini.New(gemini.Config{APIKey: cfg.APIKey})
//
// Watch re-reads the file on change so the chat view can pick up a new
// default model or thinking setting without a restart.
package config
