// SPDX-License-Identifier: MIT

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/forgeci/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/forgeci/config.cue on macOS, %APPDATA%\forgeci\config.cue
// on Windows). The package provides type-safe configuration access covering container
// engine selection, pipeline behavior, UI settings, and the allowlist store location.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
