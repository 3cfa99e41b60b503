// SPDX-License-Identifier: MPL-2.0

// Package config handles cargo-reaper's own settings using Viper with CUE as
// the file format.
//
// Configuration is loaded from ~/.config/cargo-reaper/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/cargo-reaper/config.cue on
// macOS, %APPDATA%\cargo-reaper\config.cue on Windows). It holds defaults for the
// build tool, the supervised host launch and the terminal UI. Plugin
// declarations live in the project's reaper.toml and are not part of it.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before
// being merged over the defaults, so type errors point at the offending field.
package config
