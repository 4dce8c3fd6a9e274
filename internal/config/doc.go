// SPDX-License-Identifier: MPL-2.0

// Package config handles vosemu configuration using Viper with CUE as the file format.
//
// Configuration is read from an explicit --config path, otherwise from
// $XDG_CONFIG_HOME/vosemu/config.cue (~/Library/Application Support/vosemu on macOS,
// %APPDATA%\vosemu on Windows), otherwise from ./config.cue. A missing file means
// defaults. Files are validated against the embedded CUE schema (config_schema.cue)
// and any key can be overridden with a VOSEMU_* environment variable, for example
// VOSEMU_DISPLAY_LINE_WRAP_WIDTH=100.
package config
