// SPDX-License-Identifier: MPL-2.0

// Package config loads ts-precompile's own settings using Viper.
//
// Settings come, lowest precedence first, from built-in defaults, an optional
// project file (ts-precompile.cue, or ts-precompile.toml), and TS_PRECOMPILE_*
// environment variables. Command-line flags are applied on top by the command
// layer. Both file formats are validated against the embedded CUE schema
// (config_schema.cue) so a typo in a key is reported instead of ignored.
package config
