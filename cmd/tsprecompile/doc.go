// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for ts-precompile.
//
// This package implements the Cobra command hierarchy: the root command with
// its global flags, precompile, clean, and the config subcommands. Business
// logic lives in internal/precompile and internal/manifest; handlers here
// only resolve settings, build the runner, and render results and errors.
package cmd
