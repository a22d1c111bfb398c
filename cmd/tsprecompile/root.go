// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "ts-precompile",
		Short: "Publish TypeScript declarations under their aliased module names",
		Long: TitleStyle.Render("ts-precompile") + SubtitleStyle.Render(" - declaration precompiler for addon publishing") + `

ts-precompile runs the TypeScript compiler in declaration-only mode, then
copies every declaration matched by a compilerOptions.paths alias in
tsconfig.json to <project>/<package-name>/, so consumers can import the
package by the same names the sources use.

` + SubtitleStyle.Render("Examples:") + `
  ts-precompile precompile      Generate and publish declarations
  ts-precompile clean           Remove everything the last run created
  ts-precompile config show     Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.projectDir, "project", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ts-precompile.cue or ts-precompile.toml in the project root)")

	rootCmd.AddCommand(newPrecompileCommand(app, flags))
	rootCmd.AddCommand(newCleanCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree with production dependencies and runs it.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// fang overrides rootCmd.Version, so pass it through fang.WithVersion().
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
