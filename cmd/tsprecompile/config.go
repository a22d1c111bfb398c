// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/ts-precompile/ts-precompile/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `ts-precompile config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ts-precompile configuration",
		Long: `Manage ts-precompile configuration.

Configuration is read from ts-precompile.cue (or ts-precompile.toml) in the
project root, then overridden by TS_PRECOMPILE_* environment variables
(e.g. TS_PRECOMPILE_COMPILER_COMMAND) and finally by command-line flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			showConfig(app.stdout, s)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			if s.cfg.Source == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, s.cfg.Source)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default ts-precompile.cue in the project root",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			path, created, err := config.CreateDefaultConfig(s.projectRoot)
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Config file already exists: %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, s *settings) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	cfg := s.cfg

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	source := SubtitleStyle.Render("(using defaults)")
	if cfg.Source != "" {
		source = cfg.Source
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Project root"), s.projectRoot)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("manifest_path"), valueStyle.Render(cfg.ManifestPath))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("compiler"))
	fmt.Fprintf(w, "  command: %s\n", valueStyle.Render(cfg.Compiler.Command))
	fmt.Fprintf(w, "  min_version: %s\n", valueOrNone(cfg.Compiler.MinVersion))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("addon"))
	fmt.Fprintf(w, "  name: %s\n", valueOrNone(cfg.Addon.Name))
	fmt.Fprintf(w, "  root: %s\n", valueOrNone(cfg.Addon.Root))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", s.verbose)))
}

func valueOrNone(v string) string {
	if v == "" {
		return SubtitleStyle.Render("(not set)")
	}
	return SuccessStyle.Render(v)
}
