// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/ts-precompile/ts-precompile/internal/manifest"
	"github.com/ts-precompile/ts-precompile/internal/precompile"

	"github.com/spf13/cobra"
)

func newCleanCommand(app *App, flags *rootFlags) *cobra.Command {
	var (
		manifestPath string
		keep         bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the declaration files created by precompile",
		Long: `Remove the declaration files created by precompile.

Reads the manifest written by the last 'ts-precompile precompile' run,
removes each listed file in order, prunes directories left empty up to the
project root, and finally deletes the manifest itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			if cmd.Flags().Changed(manifestPathFlag) {
				s.cfg.ManifestPath = manifestPath
			}

			path := precompile.ResolveManifestPath(s.projectRoot, s.cfg.ManifestPath)
			res, err := manifest.Remove(path, manifest.RemoveOptions{
				StopAt:       s.projectRoot,
				KeepManifest: keep,
				Logger:       s.logger,
			})
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}

			fmt.Fprintf(app.stdout, "%s Removed %d declaration file(s)\n", SuccessStyle.Render("✓"), len(res.Removed))
			if len(res.Missing) > 0 {
				fmt.Fprintf(app.stdout, "  %s %d listed file(s) were already gone\n", WarningStyle.Render("!"), len(res.Missing))
			}
			if s.verbose {
				for _, p := range res.Removed {
					fmt.Fprintf(app.stdout, "  %s %s\n", VerboseStyle.Render("-"), relTo(s.projectRoot, p))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, manifestPathFlag, manifest.DefaultPath, "manifest written by precompile")
	cmd.Flags().BoolVar(&keep, "keep-manifest", false, "leave the manifest file in place")
	return cmd
}
