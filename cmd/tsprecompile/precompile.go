// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ts-precompile/ts-precompile/internal/manifest"
	"github.com/ts-precompile/ts-precompile/internal/precompile"

	"github.com/spf13/cobra"
)

const manifestPathFlag = "manifest-path"

func newPrecompileCommand(app *App, flags *rootFlags) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "precompile",
		Short: "Generate declaration files in preparation for publishing",
		Long: `Generate declaration files in preparation for publishing.

Runs tsc with --emitDeclarationOnly into a temporary directory, then copies
each declaration matched by a compilerOptions.paths alias to
<project>/<package-name>/<alias path>.d.ts. Hand-written declarations in the
source tree take precedence over generated ones. Every created file is
listed, last created first, in the manifest so 'ts-precompile clean' can
remove them again.

Without any paths in tsconfig.json the command does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.resolveSettings(cmd, flags)
			if err != nil {
				return app.fail(cmd, err, flags.verbose)
			}
			if cmd.Flags().Changed(manifestPathFlag) {
				s.cfg.ManifestPath = manifestPath
			}

			runner := &precompile.Runner{
				Compiler: app.compilerFor(s),
				Logger:   s.logger,
				Stdout:   app.stdout,
			}
			res, err := runner.Run(cmd.Context(), precompile.Options{
				ProjectRoot:  s.projectRoot,
				WorkDir:      s.workDir,
				ManifestPath: s.cfg.ManifestPath,
				AddonName:    s.cfg.Addon.Name,
				AddonRoot:    s.addonRoot(),
			})
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}

			renderPrecompileResult(app, s, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, manifestPathFlag, manifest.DefaultPath, "where to write the list of created files")
	return cmd
}

func renderPrecompileResult(app *App, s *settings, res precompile.Result) {
	if res.Status != precompile.StatusCompleted {
		return
	}

	fmt.Fprintf(app.stdout, "%s Published %d declaration file(s) as %s\n",
		SuccessStyle.Render("✓"), len(res.Files), CmdStyle.Render(res.PackageName))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("manifest:"), relTo(s.projectRoot, res.Manifest))

	if !s.verbose {
		return
	}
	for _, c := range res.Copies {
		fmt.Fprintf(app.stdout, "  %s %s %s %s\n",
			VerboseStyle.Render(c.Alias),
			relTo(s.projectRoot, c.Source),
			VerboseStyle.Render("→"),
			relTo(s.projectRoot, c.Dest))
	}
}

func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
