// SPDX-License-Identifier: MPL-2.0

package precompile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ts-precompile/ts-precompile/internal/compiler"
	"github.com/ts-precompile/ts-precompile/internal/declarations"
	"github.com/ts-precompile/ts-precompile/internal/issue"
	"github.com/ts-precompile/ts-precompile/internal/manifest"
	"github.com/ts-precompile/ts-precompile/internal/project"
	"github.com/ts-precompile/ts-precompile/internal/tsconfig"

	"github.com/charmbracelet/log"
)

// NoAliasesMessage is printed when tsconfig.json declares no path aliases.
const NoAliasesMessage = "No `paths` were found in your `tsconfig.json`, so `precompile` is a no-op."

const (
	// StatusCompleted means declarations were compiled, published and recorded.
	StatusCompleted Status = iota
	// StatusNoAliases means the configuration has no paths; nothing was written.
	StatusNoAliases
)

type (
	// Status is the outcome of a successful Run.
	Status int

	// Options is the explicit context of one run.
	Options struct {
		// ProjectRoot is where tsconfig.json lookup starts and declarations
		// are published.
		ProjectRoot string
		// WorkDir holds the per-process compiler output directory. Defaults
		// to ProjectRoot.
		WorkDir string
		// ManifestPath is resolved against ProjectRoot when relative.
		// Defaults to manifest.DefaultPath.
		ManifestPath string
		// PackageName overrides the name read from package.json.
		PackageName string
		// AddonName is the runtime name of an addon rooted at AddonRoot.
		// When empty it is read from the addon's main module.
		AddonName string
		// AddonRoot defaults to ProjectRoot.
		AddonRoot string
	}

	// Result reports what a run did.
	Result struct {
		Status Status
		// Config is the resolved TypeScript configuration.
		Config *tsconfig.Config
		// PackageName is the module name declarations were published under.
		PackageName string
		// Manifest is the absolute path of the written manifest.
		Manifest string
		// Files are the manifest entries, last created first.
		Files []string
		// Copies lists every copy in the order it happened.
		Copies []declarations.Copy
	}

	// Runner executes the precompile pipeline.
	Runner struct {
		Compiler compiler.Compiler
		Logger   *log.Logger
		// Stdout receives user-facing progress messages.
		Stdout io.Writer
	}
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusNoAliases:
		return "no-aliases"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// TempDir returns the per-process compiler output directory under workDir.
func TempDir(workDir string) string {
	return filepath.Join(workDir, declarations.TempDirPrefix+strconv.Itoa(os.Getpid()))
}

// Run executes the pipeline. The temporary output directory never outlives
// the call, whatever the outcome. When publishing fails partway, the
// declarations already copied are removed again and no manifest is written.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	opts = opts.withDefaults()
	logger := r.logger()

	cfg, err := tsconfig.Resolve(opts.ProjectRoot)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("resolved tsconfig", "path", cfg.Path, "aliases", len(cfg.Paths))

	if !cfg.HasAliases() {
		r.println(NoAliasesMessage)
		return Result{Status: StatusNoAliases, Config: cfg}, nil
	}

	packageName, err := resolvePackageName(opts)
	if err != nil {
		return Result{}, err
	}

	outDir := TempDir(opts.WorkDir)
	if err := os.RemoveAll(outDir); err != nil {
		return Result{}, issue.WrapWithContext(err, "clear compiler output directory", outDir)
	}
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			logger.Warn("failed to remove compiler output directory", "dir", outDir, "err", err)
		}
	}()

	roots := tsconfig.PathRoots(cfg, outDir)
	logger.Debug("declaration search roots", "source", roots[0], "generated", roots[1])

	err = r.compiler().Compile(ctx, compiler.Options{
		ProjectRoot: opts.ProjectRoot,
		RootDir:     cfg.RootDir,
		OutDir:      outDir,
	})
	if err != nil {
		return Result{}, err
	}

	res, err := declarations.Reconcile(ctx, declarations.Request{
		Aliases:     cfg.Paths,
		Roots:       roots,
		PackageName: packageName,
		ProjectRoot: opts.ProjectRoot,
		Logger:      logger,
	})
	if err != nil {
		if res != nil {
			r.rollback(res.Record, opts.ProjectRoot)
		}
		return Result{}, err
	}

	if err := manifest.Write(opts.ManifestPath, res.Record); err != nil {
		r.rollback(res.Record, opts.ProjectRoot)
		return Result{}, err
	}
	logger.Info("declarations published", "package", packageName, "files", len(res.Record.Entries()), "manifest", opts.ManifestPath)

	return Result{
		Status:      StatusCompleted,
		Config:      cfg,
		PackageName: packageName,
		Manifest:    opts.ManifestPath,
		Files:       res.Record.Entries(),
		Copies:      res.Copies,
	}, nil
}

func (o Options) withDefaults() Options {
	if abs, err := filepath.Abs(o.ProjectRoot); err == nil {
		o.ProjectRoot = abs
	}
	if o.WorkDir == "" {
		o.WorkDir = o.ProjectRoot
	}
	if o.ManifestPath == "" {
		o.ManifestPath = manifest.DefaultPath
	}
	o.ManifestPath = ResolveManifestPath(o.ProjectRoot, o.ManifestPath)
	if o.AddonRoot == "" {
		o.AddonRoot = o.ProjectRoot
	}
	return o
}

// ResolveManifestPath anchors a relative manifest path at projectRoot.
func ResolveManifestPath(projectRoot, path string) string {
	if path == "" {
		path = manifest.DefaultPath
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(projectRoot, filepath.FromSlash(path))
}

func resolvePackageName(opts Options) (string, error) {
	if opts.PackageName != "" {
		return opts.PackageName, nil
	}

	pkg, err := project.LoadPackage(opts.ProjectRoot)
	if err != nil {
		return "", err
	}

	if opts.AddonName != "" {
		return project.EffectiveName(pkg, &project.Addon{Name: opts.AddonName, Root: opts.AddonRoot}), nil
	}
	if addon, ok := project.DetectAddon(pkg); ok {
		return project.EffectiveName(pkg, &addon), nil
	}
	return pkg.Name, nil
}

// rollback removes the declarations of a failed run, last created first.
func (r *Runner) rollback(record *manifest.Record, projectRoot string) {
	if record == nil || record.Len() == 0 {
		return
	}
	logger := r.logger()
	res, err := manifest.RemoveEntries(record.Entries(), manifest.RemoveOptions{
		StopAt: projectRoot,
		Logger: logger,
	})
	if err != nil {
		logger.Warn("failed to roll back published declarations", "err", err)
		return
	}
	logger.Debug("rolled back published declarations", "files", len(res.Removed))
}

func (r *Runner) println(msg string) {
	if r.Stdout == nil {
		return
	}
	fmt.Fprintln(r.Stdout, msg)
}

func (r *Runner) compiler() compiler.Compiler {
	if r.Compiler != nil {
		return r.Compiler
	}
	return &compiler.ExecCompiler{MinVersion: compiler.DefaultMinVersion, Logger: r.logger()}
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
