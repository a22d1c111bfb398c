// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/ts-precompile/ts-precompile/internal/compiler"
	"github.com/ts-precompile/ts-precompile/internal/config"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type (
	// ConfigProvider loads tool configuration.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App reference.
	App struct {
		Config ConfigProvider
		// Compiler overrides the compiler built from configuration.
		Compiler compiler.Compiler
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Compiler compiler.Compiler
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// rootFlags holds the global flag values.
	rootFlags struct {
		verbose    bool
		projectDir string
		configFile string
	}

	// settings is the effective configuration of one command invocation:
	// defaults, file, environment and flags merged in that order.
	settings struct {
		cfg         *config.Config
		projectRoot string
		workDir     string
		verbose     bool
		logger      *log.Logger
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:   deps.Config,
		Compiler: deps.Compiler,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// resolveSettings loads configuration for the project selected by the
// global flags and applies flag overrides.
func (a *App) resolveSettings(cmd *cobra.Command, flags *rootFlags) (*settings, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	projectRoot := flags.projectDir
	if projectRoot == "" {
		projectRoot = workDir
	}
	if projectRoot, err = filepath.Abs(projectRoot); err != nil {
		return nil, err
	}

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: flags.configFile,
		ProjectDir:     projectRoot,
	})
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	return &settings{
		cfg:         cfg,
		projectRoot: projectRoot,
		workDir:     workDir,
		verbose:     verbose,
		logger:      newLogger(a.stderr, verbose),
	}, nil
}

// compilerFor returns the injected compiler or one built from configuration.
func (a *App) compilerFor(s *settings) compiler.Compiler {
	if a.Compiler != nil {
		return a.Compiler
	}
	return &compiler.ExecCompiler{
		Command:    s.cfg.Compiler.Command,
		MinVersion: s.cfg.Compiler.MinVersion,
		Logger:     s.logger,
	}
}

// addonRoot anchors a relative addon.root at the project root.
func (s *settings) addonRoot() string {
	root := s.cfg.Addon.Root
	if root == "" || filepath.IsAbs(root) {
		return root
	}
	return filepath.Join(s.projectRoot, filepath.FromSlash(root))
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "ts-precompile",
		Level:  level,
	})
}
