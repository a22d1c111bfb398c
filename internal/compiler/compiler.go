// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
)

const (
	// DefaultCommand is the compiler invoked when none is configured.
	DefaultCommand = "tsc"

	// DefaultMinVersion is the first tsc release with --emitDeclarationOnly.
	DefaultMinVersion = "2.8.0"
)

var (
	// ErrCompilationFailed is the sentinel wrapped by CompilationFailedError.
	ErrCompilationFailed = errors.New("declaration compilation failed")

	// ErrCompilerNotFound is returned when no compiler binary can be located.
	ErrCompilerNotFound = errors.New("typescript compiler not found")

	// ErrUnsupportedVersion is the sentinel wrapped by UnsupportedVersionError.
	ErrUnsupportedVersion = errors.New("typescript compiler is too old")

	versionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
)

type (
	// Options controls one compiler invocation.
	Options struct {
		// ProjectRoot is the working directory of the compiler.
		ProjectRoot string
		// RootDir is passed as --rootDir; ProjectRoot is used when empty.
		RootDir string
		// OutDir receives the emitted declarations (--declarationDir).
		OutDir string
	}

	// Compiler emits declaration files for a project.
	Compiler interface {
		Compile(ctx context.Context, opts Options) error
	}

	// ExecCompiler runs an external tsc process.
	ExecCompiler struct {
		// Command is the compiler command line, split with shell quoting
		// rules. Extra words are passed before the generated arguments.
		// DefaultCommand is used when empty.
		Command string
		// MinVersion is the lowest accepted compiler version. The check is
		// skipped when empty.
		MinVersion string
		Logger     *log.Logger
	}

	// CompilationFailedError carries the exit status and the combined
	// stdout/stderr stream of a failed compiler run.
	CompilationFailedError struct {
		ExitCode int
		Output   string
	}

	// UnsupportedVersionError is returned when the compiler is older than
	// the configured minimum.
	UnsupportedVersionError struct {
		Binary  string
		Version string
		Minimum string
	}
)

// Error implements the error interface for CompilationFailedError. The
// message includes the compiler's complete output.
func (e *CompilationFailedError) Error() string {
	return fmt.Sprintf("declaration compilation failed (exit code %d):\n%s", e.ExitCode, e.Output)
}

// Unwrap returns ErrCompilationFailed for errors.Is() compatibility.
func (e *CompilationFailedError) Unwrap() error { return ErrCompilationFailed }

// Error implements the error interface for UnsupportedVersionError.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s reports version %s, need %s or newer", e.Binary, e.Version, e.Minimum)
}

// Unwrap returns ErrUnsupportedVersion for errors.Is() compatibility.
func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// Args returns the compiler flags for a declaration-only build.
func Args(opts Options) []string {
	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = opts.ProjectRoot
	}
	return []string{
		"--allowJs", "false",
		"--noEmit", "false",
		"--rootDir", rootDir,
		"--isolatedModules", "false",
		"--declaration",
		"--declarationDir", opts.OutDir,
		"--emitDeclarationOnly",
		"--pretty", "true",
	}
}

// Compile runs the compiler once. A non-zero exit is reported as a
// *CompilationFailedError wrapped in an actionable error.
func (c *ExecCompiler) Compile(ctx context.Context, opts Options) error {
	argv, err := c.Resolve(opts.ProjectRoot)
	if err != nil {
		return err
	}

	if err := c.checkVersion(ctx, argv, opts.ProjectRoot); err != nil {
		return err
	}

	args := append(argv[1:len(argv):len(argv)], Args(opts)...)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = opts.ProjectRoot

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	c.logger().Debug("running compiler", "bin", argv[0], "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return issue.NewErrorContext().
				WithIssue(issue.CompilationFailedId).
				WithOperation("compile declarations").
				WithResource(opts.ProjectRoot).
				WithSuggestion("Fix the compiler errors above and run again").
				Wrap(&CompilationFailedError{ExitCode: exitErr.ExitCode(), Output: output.String()}).
				BuildError()
		}
		return issue.NewErrorContext().
			WithIssue(issue.CompilerNotFoundId).
			WithOperation("run compiler").
			WithResource(argv[0]).
			Wrap(err).
			BuildError()
	}
	return nil
}

func (c *ExecCompiler) checkVersion(ctx context.Context, argv []string, dir string) error {
	if c.MinVersion == "" {
		return nil
	}

	args := append(argv[1:len(argv):len(argv)], "--version")
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger().Debug("compiler version probe failed", "bin", argv[0], "err", err)
		return nil
	}

	m := versionPattern.FindStringSubmatch(string(out))
	if m == nil {
		c.logger().Debug("unrecognized compiler version output", "output", strings.TrimSpace(string(out)))
		return nil
	}

	got, minimum := "v"+m[1], "v"+strings.TrimPrefix(c.MinVersion, "v")
	if !semver.IsValid(minimum) {
		c.logger().Warn("ignoring invalid minimum compiler version", "min_version", c.MinVersion)
		return nil
	}
	if semver.Compare(got, minimum) < 0 {
		return issue.NewErrorContext().
			WithIssue(issue.CompilerNotFoundId).
			WithOperation("check compiler version").
			WithResource(argv[0]).
			WithSuggestion("Upgrade the typescript dev dependency to " + c.MinVersion + " or newer").
			Wrap(&UnsupportedVersionError{Binary: argv[0], Version: m[1], Minimum: c.MinVersion}).
			BuildError()
	}
	c.logger().Debug("compiler version", "version", m[1])
	return nil
}

func (c *ExecCompiler) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
