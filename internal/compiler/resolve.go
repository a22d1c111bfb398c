// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"mvdan.cc/sh/v3/shell"
)

// Resolve splits the configured command and locates its binary. The bare
// default command prefers node_modules/.bin/tsc in projectRoot or any of its
// ancestors before searching $PATH. A relative binary containing a path
// separator is anchored at projectRoot.
func (c *ExecCompiler) Resolve(projectRoot string) ([]string, error) {
	command := strings.TrimSpace(c.Command)
	if command == "" {
		command = DefaultCommand
	}

	argv, err := shell.Fields(command, nil)
	if err != nil {
		return nil, notFound(command, fmt.Errorf("parse compiler command: %w", err))
	}
	if len(argv) == 0 {
		return nil, notFound(command, ErrCompilerNotFound)
	}

	bin := argv[0]
	switch {
	case filepath.IsAbs(bin):
	case strings.ContainsRune(bin, '/') || strings.ContainsRune(bin, filepath.Separator):
		bin = filepath.Join(projectRoot, bin)
	default:
		if bin == DefaultCommand {
			if local, ok := findLocalBin(projectRoot, bin); ok {
				bin = local
				break
			}
		}
		found, err := exec.LookPath(bin)
		if err != nil {
			return nil, notFound(bin, ErrCompilerNotFound)
		}
		bin = found
	}

	if _, err := os.Stat(bin); err != nil {
		return nil, notFound(bin, ErrCompilerNotFound)
	}

	argv[0] = bin
	return argv, nil
}

// findLocalBin looks for node_modules/.bin/<name> from start upward.
func findLocalBin(start, name string) (string, bool) {
	names := []string{name}
	if runtime.GOOS == "windows" {
		names = []string{name + ".cmd", name + ".exe", name}
	}

	dir := start
	for {
		for _, n := range names {
			candidate := filepath.Join(dir, "node_modules", ".bin", n)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func notFound(resource string, err error) error {
	return issue.NewErrorContext().
		WithIssue(issue.CompilerNotFoundId).
		WithOperation("locate typescript compiler").
		WithResource(resource).
		WithSuggestions(
			"Install typescript as a dev dependency (npm install --save-dev typescript)",
			"Or set compiler.command in ts-precompile.cue",
		).
		Wrap(err).
		BuildError()
}
