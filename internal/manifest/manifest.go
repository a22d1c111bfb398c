// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"golang.org/x/exp/slices"
)

// DefaultPath is where the manifest is written unless overridden.
const DefaultPath = "dist/.ts-precompile-manifest"

// ErrMissingEntry is the sentinel wrapped by MissingEntryError.
var ErrMissingEntry = errors.New("manifest entry does not exist")

type (
	// Record is the append-only log of destination paths in the order the
	// files were written. Overwrites are appended again as their own events.
	// The zero value is ready to use.
	Record struct {
		paths []string
	}

	// MissingEntryError is returned by Write when a recorded path is no longer
	// on disk at write time.
	MissingEntryError struct {
		Path string
	}
)

// Error implements the error interface for MissingEntryError.
func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("manifest entry does not exist: %s", e.Path)
}

// Unwrap returns ErrMissingEntry for errors.Is() compatibility.
func (e *MissingEntryError) Unwrap() error { return ErrMissingEntry }

// Append records one successful write of path.
func (r *Record) Append(path string) {
	r.paths = append(r.paths, path)
}

// Len returns the number of recorded events.
func (r *Record) Len() int {
	return len(r.paths)
}

// Paths returns a copy of the raw event log in creation order.
func (r *Record) Paths() []string {
	return slices.Clone(r.paths)
}

// Entries returns the manifest order: each path once, last created first.
// A path written several times sits at the reverse position of its first
// write, so removal in this order never visits a path before everything
// created after it.
func (r *Record) Entries() []string {
	seen := make(map[string]bool, len(r.paths))
	out := make([]string, 0, len(r.paths))
	for _, p := range r.paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

// Write persists the reversed record as a JSON array at path, replacing any
// previous manifest. Every entry must exist when the manifest is written.
func Write(path string, r *Record) error {
	entries := r.Entries()
	for _, e := range entries {
		if _, err := os.Stat(e); err != nil {
			return writeFailed(path, &MissingEntryError{Path: e})
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return writeFailed(path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return writeFailed(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return writeFailed(path, err)
	}
	return nil
}

// Read loads the entries of the manifest at path, in manifest order.
func Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readFailed(path, err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, readFailed(path, err)
	}
	return entries, nil
}

func writeFailed(path string, err error) error {
	return issue.NewErrorContext().
		WithIssue(issue.ManifestWriteFailedId).
		WithOperation("write manifest").
		WithResource(path).
		Wrap(err).
		BuildError()
}

func readFailed(path string, err error) error {
	return issue.NewErrorContext().
		WithIssue(issue.ManifestReadFailedId).
		WithOperation("read manifest").
		WithResource(path).
		WithSuggestion("Run 'ts-precompile precompile' to create it").
		Wrap(err).
		BuildError()
}
