// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"github.com/charmbracelet/log"
)

type (
	// RemoveOptions controls manifest-driven teardown.
	RemoveOptions struct {
		// StopAt bounds empty-directory pruning; it and its ancestors are never removed.
		StopAt string
		// KeepManifest leaves the manifest file in place after removal.
		KeepManifest bool
		// Logger receives per-file progress; nil uses log.Default().
		Logger *log.Logger
	}

	// RemoveResult summarizes a teardown.
	RemoveResult struct {
		Removed []string
		Missing []string
		Pruned  []string
	}
)

// Remove deletes every entry of the manifest at path in manifest order (last
// created first), prunes directories the removal left empty, and finally
// deletes the manifest itself.
func Remove(path string, opts RemoveOptions) (RemoveResult, error) {
	entries, err := Read(path)
	if err != nil {
		return RemoveResult{}, err
	}

	res, err := RemoveEntries(entries, opts)
	if err != nil {
		return res, err
	}

	if !opts.KeepManifest {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, issue.WrapWithContext(err, "remove manifest", path)
		}
	}
	return res, nil
}

// RemoveEntries deletes the given files in order and prunes directories left
// empty. Files that are already gone are reported in Missing, not as errors.
// KeepManifest is ignored.
func RemoveEntries(entries []string, opts RemoveOptions) (RemoveResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var res RemoveResult
	for _, entry := range entries {
		target := filepath.Clean(filepath.FromSlash(entry))

		if err := os.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("manifest entry already gone", "path", target)
				res.Missing = append(res.Missing, target)
				continue
			}
			return res, issue.WrapWithContext(err, "remove declaration", target)
		}
		logger.Debug("removed", "path", target)
		res.Removed = append(res.Removed, target)
		res.Pruned = append(res.Pruned, pruneEmpty(filepath.Dir(target), opts.StopAt)...)
	}
	return res, nil
}

// pruneEmpty removes dir and its ancestors while they are empty, stopping at
// stopAt (exclusive). Without stopAt nothing is pruned.
func pruneEmpty(dir, stopAt string) []string {
	if stopAt == "" {
		return nil
	}
	stop := filepath.Clean(stopAt)

	var pruned []string
	for {
		dir = filepath.Clean(dir)
		rel, err := filepath.Rel(stop, dir)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return pruned
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return pruned
		}
		if err := os.Remove(dir); err != nil {
			return pruned
		}
		pruned = append(pruned, dir)
		dir = filepath.Dir(dir)
	}
}
