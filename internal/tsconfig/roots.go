// SPDX-License-Identifier: MPL-2.0

package tsconfig

import "path/filepath"

// PathRoots returns the directories alias patterns are resolved against,
// highest priority first:
//
//  1. the source tree, where hand-written declarations live
//  2. outDir, where the compiler emitted fresh declarations
//
// The offset from the configuration directory to baseUrl is computed once and
// applied to both roots, so a pattern resolves to the same relative location in
// each tree.
func PathRoots(cfg *Config, outDir string) []string {
	base := cfg.BaseURL
	if base == "" {
		base = cfg.Dir
	}

	rel, err := filepath.Rel(cfg.Dir, base)
	if err != nil {
		// Only possible when one side is relative; Load always yields absolute paths.
		rel = "."
	}

	sourceRoot := cfg.RootDir
	if sourceRoot == "" {
		sourceRoot = cfg.Dir
	}

	return []string{
		resolve(sourceRoot, rel),
		resolve(outDir, rel),
	}
}

func resolve(root, rel string) string {
	if abs, err := filepath.Abs(filepath.Join(root, rel)); err == nil {
		return abs
	}
	return filepath.Join(root, rel)
}
