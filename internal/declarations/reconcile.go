// SPDX-License-Identifier: MPL-2.0

package declarations

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"
	"github.com/ts-precompile/ts-precompile/internal/manifest"
	"github.com/ts-precompile/ts-precompile/internal/tsconfig"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

// TempDirPrefix names the per-process compiler output directory. Walks skip
// any directory with this prefix so leftovers of a concurrent run are never
// published.
const TempDirPrefix = "e-c-ts-precompile-"

type (
	// Request is everything Reconcile needs. Roots are ordered highest
	// priority first, as returned by tsconfig.PathRoots.
	Request struct {
		Aliases     tsconfig.AliasMap
		Roots       []string
		PackageName string
		ProjectRoot string
		Logger      *log.Logger
	}

	// Result is the outcome of Reconcile.
	Result struct {
		// Record holds every destination written, in write order.
		Record *manifest.Record
		// Copies details each write, parallel to Record.
		Copies []Copy
	}

	// Copy describes one file write performed by Reconcile.
	Copy struct {
		Alias  string
		Source string
		Dest   string
	}

	reconciler struct {
		req     Request
		logger  *log.Logger
		pkgDir  string
		record  *manifest.Record
		owners  map[string]string
		copies  []Copy
		aliases []alias
	}

	alias struct {
		key     string
		dest    pattern
		targets []pattern
	}
)

// Reconcile copies every declaration file matched by an alias target into
// <ProjectRoot>/<PackageName>/, renamed after the alias key, and returns the
// record of written destinations in write order.
//
// Roots are visited lowest priority first and later writes win, so for any
// destination the file from the highest-priority root (the hand-written
// source tree) is the one left on disk. Within one root, keys are visited in
// sorted order and targets in declared order. Targets that match nothing are
// not an error.
//
// On error the returned Result is non-nil and records the writes made before
// the failure, so the caller can undo them.
func Reconcile(ctx context.Context, req Request) (*Result, error) {
	r := &reconciler{
		req:    req,
		logger: req.Logger,
		pkgDir: filepath.Join(req.ProjectRoot, filepath.FromSlash(req.PackageName)),
		record: &manifest.Record{},
		owners: make(map[string]string),
	}
	if r.logger == nil {
		r.logger = log.Default()
	}

	if err := r.compile(); err != nil {
		return r.result(), err
	}

	roots := slices.Clone(req.Roots)
	slices.Reverse(roots)
	for _, root := range roots {
		for _, a := range r.aliases {
			if err := ctx.Err(); err != nil {
				return r.result(), err
			}
			for _, target := range a.targets {
				if err := r.copyTarget(root, a, target); err != nil {
					return r.result(), err
				}
			}
		}
	}
	return r.result(), nil
}

func (r *reconciler) result() *Result {
	return &Result{Record: r.record, Copies: r.copies}
}

// compile parses every key and target up front so a malformed alias fails
// the run before anything is written.
func (r *reconciler) compile() error {
	keys := make([]string, 0, len(r.req.Aliases))
	for k := range r.req.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kp, err := parsePattern(key)
		if err != nil {
			return fmt.Errorf("alias %q: %w", key, err)
		}
		dest, ok := destinationPattern(kp, r.req.PackageName)
		if !ok {
			r.logger.Debug("skipping module alias outside the package namespace", "alias", key)
			continue
		}

		a := alias{key: key, dest: dest}
		for _, t := range r.req.Aliases[key] {
			tp, err := parseTarget(t)
			if err != nil {
				return fmt.Errorf("alias %q: %w", key, err)
			}
			if tp.wildcard != kp.wildcard {
				r.logger.Warn("alias target wildcard does not match key, skipping", "alias", key, "target", t)
				continue
			}
			a.targets = append(a.targets, tp)
		}
		r.aliases = append(r.aliases, a)
	}
	return nil
}

func (r *reconciler) copyTarget(root string, a alias, target pattern) error {
	if !target.wildcard {
		return r.copyExact(root, a, target)
	}

	base := filepath.Join(root, filepath.FromSlash(target.literalDir()))
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return nil
	}

	var matches int
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != base && r.skipDir(root, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), declExt) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		module := strings.TrimSuffix(filepath.ToSlash(rel), declExt)
		capture, ok := target.match(module)
		if !ok {
			return nil
		}
		matches++
		return r.copyFile(a, path, a.dest.substitute(capture))
	})
	if err != nil {
		return err
	}

	if matches == 0 {
		r.logger.Debug("no declarations matched", "alias", a.key, "target", target.String(), "root", root)
	}
	return nil
}

// copyExact resolves a wildcard-free target the way module resolution does:
// <target>.d.ts first, then <target>/index.d.ts.
func (r *reconciler) copyExact(root string, a alias, target pattern) error {
	file := filepath.Join(root, filepath.FromSlash(target.prefix)+declExt)
	if fileExists(file) {
		return r.copyFile(a, file, a.dest.prefix)
	}

	index := filepath.Join(root, filepath.FromSlash(target.prefix), "index"+declExt)
	if fileExists(index) {
		return r.copyFile(a, index, joinModule(a.dest.prefix, "index"))
	}

	r.logger.Debug("no declarations matched", "alias", a.key, "target", target.String(), "root", root)
	return nil
}

func (r *reconciler) copyFile(a alias, src, module string) error {
	module = strings.Trim(module, "/")
	if module == "" {
		module = "index"
	}
	if slices.Contains(strings.Split(module, "/"), "..") {
		r.logger.Warn("alias destination escapes the package directory, skipping", "alias", a.key, "module", module)
		return nil
	}

	dest := filepath.Join(r.pkgDir, filepath.FromSlash(module)+declExt)
	if sameFile(src, dest) {
		// The alias points at the published tree itself; the file is hand-written, not ours.
		r.logger.Debug("declaration already in place", "alias", a.key, "path", dest)
		return nil
	}

	if owner, ok := r.owners[dest]; ok && owner != a.key {
		r.logger.Warn("aliases resolve to the same declaration file, last write wins",
			"dest", dest, "previous", owner, "alias", a.key)
	}

	if err := copyFile(src, dest); err != nil {
		return issue.NewErrorContext().
			WithIssue(issue.CopyFailedId).
			WithOperation("copy declaration").
			WithResource(src).
			WithSuggestion("Check that " + r.pkgDir + " is writable").
			Wrap(err).
			BuildError()
	}

	r.owners[dest] = a.key
	r.record.Append(dest)
	r.copies = append(r.copies, Copy{Alias: a.key, Source: src, Dest: dest})
	r.logger.Debug("copied declaration", "alias", a.key, "src", src, "dest", dest)
	return nil
}

// skipDir prunes directories that must never be published from a walk:
// dependencies, hidden directories, compiler output of any run, the package
// output itself, and other search roots nested inside this one.
func (r *reconciler) skipDir(root, path, name string) bool {
	if name == "node_modules" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, TempDirPrefix) {
		return true
	}
	if path == r.pkgDir {
		return true
	}
	for _, other := range r.req.Roots {
		if other != root && path == other {
			return true
		}
	}
	return false
}

func joinModule(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
