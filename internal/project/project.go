// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"golang.org/x/exp/slices"
)

const (
	// PackageFile is the npm package manifest.
	PackageFile = "package.json"

	// AddonKeyword marks a package as an ember-cli addon.
	AddonKeyword = "ember-addon"

	defaultAddonMain = "index.js"
)

var (
	// ErrNoPackageName is returned when package.json has no "name".
	ErrNoPackageName = errors.New("package.json has no name")

	// addonNamePattern finds a string-literal name property in an addon's
	// main module, e.g. `name: 'my-addon',`.
	addonNamePattern = regexp.MustCompile(`(?m)^\s*name\s*:\s*['"]([^'"]+)['"]`)
)

type (
	// Package is the subset of package.json the precompile pipeline uses.
	Package struct {
		// Root is the directory holding package.json.
		Root       string      `json:"-"`
		Name       string      `json:"name"`
		Keywords   []string    `json:"keywords,omitempty"`
		EmberAddon *EmberAddon `json:"ember-addon,omitempty"`
	}

	// EmberAddon is the "ember-addon" block of package.json.
	EmberAddon struct {
		Main string `json:"main,omitempty"`
	}

	// Addon identifies an addon by the name it registers at runtime.
	Addon struct {
		Name string
		Root string
	}
)

// LoadPackage reads root/package.json.
func LoadPackage(root string) (*Package, error) {
	path := filepath.Join(root, PackageFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, metadataError(path, err)
	}

	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, metadataError(path, err)
	}
	if pkg.Name == "" {
		return nil, metadataError(path, ErrNoPackageName)
	}
	pkg.Root = root
	return &pkg, nil
}

// IsAddon reports whether the package declares itself an ember-cli addon.
func (p *Package) IsAddon() bool {
	return slices.Contains(p.Keywords, AddonKeyword) || p.EmberAddon != nil
}

// MainPath is the addon's main module, index.js unless ember-addon.main
// names another file.
func (p *Package) MainPath() string {
	main := defaultAddonMain
	if p.EmberAddon != nil && p.EmberAddon.Main != "" {
		main = p.EmberAddon.Main
	}
	if filepath.Ext(main) == "" {
		main += ".js"
	}
	return filepath.Join(p.Root, filepath.FromSlash(main))
}

// DetectAddon reads the addon name from the package's main module. ok is
// false when the package is not an addon or the name cannot be found
// statically.
func DetectAddon(p *Package) (Addon, bool) {
	if !p.IsAddon() {
		return Addon{}, false
	}
	data, err := os.ReadFile(p.MainPath())
	if err != nil {
		return Addon{}, false
	}
	m := addonNamePattern.FindSubmatch(data)
	if m == nil {
		return Addon{}, false
	}
	return Addon{Name: string(m[1]), Root: p.Root}, true
}

// EffectiveName is the module name declarations are published under: the
// addon's name when an addon rooted at the package root registers a name
// different from the package name, otherwise the package name.
func EffectiveName(p *Package, addon *Addon) string {
	if addon == nil || addon.Name == "" || addon.Name == p.Name {
		return p.Name
	}
	if !sameDir(addon.Root, p.Root) {
		return p.Name
	}
	return addon.Name
}

func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
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

func metadataError(path string, err error) error {
	return issue.NewErrorContext().
		WithIssue(issue.PackageMetadataId).
		WithOperation("read package metadata").
		WithResource(path).
		WithSuggestion(fmt.Sprintf("Make sure %s exists and has a \"name\" field", PackageFile)).
		Wrap(err).
		BuildError()
}
