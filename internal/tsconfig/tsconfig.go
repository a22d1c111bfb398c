// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"github.com/tailscale/hujson"
)

// FileName is the configuration file searched for by Find.
const FileName = "tsconfig.json"

var (
	// ErrConfigNotFound is returned when no tsconfig.json exists in the start
	// directory or any of its ancestors.
	ErrConfigNotFound = errors.New("unable to locate tsconfig.json")
	// ErrCircularExtends is returned when an extends chain loops back on itself.
	ErrCircularExtends = errors.New("circular extends")
	// ErrExtendsNotFound is the sentinel wrapped by ExtendsNotFoundError.
	ErrExtendsNotFound = errors.New("extended configuration not found")
)

type (
	// AliasMap maps an import-path pattern to the relative file patterns it may
	// resolve to. Pattern order per key is significant; key order is not.
	AliasMap map[string][]string

	// Config is the subset of a fully resolved tsconfig.json (extends applied)
	// that declaration reconciliation needs. All directories are absolute.
	Config struct {
		// Path is the tsconfig.json that was found.
		Path string
		// Dir is the directory containing Path.
		Dir string
		// Paths is compilerOptions.paths.
		Paths AliasMap
		// RootDir is compilerOptions.rootDir, empty when unset.
		RootDir string
		// BaseURL is the directory alias patterns are relative to. It is
		// compilerOptions.baseUrl when set anywhere in the chain, otherwise Dir.
		BaseURL string
		// ExplicitBaseURL reports whether baseUrl was present in the chain.
		ExplicitBaseURL bool
	}

	// ExtendsNotFoundError is returned when an extends entry cannot be resolved.
	// It wraps ErrExtendsNotFound for errors.Is() compatibility.
	ExtendsNotFoundError struct {
		From    string
		Extends string
	}

	rawConfig struct {
		Extends         json.RawMessage `json:"extends"`
		CompilerOptions rawOptions      `json:"compilerOptions"`
	}

	rawOptions struct {
		Paths   map[string][]string `json:"paths"`
		BaseURL *string             `json:"baseUrl"`
		RootDir *string             `json:"rootDir"`
	}

	// resolved holds options after extends merging, with relative values
	// already anchored at the file that declared them.
	resolved struct {
		paths   AliasMap
		baseURL string
		rootDir string
	}
)

// Error implements the error interface for ExtendsNotFoundError.
func (e *ExtendsNotFoundError) Error() string {
	return fmt.Sprintf("%s: cannot resolve extends %q", e.From, e.Extends)
}

// Unwrap returns ErrExtendsNotFound for errors.Is() compatibility.
func (e *ExtendsNotFoundError) Unwrap() error { return ErrExtendsNotFound }

// HasAliases reports whether at least one alias is configured.
func (c *Config) HasAliases() bool {
	return c != nil && len(c.Paths) > 0
}

// Resolve locates and loads the configuration governing projectRoot. Errors are
// returned as actionable errors linked to the issue catalog.
func Resolve(projectRoot string) (*Config, error) {
	path, err := Find(projectRoot)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.ConfigNotFoundId).
			WithOperation("locate " + FileName).
			WithResource(projectRoot).
			WithSuggestion("Run the command from inside a TypeScript project").
			WithSuggestion("Use --project to point at the project root").
			Wrap(err).
			BuildError()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithIssue(issue.ConfigParseFailedId).
			WithOperation("load TypeScript configuration").
			WithResource(path).
			WithSuggestion("Check the file and every configuration it extends for syntax errors").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// Find walks from start towards the filesystem root and returns the first
// tsconfig.json it sees.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if fileExists(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

// Load parses the configuration at path and every configuration it extends.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	r, err := loadChain(abs, map[string]bool{})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Path:    abs,
		Dir:     filepath.Dir(abs),
		Paths:   r.paths,
		RootDir: r.rootDir,
		BaseURL: r.baseURL,
	}
	cfg.ExplicitBaseURL = r.baseURL != ""
	if !cfg.ExplicitBaseURL {
		cfg.BaseURL = cfg.Dir
	}
	return cfg, nil
}

func loadChain(path string, visiting map[string]bool) (resolved, error) {
	if visiting[path] {
		return resolved{}, fmt.Errorf("%w: %s", ErrCircularExtends, path)
	}
	visiting[path] = true
	defer delete(visiting, path)

	raw, err := readRaw(path)
	if err != nil {
		return resolved{}, err
	}

	dir := filepath.Dir(path)

	var out resolved
	parents, err := extendsList(raw.Extends)
	if err != nil {
		return resolved{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, ext := range parents {
		parentPath, err := resolveExtends(dir, ext)
		if err != nil {
			return resolved{}, &ExtendsNotFoundError{From: path, Extends: ext}
		}
		parent, err := loadChain(parentPath, visiting)
		if err != nil {
			return resolved{}, err
		}
		out = out.merge(parent)
	}

	opts := raw.CompilerOptions
	own := resolved{}
	if opts.Paths != nil {
		own.paths = AliasMap(opts.Paths)
	}
	if opts.BaseURL != nil {
		own.baseURL = anchor(dir, *opts.BaseURL)
	}
	if opts.RootDir != nil {
		own.rootDir = anchor(dir, *opts.RootDir)
	}
	return out.merge(own), nil
}

// merge overlays every option set in next onto r.
func (r resolved) merge(next resolved) resolved {
	if next.paths != nil {
		r.paths = next.paths
	}
	if next.baseURL != "" {
		r.baseURL = next.baseURL
	}
	if next.rootDir != "" {
		r.rootDir = next.rootDir
	}
	return r
}

func readRaw(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// tsconfig files are JSON with comments and trailing commas.
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &raw, nil
}

// extendsList accepts both the string and array forms of extends.
func extendsList(msg json.RawMessage) ([]string, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(msg, &single); err == nil {
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(msg, &many); err != nil {
		return nil, fmt.Errorf("extends must be a string or an array of strings: %w", err)
	}
	return many, nil
}

// resolveExtends maps an extends entry to a file. Relative and absolute entries
// are files (with .json inferred); anything else is a package specifier looked
// up in node_modules directories from dir upwards.
func resolveExtends(dir, ext string) (string, error) {
	if filepath.IsAbs(ext) || strings.HasPrefix(ext, "./") || strings.HasPrefix(ext, "../") ||
		ext == "." || ext == ".." {
		return existingConfigFile(anchor(dir, ext))
	}

	for cur := dir; ; {
		candidate := filepath.Join(cur, "node_modules", filepath.FromSlash(ext))
		if found, err := existingConfigFile(candidate); err == nil {
			return found, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", os.ErrNotExist
		}
		cur = parent
	}
}

func existingConfigFile(candidate string) (string, error) {
	if fileExists(candidate) {
		return candidate, nil
	}
	if !strings.HasSuffix(candidate, ".json") && fileExists(candidate+".json") {
		return candidate + ".json", nil
	}
	if dirExists(candidate) {
		if inner := filepath.Join(candidate, FileName); fileExists(inner) {
			return inner, nil
		}
	}
	return "", os.ErrNotExist
}

func anchor(dir, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
