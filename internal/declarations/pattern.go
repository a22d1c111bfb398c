// SPDX-License-Identifier: MPL-2.0

package declarations

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMultipleWildcards is returned for alias keys or targets with more than one '*'.
var ErrMultipleWildcards = errors.New("pattern may contain at most one '*'")

// declExt is the extension of every file the reconciler copies.
const declExt = ".d.ts"

// sourceExts are stripped from alias targets before matching; "app/*.ts" and
// "app/*" address the same declarations.
var sourceExts = []string{".d.ts", ".d.mts", ".d.cts", ".tsx", ".ts", ".jsx", ".js"}

// pattern is an alias key or target split around its optional wildcard.
// The wildcard captures one or more path components.
type pattern struct {
	prefix   string
	suffix   string
	wildcard bool
}

func parsePattern(s string) (pattern, error) {
	switch strings.Count(s, "*") {
	case 0:
		return pattern{prefix: s}, nil
	case 1:
		i := strings.IndexByte(s, '*')
		return pattern{prefix: s[:i], suffix: s[i+1:], wildcard: true}, nil
	default:
		return pattern{}, fmt.Errorf("%w: %q", ErrMultipleWildcards, s)
	}
}

// parseTarget parses an alias target, dropping a leading "./" and any
// source or declaration extension.
func parseTarget(s string) (pattern, error) {
	s = strings.TrimPrefix(s, "./")
	p, err := parsePattern(s)
	if err != nil {
		return pattern{}, err
	}
	if p.wildcard {
		p.suffix = trimSourceExt(p.suffix)
	} else {
		p.prefix = strings.TrimSuffix(trimSourceExt(p.prefix), "/")
	}
	return p, nil
}

// match reports whether s satisfies the pattern and returns the text the
// wildcard captured. Exact patterns capture nothing.
func (p pattern) match(s string) (string, bool) {
	if !p.wildcard {
		return "", s == p.prefix
	}
	if len(s) <= len(p.prefix)+len(p.suffix) {
		return "", false
	}
	if !strings.HasPrefix(s, p.prefix) || !strings.HasSuffix(s, p.suffix) {
		return "", false
	}
	return s[len(p.prefix) : len(s)-len(p.suffix)], true
}

// substitute expands the pattern with capture in place of the wildcard.
func (p pattern) substitute(capture string) string {
	if !p.wildcard {
		return p.prefix
	}
	return p.prefix + capture + p.suffix
}

// literalDir is the directory part of the text before the wildcard: the
// deepest directory every match must live under.
func (p pattern) literalDir() string {
	if i := strings.LastIndexByte(p.prefix, '/'); i >= 0 {
		return p.prefix[:i]
	}
	return ""
}

func (p pattern) String() string {
	if !p.wildcard {
		return p.prefix
	}
	return p.prefix + "*" + p.suffix
}

func trimSourceExt(s string) string {
	for _, ext := range sourceExts {
		if strings.HasSuffix(s, ext) {
			return strings.TrimSuffix(s, ext)
		}
	}
	return s
}

// destinationPattern maps an alias key onto the package's public tree. The
// key's namespace is replaced by the package: "<pkg>/x/*" keeps "x/*", any
// other "ns/x/*" keeps "x/*", and the catch-all "*" is used as is. Bare
// module keys ("lodash", "vendor*") shim third-party modules and are not
// published; ok is false for them.
func destinationPattern(key pattern, packageName string) (pattern, bool) {
	literal := key.prefix
	if !key.wildcard && literal == packageName {
		return pattern{prefix: ""}, true
	}

	var rest string
	switch {
	case strings.HasPrefix(literal, packageName+"/"):
		rest = strings.TrimPrefix(literal, packageName+"/")
	case strings.Contains(literal, "/"):
		rest = literal[strings.IndexByte(literal, '/')+1:]
	case key.wildcard && literal == "":
		rest = ""
	default:
		return pattern{}, false
	}
	return pattern{prefix: rest, suffix: key.suffix, wildcard: key.wildcard}, true
}
