// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/compiler"
	"github.com/ts-precompile/ts-precompile/internal/manifest"

	"golang.org/x/mod/semver"
)

var (
	// ErrInvalidManifestPath is returned for a blank manifest_path.
	ErrInvalidManifestPath = errors.New("invalid manifest path")
	// ErrInvalidCompilerCommand is returned for a blank compiler.command.
	ErrInvalidCompilerCommand = errors.New("invalid compiler command")
	// ErrInvalidMinVersion is returned when compiler.min_version is not x.y.z.
	ErrInvalidMinVersion = errors.New("invalid minimum compiler version")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Config holds the tool configuration.
	Config struct {
		// ManifestPath is where the manifest is written.
		ManifestPath string `json:"manifest_path" mapstructure:"manifest_path"`
		// Compiler configures the TypeScript compiler invocation.
		Compiler CompilerConfig `json:"compiler" mapstructure:"compiler"`
		// Addon overrides the published module name for renamed addons.
		Addon AddonConfig `json:"addon" mapstructure:"addon"`
		// UI contains output settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty when
		// only defaults and environment applied.
		Source string `json:"-" mapstructure:"-"`
	}

	// CompilerConfig configures the compiler.
	CompilerConfig struct {
		Command    string `json:"command" mapstructure:"command"`
		MinVersion string `json:"min_version" mapstructure:"min_version"`
	}

	// AddonConfig names the addon rooted in the project.
	AddonConfig struct {
		Name string `json:"name" mapstructure:"name"`
		Root string `json:"root" mapstructure:"root"`
	}

	// UIConfig contains output settings.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// IsValid returns whether the Config has valid fields.
// It returns an *InvalidConfigError wrapping every field error.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.ManifestPath) == "" {
		errs = append(errs, fmt.Errorf("%w: manifest_path must not be empty", ErrInvalidManifestPath))
	}
	if strings.TrimSpace(c.Compiler.Command) == "" {
		errs = append(errs, fmt.Errorf("%w: compiler.command must not be empty", ErrInvalidCompilerCommand))
	}
	if v := c.Compiler.MinVersion; v != "" && !semver.IsValid("v"+strings.TrimPrefix(v, "v")) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidMinVersion, v))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors, so errors.Is()
// matches both the sentinel and each field's own sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ManifestPath: manifest.DefaultPath,
		Compiler: CompilerConfig{
			Command:    compiler.DefaultCommand,
			MinVersion: compiler.DefaultMinVersion,
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}
