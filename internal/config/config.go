// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ts-precompile/ts-precompile/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "ts-precompile"
	// ConfigFileName is the name of the project config file (without extension).
	ConfigFileName = AppName
	// EnvPrefix prefixes every environment override, e.g. TS_PRECOMPILE_MANIFEST_PATH.
	EnvPrefix = "TS_PRECOMPILE"

	// maxFileSize bounds the config files we are willing to parse.
	maxFileSize = 1 << 20
)

// FileExts are the supported config file extensions in lookup order.
var FileExts = []string{"cue", "toml"}

// ErrUnsupportedFormat is returned for a config file that is neither CUE nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

//go:embed config_schema.cue
var configSchema string

// Locate returns the project config file in dir, or "" when there is none.
func Locate(dir string) string {
	for _, ext := range FileExts {
		path := filepath.Join(dir, ConfigFileName+"."+ext)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("manifest_path", defaults.ManifestPath)
	v.SetDefault("compiler.command", defaults.Compiler.Command)
	v.SetDefault("compiler.min_version", defaults.Compiler.MinVersion)
	v.SetDefault("addon.name", defaults.Addon.Name)
	v.SetDefault("addon.root", defaults.Addon.Root)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// An explicit --config file is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithIssue(issue.ToolConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'ts-precompile config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else if opts.ProjectDir != "" {
		resolvedPath = Locate(opts.ProjectDir)
	}

	if resolvedPath != "" {
		if err := loadFileIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithIssue(issue.ToolConfigLoadFailedId).
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE or TOML syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	// Environment values bypass the schema, so check the merged result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithIssue(issue.ToolConfigLoadFailedId).
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables and the config file").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// loadFileIntoViper reads a CUE or TOML config file, validates it against
// the #Config schema, and merges its contents into Viper.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileSize)
	}

	ctx := cuecontext.New()

	var userValue cue.Value
	switch ext := strings.TrimPrefix(filepath.Ext(path), "."); ext {
	case "cue":
		userValue = ctx.CompileBytes(data, cue.Filename(path))
	case "toml":
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		userValue = ctx.Encode(raw)
	default:
		return fmt.Errorf("%w: %q (use .cue or .toml)", ErrUnsupportedFormat, ext)
	}
	if userValue.Err() != nil {
		return FormatError(userValue.Err(), path)
	}

	configMap, err := validate(ctx, userValue, path)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// validate unifies a user value with the #Config definition and decodes the
// result. Concrete(false) because every field is optional.
func validate(ctx *cue.Context, userValue cue.Value, path string) (map[string]any, error) {
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, FormatError(err, path)
	}
	return configMap, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default ts-precompile.cue into dir unless a
// project config already exists there. It returns the path of the config
// file and whether it was created.
func CreateDefaultConfig(dir string) (string, bool, error) {
	if existing := Locate(dir); existing != "" {
		return existing, false, nil
	}

	path := filepath.Join(dir, ConfigFileName+"."+FileExts[0])
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// ts-precompile configuration\n\n")
	fmt.Fprintf(&sb, "manifest_path: %q\n", cfg.ManifestPath)

	sb.WriteString("\ncompiler: {\n")
	fmt.Fprintf(&sb, "\tcommand:     %q\n", cfg.Compiler.Command)
	fmt.Fprintf(&sb, "\tmin_version: %q\n", cfg.Compiler.MinVersion)
	sb.WriteString("}\n")

	if cfg.Addon.Name != "" || cfg.Addon.Root != "" {
		sb.WriteString("\naddon: {\n")
		if cfg.Addon.Name != "" {
			fmt.Fprintf(&sb, "\tname: %q\n", cfg.Addon.Name)
		}
		if cfg.Addon.Root != "" {
			fmt.Fprintf(&sb, "\troot: %q\n", cfg.Addon.Root)
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
