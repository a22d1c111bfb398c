// SPDX-License-Identifier: MPL-2.0

package precompile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ts-precompile/ts-precompile/internal/compiler"
	"github.com/ts-precompile/ts-precompile/internal/issue"
	"github.com/ts-precompile/ts-precompile/internal/manifest"
	"github.com/ts-precompile/ts-precompile/internal/testutil"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliasConfig = `{
  // declarations live next to the sources
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@app/*": ["app/*"],
    },
  },
}`

// fakeCompiler writes files into the output directory the way tsc would and
// returns err afterwards.
type fakeCompiler struct {
	files map[string]string
	err   error
	calls []compiler.Options
	check func(opts compiler.Options)
}

func (f *fakeCompiler) Compile(_ context.Context, opts compiler.Options) error {
	f.calls = append(f.calls, opts)
	if f.check != nil {
		f.check(opts)
	}
	for rel, content := range f.files {
		path := filepath.Join(opts.OutDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return f.err
}

func newProject(t *testing.T, tsconfig string) string {
	t.Helper()
	root := t.TempDir()
	testutil.MustWriteFile(t, root, "tsconfig.json", tsconfig)
	testutil.MustWriteFile(t, root, "package.json", `{"name": "my-addon"}`)
	return root
}

func newRunner(c compiler.Compiler) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	return &Runner{Compiler: c, Logger: log.New(io.Discard), Stdout: &out}, &out
}

func readManifest(t *testing.T, path string) []string {
	t.Helper()
	var entries []string
	require.NoError(t, json.Unmarshal([]byte(testutil.MustReadFile(t, path)), &entries))
	return entries
}

func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	return paths
}

func TestRun_PublishesAliasedDeclaration(t *testing.T) {
	root := newProject(t, aliasConfig)
	testutil.MustWriteFile(t, root, "app/foo.d.ts", "export declare const foo: number;\n")

	fc := &fakeCompiler{}
	r, _ := newRunner(fc)
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)

	dest := filepath.Join(root, "my-addon", "foo.d.ts")
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "my-addon", res.PackageName)
	assert.Equal(t, "export declare const foo: number;\n", testutil.MustReadFile(t, dest))

	manifestPath := filepath.Join(root, manifest.DefaultPath)
	assert.Equal(t, manifestPath, res.Manifest)
	assert.Equal(t, []string{dest}, readManifest(t, manifestPath))
	assert.False(t, testutil.Exists(t, TempDir(root)), "temp dir removed")

	require.Len(t, fc.calls, 1)
	assert.Equal(t, root, fc.calls[0].ProjectRoot)
	assert.Equal(t, TempDir(root), fc.calls[0].OutDir)
}

func TestRun_NoAliasesWritesNothing(t *testing.T) {
	root := newProject(t, `{"compilerOptions": {"strict": true}}`)
	before := snapshot(t, root)

	fc := &fakeCompiler{}
	r, out := newRunner(fc)
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)

	assert.Equal(t, StatusNoAliases, res.Status)
	assert.Contains(t, out.String(), "no-op")
	assert.Empty(t, fc.calls, "compiler is not invoked")
	assert.Equal(t, before, snapshot(t, root))
}

func TestRun_CompilationFailure(t *testing.T) {
	root := newProject(t, aliasConfig)
	fc := &fakeCompiler{
		files: map[string]string{"app/partial.d.ts": "half"},
		err: &compiler.CompilationFailedError{
			ExitCode: 2,
			Output:   "app/foo.ts(3,1): error TS1005: ';' expected.",
		},
	}

	r, _ := newRunner(fc)
	_, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.Error(t, err)

	assert.ErrorIs(t, err, compiler.ErrCompilationFailed)
	assert.Contains(t, err.Error(), "error TS1005")
	assert.False(t, testutil.Exists(t, TempDir(root)), "temp dir removed")
	assert.False(t, testutil.Exists(t, filepath.Join(root, manifest.DefaultPath)), "no manifest")
	assert.False(t, testutil.Exists(t, filepath.Join(root, "my-addon")), "nothing published")
}

func TestRun_CopyFailureRollsBack(t *testing.T) {
	root := newProject(t, `{"compilerOptions": {"baseUrl": ".", "paths": {"@a/*": ["a/*"], "@b/*": ["b/*"]}}}`)
	testutil.MustWriteFile(t, root, "a/foo.d.ts", "foo")
	testutil.MustWriteFile(t, root, "b/sub/bar.d.ts", "bar")
	// "@a/*" publishes first; "@b/*" then needs my-addon/sub to be a directory.
	blocker := testutil.MustWriteFile(t, root, "my-addon/sub", "not a directory")

	r, _ := newRunner(&fakeCompiler{})
	_, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.Error(t, err)
	assert.Equal(t, issue.CopyFailedId, issue.IdOf(err))

	assert.False(t, testutil.Exists(t, filepath.Join(root, "my-addon", "foo.d.ts")), "published file rolled back")
	assert.True(t, testutil.Exists(t, blocker), "unrecorded files are left alone")
	assert.False(t, testutil.Exists(t, filepath.Join(root, manifest.DefaultPath)), "no manifest")
	assert.False(t, testutil.Exists(t, TempDir(root)), "temp dir removed")
}

func TestRun_InheritedPathsResolveFromProjectConfig(t *testing.T) {
	ws := t.TempDir()
	testutil.WriteTree(t, ws, map[string]string{
		"shared/tsconfig.base.json":   `{"compilerOptions": {"paths": {"@app/*": ["app/*"]}}}`,
		"shared/app/shared.d.ts":      "belongs to the shared config dir",
		"addon/tsconfig.json":         `{"extends": "../shared/tsconfig.base.json"}`,
		"addon/package.json":          `{"name": "my-addon"}`,
		"addon/app/foo.d.ts":          "foo",
		"addon/shared/app/decoy.d.ts": "outside the compiler output",
	})
	root := filepath.Join(ws, "addon")

	r, _ := newRunner(&fakeCompiler{files: map[string]string{"app/bar.d.ts": "bar"}})
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)

	pkg := filepath.Join(root, "my-addon")
	assert.Equal(t, "foo", testutil.MustReadFile(t, filepath.Join(pkg, "foo.d.ts")))
	assert.Equal(t, "bar", testutil.MustReadFile(t, filepath.Join(pkg, "bar.d.ts")))
	assert.ElementsMatch(t, []string{filepath.Join(pkg, "foo.d.ts"), filepath.Join(pkg, "bar.d.ts")}, res.Files)
	assert.False(t, testutil.Exists(t, filepath.Join(pkg, "shared.d.ts")))
	assert.False(t, testutil.Exists(t, filepath.Join(pkg, "decoy.d.ts")))
}

func TestRun_HandWrittenOverridesGenerated(t *testing.T) {
	root := newProject(t, aliasConfig)
	testutil.MustWriteFile(t, root, "app/types.d.ts", "hand-written")
	fc := &fakeCompiler{files: map[string]string{
		"app/types.d.ts":     "generated",
		"app/component.d.ts": "generated component",
	}}

	r, _ := newRunner(fc)
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)

	types := filepath.Join(root, "my-addon", "types.d.ts")
	component := filepath.Join(root, "my-addon", "component.d.ts")
	assert.Equal(t, "hand-written", testutil.MustReadFile(t, types))
	assert.Equal(t, "generated component", testutil.MustReadFile(t, component))
	assert.ElementsMatch(t, []string{types, component}, res.Files)
	for _, f := range readManifest(t, res.Manifest) {
		assert.True(t, testutil.Exists(t, f), "manifest entry %s exists", f)
	}
}

func TestRun_Idempotent(t *testing.T) {
	root := newProject(t, aliasConfig)
	testutil.MustWriteFile(t, root, "app/foo.d.ts", "foo")
	fc := &fakeCompiler{files: map[string]string{"app/bar.d.ts": "bar"}}
	r, _ := newRunner(fc)

	_, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)
	first := testutil.MustReadFile(t, filepath.Join(root, manifest.DefaultPath))
	tree := snapshot(t, root)

	_, err = r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, first, testutil.MustReadFile(t, filepath.Join(root, manifest.DefaultPath)))
	assert.Equal(t, tree, snapshot(t, root))
}

func TestRun_PatternWithoutMatches(t *testing.T) {
	root := newProject(t, `{"compilerOptions": {"paths": {"@app/*": ["app/*"], "@gen/*": ["generated/*"]}}}`)
	testutil.MustWriteFile(t, root, "app/foo.d.ts", "foo")

	r, _ := newRunner(&fakeCompiler{})
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "my-addon", "foo.d.ts")}, res.Files)
}

func TestRun_StaleTempDirIsCleared(t *testing.T) {
	root := newProject(t, aliasConfig)
	stale := testutil.MustWriteFile(t, TempDir(root), "app/stale.d.ts", "left over")

	fc := &fakeCompiler{check: func(compiler.Options) {
		assert.False(t, testutil.Exists(t, stale), "stale output removed before compiling")
	}}
	r, _ := newRunner(fc)
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
}

func TestRun_CustomManifestAndWorkDir(t *testing.T) {
	root := newProject(t, aliasConfig)
	work := t.TempDir()
	testutil.MustWriteFile(t, root, "app/foo.d.ts", "foo")

	fc := &fakeCompiler{check: func(opts compiler.Options) {
		assert.Equal(t, TempDir(work), opts.OutDir)
	}}
	r, _ := newRunner(fc)
	res, err := r.Run(context.Background(), Options{
		ProjectRoot:  root,
		WorkDir:      work,
		ManifestPath: "build/declarations.json",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "build", "declarations.json"), res.Manifest)
	assert.False(t, testutil.Exists(t, TempDir(work)))
}

func TestRun_AddonNameOverridesPackageName(t *testing.T) {
	root := newProject(t, aliasConfig)
	testutil.MustWriteFile(t, root, "package.json", `{"name": "ember-cli-my-addon", "keywords": ["ember-addon"]}`)
	testutil.MustWriteFile(t, root, "index.js", "module.exports = {\n  name: 'my-addon',\n};\n")
	testutil.MustWriteFile(t, root, "app/foo.d.ts", "foo")

	r, _ := newRunner(&fakeCompiler{})
	res, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, "my-addon", res.PackageName)
	assert.True(t, testutil.Exists(t, filepath.Join(root, "my-addon", "foo.d.ts")))

	res, err = r.Run(context.Background(), Options{ProjectRoot: root, AddonName: "configured-name"})
	require.NoError(t, err)
	assert.Equal(t, "configured-name", res.PackageName)
}

func TestRun_MissingPackageJSON(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, root, "tsconfig.json", aliasConfig)

	fc := &fakeCompiler{}
	r, _ := newRunner(fc)
	_, err := r.Run(context.Background(), Options{ProjectRoot: root})
	require.Error(t, err)
	assert.Equal(t, issue.PackageMetadataId, issue.IdOf(err))
	assert.Empty(t, fc.calls)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "no-aliases", StatusNoAliases.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
