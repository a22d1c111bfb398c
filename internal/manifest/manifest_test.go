// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ts-precompile/ts-precompile/internal/issue"
	"github.com/ts-precompile/ts-precompile/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Entries(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		want   []string
	}{
		{"empty", nil, []string{}},
		{"single", []string{"a"}, []string{"a"}},
		{"reversed", []string{"a", "b", "c"}, []string{"c", "b", "a"}},
		{"overwrite keeps first creation position", []string{"a", "b", "a", "c"}, []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			for _, e := range tt.events {
				r.Append(e)
			}
			assert.Equal(t, tt.want, r.Entries())
			assert.Equal(t, len(tt.events), r.Len())
		})
	}
}

func TestRecord_PathsIsCopy(t *testing.T) {
	var r Record
	r.Append("a")
	p := r.Paths()
	p[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Paths())
}

func TestWrite_ReversesAndCreatesDirs(t *testing.T) {
	root := t.TempDir()
	a := testutil.MustWriteFile(t, root, "my-addon/a.d.ts", "a")
	b := testutil.MustWriteFile(t, root, "my-addon/b.d.ts", "b")

	var r Record
	r.Append(a)
	r.Append(b)

	path := filepath.Join(root, "dist", "nested", DefaultPath)
	require.NoError(t, Write(path, &r))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, got)
}

func TestWrite_Overwrites(t *testing.T) {
	root := t.TempDir()
	a := testutil.MustWriteFile(t, root, "a.d.ts", "a")
	path := testutil.MustWriteFile(t, root, "dist/m", `["stale-1","stale-2"]`)

	var r Record
	r.Append(a)
	require.NoError(t, Write(path, &r))

	assert.Equal(t, `["`+jsonEscape(a)+`"]`, testutil.MustReadFile(t, path))
}

func TestWrite_EmptyRecordIsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m")
	require.NoError(t, Write(path, &Record{}))
	assert.Equal(t, "[]", testutil.MustReadFile(t, path))
}

func TestWrite_MissingEntry(t *testing.T) {
	root := t.TempDir()
	var r Record
	r.Append(filepath.Join(root, "gone.d.ts"))

	path := filepath.Join(root, "m")
	err := Write(path, &r)
	require.ErrorIs(t, err, ErrMissingEntry)
	assert.Equal(t, issue.ManifestWriteFailedId, issue.IdOf(err))
	assert.False(t, testutil.Exists(t, path), "manifest must not be written")
}

func TestRead_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := Read(filepath.Join(root, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, issue.ManifestReadFailedId, issue.IdOf(err))

	bad := testutil.MustWriteFile(t, root, "bad", `{"not": "an array"}`)
	_, err = Read(bad)
	require.Error(t, err)
}

// jsonEscape escapes backslashes so Windows paths compare equal to their JSON form.
func jsonEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
