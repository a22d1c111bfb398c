// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "write manifest"},
			expected: "failed to write manifest",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "write manifest",
				Resource:  "dist/.ts-precompile-manifest",
			},
			expected: "failed to write manifest: dist/.ts-precompile-manifest",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "parse tsconfig",
				Cause:     errors.New("unexpected token"),
			},
			expected: "failed to parse tsconfig: unexpected token",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "copy declaration",
				Resource:  "app/foo.d.ts",
				Cause:     errors.New("permission denied"),
			},
			expected: "failed to copy declaration: app/foo.d.ts: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions are bulleted",
			err: &ActionableError{
				Operation:   "locate tsconfig.json",
				Resource:    "/work/addon",
				Suggestions: []string{"Run from the project root", "Pass --project"},
			},
			contains: []string{
				"failed to locate tsconfig.json: /work/addon",
				"• Run from the project root",
				"• Pass --project",
			},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "parse tsconfig",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to parse tsconfig: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested error chain verbose",
			err: &ActionableError{
				Operation: "precompile declarations",
				Cause: &ActionableError{
					Operation: "copy declaration",
					Cause:     errors.New("disk full"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to copy declaration: disk full",
				"2. disk full",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithIssue(CopyFailedId).
		WithOperation("copy declaration").
		WithResource("a.d.ts").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Issue != CopyFailedId {
		t.Errorf("Issue = %d, want %d", ae.Issue, CopyFailedId)
	}
	if len(ae.Suggestions) != 3 {
		t.Errorf("len(Suggestions) = %d, want 3", len(ae.Suggestions))
	}
	if !errors.Is(ae, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestWrapWithContext(t *testing.T) {
	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	err := WrapWithContext(errors.New("x"), "read manifest", "m.json")
	if got := err.Error(); got != "failed to read manifest: m.json: x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIdOf(t *testing.T) {
	inner := NewErrorContext().
		WithIssue(ManifestWriteFailedId).
		WithOperation("write manifest").
		BuildError()
	outer := &ActionableError{Operation: "precompile", Cause: inner}

	tests := []struct {
		name string
		err  error
		want Id
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("x"), 0},
		{"direct", inner, ManifestWriteFailedId},
		{"nested without id on outer", outer, ManifestWriteFailedId},
		{"fmt wrapped", fmt.Errorf("ctx: %w", inner), ManifestWriteFailedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdOf(tt.err); got != tt.want {
				t.Errorf("IdOf() = %d, want %d", got, tt.want)
			}
		})
	}
}
