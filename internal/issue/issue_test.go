// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		ConfigNotFoundId,
		ConfigParseFailedId,
		ToolConfigLoadFailedId,
		CompilerNotFoundId,
		CompilationFailedId,
		CopyFailedId,
		ManifestWriteFailedId,
		ManifestReadFailedId,
		PackageMetadataId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true

		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil, every id needs a catalog entry", id)
		}
	}

	if ConfigNotFoundId != 1 {
		t.Errorf("ConfigNotFoundId = %d, want 1", ConfigNotFoundId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(ConfigNotFoundId)
	if issue == nil {
		t.Fatal("Get(ConfigNotFoundId) returned nil")
	}

	if !strings.Contains(string(issue.MarkdownMsg()), "No tsconfig.json found") {
		t.Error("MarkdownMsg() should contain 'No tsconfig.json found'")
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(ConfigNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links")
	}

	links[0] = "modified"
	if issue.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	orig := render
	defer func() { render = orig }()

	var gotIn string
	render = func(in, _ string) (string, error) {
		gotIn = in
		return "rendered", nil
	}

	out, err := Get(CompilerNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "rendered" {
		t.Errorf("Render() = %q, want %q", out, "rendered")
	}
	if !strings.Contains(gotIn, "## See also:") {
		t.Error("rendered markdown should include the links section")
	}
}

func TestValues_Ordered(t *testing.T) {
	vals := Values()
	if len(vals) != len(issues) {
		t.Fatalf("Values() returned %d entries, want %d", len(vals), len(issues))
	}
	for i := 1; i < len(vals); i++ {
		if vals[i-1].Id() >= vals[i].Id() {
			t.Errorf("Values() not ordered at %d: %d >= %d", i, vals[i-1].Id(), vals[i].Id())
		}
	}
}
