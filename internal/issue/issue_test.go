// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	ids := []Id{
		DeclarationNotFoundId,
		DeclarationParseErrorId,
		ManifestInvalidId,
		BuildToolFailedId,
		ArtifactNotFoundId,
		UserPluginsMissingId,
		SymlinkPrivilegeId,
		UnmanagedPluginFileId,
		ExecutableNotFoundId,
		HeadlessUnsupportedId,
		HeadlessToolMissingId,
		ConfigLoadFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil, every Id needs a catalog entry", id)
		}
	}

	if DeclarationNotFoundId != 1 {
		t.Errorf("DeclarationNotFoundId = %d, want 1", DeclarationNotFoundId)
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(ExecutableNotFoundId)
	if issue == nil {
		t.Fatal("Get(ExecutableNotFoundId) returned nil")
	}

	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("ExtLinks() returned no links")
	}
	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}

	docIssue := Get(DeclarationNotFoundId)
	docs := docIssue.DocLinks()
	if len(docs) == 0 {
		t.Fatal("DocLinks() returned no links")
	}
	docs[0] = "modified"
	if docIssue.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	rendered, err := Get(UserPluginsMissingId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}

	for _, want := range []string{"UserPlugins", "Launch REAPER once", "## See also", "reaper.fm"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output missing %q", want)
		}
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	rendered, err := Get(HeadlessUnsupportedId).Render("notty")
	if err != nil {
		t.Fatalf("Render(notty) returned error: %v", err)
	}
	if !strings.Contains(rendered, "Headless mode is not supported") {
		t.Errorf("Render(notty) = %q", rendered)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{DeclarationNotFoundId, false, "No plugin declaration file found"},
		{DeclarationParseErrorId, false, "Failed to parse"},
		{ManifestInvalidId, false, "crate-type"},
		{BuildToolFailedId, false, "build tool reported a failure"},
		{ArtifactNotFoundId, false, "library is missing"},
		{UserPluginsMissingId, false, "UserPlugins directory does not exist"},
		{SymlinkPrivilegeId, false, "Developer Mode"},
		{UnmanagedPluginFileId, false, "does not manage"},
		{ExecutableNotFoundId, false, "REAPER executable not found"},
		{HeadlessToolMissingId, false, "xvfb-run"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}

			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(issues))
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Id() >= values[i].Id() {
			t.Errorf("Values() not ordered: %d before %d", values[i-1].Id(), values[i].Id())
		}
	}
}
