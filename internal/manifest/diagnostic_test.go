// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"strings"
	"testing"
)

func TestDiagnosticLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		diag Diagnostic
		want string
	}{
		{"full", Diagnostic{File: "reaper.toml", Line: 3, Column: 5}, "reaper.toml:3:5"},
		{"line only", Diagnostic{File: "reaper.toml", Line: 3}, "reaper.toml:3"},
		{"file only", Diagnostic{File: "reaper.toml"}, "reaper.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.diag.Location(); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	src := []byte("[extension_plugins]\nhello = \"./.\"\n")
	d := Diagnostic{
		Message: "Invalid extension plugin name",
		Label:   "extension plugins must be prefixed by `reaper_` to be recognized",
		Help:    "consider changing this to `reaper_hello`",
	}.at("reaper.toml", src, sourcePos{Line: 2, Column: 1, Width: 5})

	want := strings.Join([]string{
		"error: Invalid extension plugin name",
		"  --> reaper.toml:2:1",
		"  |",
		"2 | hello = \"./.\"",
		"  | ^^^^^ extension plugins must be prefixed by `reaper_` to be recognized",
		"  = help: consider changing this to `reaper_hello`",
		"",
	}, "\n")
	if got := d.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestDiagnosticStringWithoutSource(t *testing.T) {
	t.Parallel()

	d := Diagnostic{Severity: SeverityWarning, Message: "odd", File: "Cargo.toml"}
	got := d.String()
	if got != "warning: odd\n  --> Cargo.toml\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestDiagnosticUnderline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		column, width int
		want          string
	}{
		{1, 3, "^^^"},
		{4, 2, "   ^^"},
		{0, 0, "^"},
	}
	for _, tt := range tests {
		d := Diagnostic{Column: tt.column, Width: tt.width}
		if got := d.Underline(); got != tt.want {
			t.Errorf("Underline() col=%d width=%d = %q, want %q", tt.column, tt.width, got, tt.want)
		}
	}
}
