// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"strings"
)

const (
	// SeverityError marks a diagnostic that fails resolution.
	SeverityError Severity = "error"
	// SeverityWarning marks a diagnostic that is reported but not fatal.
	SeverityWarning Severity = "warning"

	CodeInvalidKey        DiagnosticCode = "invalid-plugin-key"
	CodeInvalidPath       DiagnosticCode = "invalid-manifest-path"
	CodeManifestMissing   DiagnosticCode = "manifest-not-found"
	CodeManifestParse     DiagnosticCode = "manifest-parse-error"
	CodeNotAPackage       DiagnosticCode = "not-a-package"
	CodeMissingLibrary    DiagnosticCode = "missing-library-target"
	CodeNotDynamicLibrary DiagnosticCode = "not-a-dynamic-library"
	CodeInheritance       DiagnosticCode = "workspace-inheritance"
	CodeAmbiguous         DiagnosticCode = "ambiguous-workspace-resolution"
)

type (
	// Severity is the level of a Diagnostic.
	Severity string

	// DiagnosticCode is a stable identifier for a class of diagnostic.
	DiagnosticCode string

	// Diagnostic is one problem found while resolving plugin declarations,
	// located in the declaration file or in a package manifest.
	Diagnostic struct {
		Severity Severity
		Code     DiagnosticCode
		Message  string
		// File is the path of the document the problem is in.
		File string
		// Line and Column are 1-based; zero when the location is unknown.
		Line   int
		Column int
		// Width is the number of columns to underline.
		Width int
		// Source is the text of Line, captured for rendering.
		Source string
		// Label annotates the underlined span.
		Label string
		// Help is an optional fix-it hint.
		Help string
	}
)

// Location returns "file:line:col", dropping the parts that are unknown.
func (d Diagnostic) Location() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	case d.Line > 0:
		return fmt.Sprintf("%s:%d", d.File, d.Line)
	default:
		return d.File
	}
}

// String renders the diagnostic as plain text in the same card layout the
// CLI uses, without colors.
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", d.Severity, d.Message)
	fmt.Fprintf(&sb, "  --> %s\n", d.Location())
	if d.Source != "" {
		gutter := fmt.Sprintf("%d", d.Line)
		pad := strings.Repeat(" ", len(gutter))
		fmt.Fprintf(&sb, "%s |\n%s | %s\n", pad, gutter, d.Source)
		fmt.Fprintf(&sb, "%s | %s", pad, d.Underline())
		if d.Label != "" {
			sb.WriteString(" " + d.Label)
		}
		sb.WriteString("\n")
	}
	if d.Help != "" {
		fmt.Fprintf(&sb, "  = help: %s\n", d.Help)
	}
	return sb.String()
}

// Underline returns the caret marker aligned under the diagnostic's span.
func (d Diagnostic) Underline() string {
	width := d.Width
	if width <= 0 {
		width = 1
	}
	col := d.Column
	if col <= 0 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + strings.Repeat("^", width)
}

// at fills in the location of the diagnostic from a position in src.
func (d Diagnostic) at(file string, src []byte, pos sourcePos) Diagnostic {
	d.File = file
	d.Line = pos.Line
	d.Column = pos.Column
	d.Width = pos.Width
	d.Source = sourceLine(src, pos.Line)
	if d.Severity == "" {
		d.Severity = SeverityError
	}
	return d
}
