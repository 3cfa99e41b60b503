// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by all CLI output. Tuned for dark terminal
// backgrounds.
const (
	// ColorPrimary is purple, for titles and plugin names.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, for subtitles and secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, for progress verbs and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, for commands and paths.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

// statusWidth right-aligns progress verbs the way the build tool does.
const statusWidth = 12

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages.
	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	// CmdStyle is for command names, keys and paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for supplementary information.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)

	// statusStyle renders the right-aligned verb of a progress line.
	statusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess).
			Width(statusWidth).
			Align(lipgloss.Right)

	// Diagnostic card styles (render.go).
	renderHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorError)

	renderGutterStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorHighlight)

	renderLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWarning)

	renderValueStyle = lipgloss.NewStyle().
				Foreground(ColorVerbose)

	renderHintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)
)

// printStatus writes "<verb> <message>" with the verb right-aligned.
func printStatus(w io.Writer, verb, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", statusStyle.Render(verb), fmt.Sprintf(format, args...))
}

// printWarning writes a "warning: ..." line.
func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("warning:"), fmt.Sprintf(format, args...))
}
