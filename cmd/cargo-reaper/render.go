// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/fang"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/issue"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
)

// renderDiagnostic renders one diagnostic as a source card:
//
//	error: `reaper_x` is not a dynamic library [not-a-dynamic-library]
//	  --> crates/x/Cargo.toml:7:1
//	   |
//	 7 | crate-type = ["rlib"]
//	   | ^^^^^^^^^^ extension plugins must be dynamic libraries to be recognized
//	   = help: add `crate-type = ["cdylib"]`
func renderDiagnostic(d manifest.Diagnostic) string {
	var sb strings.Builder

	severity := string(d.Severity)
	if severity == "" {
		severity = string(manifest.SeverityError)
	}
	header := renderHeaderStyle
	if d.Severity == manifest.SeverityWarning {
		header = WarningStyle
	}
	sb.WriteString(header.Render(severity+":") + " " + d.Message)
	if d.Code != "" {
		sb.WriteString(" " + renderValueStyle.Render("["+string(d.Code)+"]"))
	}
	sb.WriteString("\n")

	gutter := ""
	if d.Line > 0 {
		gutter = strconv.Itoa(d.Line)
	}
	pad := strings.Repeat(" ", len(gutter))
	if d.File != "" {
		fmt.Fprintf(&sb, "%s%s %s\n", pad, renderGutterStyle.Render("-->"), d.Location())
	}
	if d.Source != "" && d.Line > 0 {
		bar := renderGutterStyle.Render("|")
		fmt.Fprintf(&sb, "%s %s\n", pad, bar)
		fmt.Fprintf(&sb, "%s %s %s\n", renderGutterStyle.Render(gutter), bar, d.Source)
		marker := renderLabelStyle.Render(d.Underline())
		if d.Label != "" {
			marker += " " + renderLabelStyle.Render(d.Label)
		}
		fmt.Fprintf(&sb, "%s %s %s\n", pad, bar, marker)
	} else if d.Label != "" {
		fmt.Fprintf(&sb, "%s %s %s\n", pad, renderGutterStyle.Render("="), d.Label)
	}
	if d.Help != "" {
		fmt.Fprintf(&sb, "%s %s %s\n", pad, renderGutterStyle.Render("="), renderHintStyle.Render("help: "+d.Help))
	}
	return sb.String()
}

// renderDiagnostics renders every diagnostic followed by a one-line summary.
func renderDiagnostics(diags []manifest.Diagnostic) string {
	var sb strings.Builder
	errs := 0
	for _, d := range diags {
		sb.WriteString(renderDiagnostic(d))
		sb.WriteString("\n")
		if d.Severity != manifest.SeverityWarning {
			errs++
		}
	}
	if errs > 1 {
		fmt.Fprintf(&sb, "%s could not resolve plugins due to %d previous errors\n\n", renderHeaderStyle.Render("error:"), errs)
	}
	return sb.String()
}

// classifyError pairs a domain error with its issue catalog entry. It
// returns nil for errors the CLI has no special rendering for.
func classifyError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var validationErr *manifest.ValidationError
	var configErr *manifest.ConfigError
	switch {
	case errors.As(err, &validationErr):
		return newServiceError(err, issue.ManifestInvalidId, renderDiagnostics(validationErr.Diagnostics))
	case errors.As(err, &configErr):
		if errors.Is(err, manifest.ErrDeclarationNotFound) {
			return newServiceError(err, issue.DeclarationNotFoundId, "")
		}
		styled := ""
		if configErr.Diagnostic != nil {
			styled = renderDiagnostics([]manifest.Diagnostic{*configErr.Diagnostic})
		}
		return newServiceError(err, issue.DeclarationParseErrorId, styled)
	case errors.Is(err, build.ErrBuildTool):
		return newServiceError(err, issue.BuildToolFailedId, "")
	case errors.Is(err, build.ErrArtifactNotFound):
		return newServiceError(err, issue.ArtifactNotFoundId, "")
	case errors.Is(err, link.ErrUserPluginsMissing):
		return newServiceError(err, issue.UserPluginsMissingId, "")
	case errors.Is(err, link.ErrSymlinkPrivilege):
		return newServiceError(err, issue.SymlinkPrivilegeId, "")
	case errors.Is(err, link.ErrUnmanagedFile):
		return newServiceError(err, issue.UnmanagedPluginFileId, "")
	case errors.Is(err, supervisor.ErrExecutableNotFound):
		return newServiceError(err, issue.ExecutableNotFoundId, "")
	case errors.Is(err, supervisor.ErrHeadlessUnsupported):
		return newServiceError(err, issue.HeadlessUnsupportedId, "")
	case errors.Is(err, supervisor.ErrProcess) && errors.Is(err, exec.ErrNotFound):
		return newServiceError(err, issue.HeadlessToolMissingId, "")
	}
	return nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// handleError is the fang error handler. Anything reportError does not
// recognise, such as flag parsing errors, falls back to fang's rendering.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	if !a.reportError(w, err) {
		fang.DefaultErrorHandler(w, styles, err)
	}
}

// printError reports err on stderr outside of fang, e.g. between watch
// rebuilds.
func (a *App) printError(err error) {
	if !a.reportError(a.stderr, err) {
		fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("error:"), formatErrorForDisplay(err, a.flags.verbose))
	}
}

// reportError renders domain errors as diagnostic cards followed by the
// matching issue catalog entry. It reports whether err was handled.
func (a *App) reportError(w io.Writer, err error) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return true
	}
	if isCanceled(err) {
		return true
	}

	var ae *issue.ActionableError
	svcErr := classifyError(err)
	if svcErr == nil && !errors.As(err, &ae) {
		return false
	}

	if svcErr == nil || svcErr.StyledMessage == "" {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("error:"), formatErrorForDisplay(err, a.flags.verbose))
	}
	if svcErr == nil {
		return true
	}

	// The build tool already explained its failure; the catalog entry is
	// only repeated on request.
	if svcErr.IssueID == issue.BuildToolFailedId && !a.flags.verbose {
		svcErr = newServiceError(svcErr.Err, 0, svcErr.StyledMessage)
	}
	renderServiceError(w, svcErr, string(a.scheme), a.logger)
	return true
}
