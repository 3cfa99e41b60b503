// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is the sentinel wrapped by ConfigError: the declaration file
	// is missing or malformed.
	ErrConfig = errors.New("plugin declaration error")
	// ErrDeclarationNotFound is returned when no declaration file exists in the
	// start directory or any of its parents.
	ErrDeclarationNotFound = errors.New("no plugin declaration file found")
	// ErrManifestValidation is the sentinel wrapped by ValidationError.
	ErrManifestValidation = errors.New("plugin manifest validation failed")
)

type (
	// ConfigError reports a declaration file that cannot be found or parsed.
	// Diagnostic is set when the failure has a position in the file.
	ConfigError struct {
		Path       string
		Diagnostic *Diagnostic
		Err        error
	}

	// ValidationError collects every problem found across all declared plugins.
	ValidationError struct {
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Diagnostic != nil && e.Diagnostic.Line > 0 {
		return fmt.Sprintf("%s: %v", e.Diagnostic.Location(), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrConfig and the underlying cause.
func (e *ConfigError) Unwrap() []error { return []error{ErrConfig, e.Err} }

// Error summarises the first diagnostic and how many more follow.
func (e *ValidationError) Error() string {
	errs := e.Errors()
	switch len(errs) {
	case 0:
		return "invalid plugin declarations"
	case 1:
		return fmt.Sprintf("%s: %s", errs[0].Location(), errs[0].Message)
	default:
		msgs := make([]string, 0, len(errs))
		for _, d := range errs {
			msgs = append(msgs, d.Message)
		}
		return fmt.Sprintf("%d problems in plugin declarations: %s", len(errs), strings.Join(msgs, "; "))
	}
}

// Unwrap returns ErrManifestValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrManifestValidation }

// Errors returns the diagnostics with error severity.
func (e *ValidationError) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
