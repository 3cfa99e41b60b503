// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

var (
	// ErrBuildTool is the sentinel wrapped by ToolError.
	ErrBuildTool = errors.New("build tool failed")
	// ErrArtifactNotFound is the sentinel wrapped by ArtifactNotFoundError.
	ErrArtifactNotFound = errors.New("build artifact not found")
)

type (
	// ToolError is returned when the build tool cannot be started or exits
	// unsuccessfully. ExitCode is the tool's own status, or ExitFailure when it
	// never ran.
	ToolError struct {
		Tool     string
		Args     []string
		Dir      string
		ExitCode types.ExitCode
		Err      error
	}

	// ArtifactNotFoundError is returned when a build succeeded but none of the
	// expected library files exist.
	ArtifactNotFoundError struct {
		Key   types.PluginKey
		Tried []string
	}
)

// Error implements the error interface.
func (e *ToolError) Error() string {
	cmd := strings.TrimSpace(e.Tool + " " + strings.Join(e.Args, " "))
	if e.Err != nil {
		return fmt.Sprintf("%s (in %s): %v", cmd, e.Dir, e.Err)
	}
	return fmt.Sprintf("%s (in %s) exited with status %s", cmd, e.Dir, e.ExitCode)
}

// Unwrap exposes ErrBuildTool and the spawn failure, if any.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBuildTool}
	}
	return []error{ErrBuildTool, e.Err}
}

// Error implements the error interface.
func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("no library produced for `%s`; looked for: %s", e.Key, strings.Join(e.Tried, ", "))
}

// Unwrap returns ErrArtifactNotFound for errors.Is() compatibility.
func (e *ArtifactNotFoundError) Unwrap() error { return ErrArtifactNotFound }
