// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
// A nil Err means the failure was already reported.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps a command error to the process exit status. Failures of
// the build tool and of the supervised host keep their own status.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && !exitErr.Code.IsSuccess() {
		return exitErr.Code
	}
	var toolErr *build.ToolError
	if errors.As(err, &toolErr) && !toolErr.ExitCode.IsSuccess() {
		return toolErr.ExitCode
	}
	var hostErr *supervisor.HostExitError
	if errors.As(err, &hostErr) && !hostErr.ExitCode.IsSuccess() {
		return hostErr.ExitCode
	}
	return types.ExitFailure
}
