// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

var (
	// ErrProcess is the sentinel wrapped by ProcessError.
	ErrProcess = errors.New("host process error")
	// ErrExecutableNotFound is returned when no host executable can be located.
	ErrExecutableNotFound = errors.New("host executable not found")
	// ErrHeadlessUnsupported is returned when a headless launch or window
	// search is requested on a platform without a virtual display.
	ErrHeadlessUnsupported = errors.New("headless mode is not supported on this platform")
	// ErrWindowNotFound is returned by Outcome.Err when a window was requested
	// but never appeared.
	ErrWindowNotFound = errors.New("window not found")
	// ErrHostExit is returned by Outcome.Err when the host exited unsuccessfully.
	ErrHostExit = errors.New("host exited unsuccessfully")
)

type (
	// ProcessError reports a failure to locate or start the host or its harness.
	ProcessError struct {
		Op   string
		Path string
		// Tried lists the locations searched when locating an executable.
		Tried []string
		Err   error
	}

	// WindowNotFoundError is the outcome of a window search that never matched.
	WindowNotFoundError struct {
		Title string
		// TimedOut distinguishes a deadline from the host exiting first.
		TimedOut bool
	}

	// HostExitError carries a non-zero exit status of the host.
	HostExitError struct {
		ExitCode types.ExitCode
		Signaled bool
	}
)

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	if e.Path == "" {
		msg = fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if len(e.Tried) > 0 {
		msg += " (looked in " + strings.Join(e.Tried, ", ") + ")"
	}
	return msg
}

// Unwrap exposes ErrProcess and the cause.
func (e *ProcessError) Unwrap() []error { return []error{ErrProcess, e.Err} }

// Error implements the error interface.
func (e *WindowNotFoundError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("timed out before a window matching %q appeared", e.Title)
	}
	return fmt.Sprintf("host exited before a window matching %q appeared", e.Title)
}

// Unwrap returns ErrWindowNotFound for errors.Is() compatibility.
func (e *WindowNotFoundError) Unwrap() error { return ErrWindowNotFound }

// Error implements the error interface.
func (e *HostExitError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("host was killed by a signal (exit status %s)", e.ExitCode)
	}
	return fmt.Sprintf("host exited with status %s", e.ExitCode)
}

// Unwrap returns ErrHostExit for errors.Is() compatibility.
func (e *HostExitError) Unwrap() error { return ErrHostExit }
