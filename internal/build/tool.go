// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// DefaultToolName is the build tool looked up on PATH.
const DefaultToolName = "cargo"

type (
	// Tool runs one build tool invocation in dir.
	Tool interface {
		Run(ctx context.Context, dir string, args []string) error
	}

	// ExecTool runs the build tool as a child process. Nil streams inherit the
	// current process's.
	ExecTool struct {
		Path   string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewExecTool creates an ExecTool for path, defaulting to DefaultToolName.
func NewExecTool(path string) *ExecTool {
	if path == "" {
		path = DefaultToolName
	}
	return &ExecTool{Path: path}
}

// Run starts the tool and waits for it. A non-zero exit becomes a *ToolError
// carrying the tool's exit code.
func (t *ExecTool) Run(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Dir = dir
	cmd.Stdin = orDefault[io.Reader](t.Stdin, os.Stdin)
	cmd.Stdout = orDefault[io.Writer](t.Stdout, os.Stdout)
	cmd.Stderr = orDefault[io.Writer](t.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	toolErr := &ToolError{Tool: t.Path, Args: args, Dir: dir, ExitCode: types.ExitFailure}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() == nil && code != types.ExitSuccess {
			toolErr.ExitCode = code
		}
		return toolErr
	}
	toolErr.Err = err
	return toolErr
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
