// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// XdotoolName is the default window search tool.
const XdotoolName = "xdotool"

type (
	// WindowSearcher reports whether a window whose title contains title is
	// open on display.
	WindowSearcher interface {
		Search(ctx context.Context, display Display, title string) (bool, error)
	}

	// XdotoolSearcher searches with `xdotool search --name`.
	XdotoolSearcher struct {
		Path string
	}

	// availabilityChecker is implemented by searchers and harnesses that
	// depend on an external tool.
	availabilityChecker interface {
		Available() error
	}
)

// Search runs one query. xdotool exits 1 when nothing matches, which is not
// an error.
func (x XdotoolSearcher) Search(ctx context.Context, display Display, title string) (bool, error) {
	cmd := exec.CommandContext(ctx, x.path(), "search", "--name", title)
	cmd.Env = append(os.Environ(), DisplayEnv+"="+display.String())
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

// Available reports whether xdotool can be found.
func (x XdotoolSearcher) Available() error {
	if _, err := exec.LookPath(x.path()); err != nil {
		return &ProcessError{Op: "locate", Path: x.path(), Err: err}
	}
	return nil
}

func (x XdotoolSearcher) path() string {
	if x.Path == "" {
		return XdotoolName
	}
	return x.Path
}
