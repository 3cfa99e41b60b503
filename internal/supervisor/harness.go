// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"os/exec"
)

const (
	// XvfbRunName is the default virtual display harness.
	XvfbRunName = "xvfb-run"
	// DefaultScreen is the virtual screen geometry given to the X server.
	DefaultScreen = "1920x1080x24"
)

type (
	// Harness wraps a host command line so that it runs inside a virtual
	// display.
	Harness interface {
		Wrap(executable string, args []string, display Display) (string, []string)
	}

	// XvfbHarness runs the host under xvfb-run on a fixed server number, so
	// the window searcher can query the same display.
	XvfbHarness struct {
		Path   string
		Screen string
	}
)

// Wrap returns the xvfb-run command line for the host.
func (x XvfbHarness) Wrap(executable string, args []string, display Display) (string, []string) {
	screen := x.Screen
	if screen == "" {
		screen = DefaultScreen
	}
	wrapped := []string{
		"--server-num", display.ServerNum(),
		"--server-args", "-screen 0 " + screen,
		executable,
	}
	return x.path(), append(wrapped, args...)
}

// Available reports whether xvfb-run can be found.
func (x XvfbHarness) Available() error {
	if _, err := exec.LookPath(x.path()); err != nil {
		return &ProcessError{Op: "locate", Path: x.path(), Err: err}
	}
	return nil
}

func (x XvfbHarness) path() string {
	if x.Path == "" {
		return XvfbRunName
	}
	return x.Path
}
