// SPDX-License-Identifier: MPL-2.0

//go:build unix

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/testutil"
)

// fakeHost writes a shell script standing in for the REAPER executable.
func fakeHost(t *testing.T, body string) string {
	t.Helper()
	return testutil.WriteExecutable(t, filepath.Join(t.TempDir(), "reaper"), "#!/bin/sh\n"+body+"\n")
}

func TestRunBuildsThenLaunches(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	host := fakeHost(t, "exit 0")

	if err := env.execute("run", "-e", host); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if len(env.tool.Calls()) != 1 {
		t.Errorf("tool calls = %d, want 1", len(env.tool.Calls()))
	}
	if _, err := os.Lstat(env.linkPath()); err != nil {
		t.Errorf("plugin not linked before launch: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "overriding REAPER executable path") {
		t.Errorf("stdout = %q, want the override warning", out)
	}
	if !strings.Contains(out, "Finished") {
		t.Errorf("stdout = %q, want the Finished line", out)
	}
}

func TestRunNoBuild(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.cfg.Run.Executable = fakeHost(t, "exit 0")

	if err := env.execute("run", "--no-build"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if len(env.tool.Calls()) != 0 {
		t.Error("--no-build still invoked the build tool")
	}
	if !strings.Contains(env.stdout.String(), "Running") {
		t.Errorf("stdout = %q, want the Running line", env.stdout.String())
	}
}

func TestRunHostExitCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	host := fakeHost(t, "exit 3")

	err := env.execute("run", "--no-build", "-e", host, "--stdout", "null")
	var hostErr *supervisor.HostExitError
	if !errors.As(err, &hostErr) {
		t.Fatalf("run error = %v, want HostExitError", err)
	}
	if got := exitCodeFor(err); got != 3 {
		t.Errorf("exitCodeFor() = %d, want 3", got)
	}
}

func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	host := fakeHost(t, `echo "hello from the host"; echo "complaint" >&2`)

	if err := env.execute("run", "--no-build", "-e", host, "--stdout", "piped", "--stderr", "piped"); err != nil {
		t.Fatalf("run error = %v", err)
	}
	if out := env.stdout.String(); !strings.Contains(out, "captured stdout:") || !strings.Contains(out, "hello from the host") {
		t.Errorf("stdout = %q", out)
	}
	if errOut := env.stderr.String(); !strings.Contains(errOut, "complaint") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	host := fakeHost(t, "exec sleep 30")

	if err := env.execute("run", "--no-build", "-e", host, "-t", "200ms"); err != nil {
		t.Fatalf("run error = %v, a timeout without a window search succeeds", err)
	}
	if !strings.Contains(env.stdout.String(), "Timed out") {
		t.Errorf("stdout = %q, want the Timed out line", env.stdout.String())
	}
}

func TestRunFlagErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	host := fakeHost(t, "exit 0")

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"negative timeout", []string{"run", "--no-build", "-e", host, "-t", "-1s"}, nil},
		{"keep going without window", []string{"run", "--no-build", "-e", host, "--keep-going"}, nil},
		{"bad stdio mode", []string{"run", "--no-build", "-e", host, "--stdout", "tty"}, nil},
		{"missing override", []string{"run", "--no-build", "-e", filepath.Join(t.TempDir(), "reaper")}, supervisor.ErrExecutableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.execute(tt.args...)
			if err == nil {
				t.Fatal("run succeeded")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("run error = %v, want %v", err, tt.is)
			}
		})
	}
	if len(env.tool.Calls()) != 0 {
		t.Error("a rejected run invoked the build tool")
	}
}

func TestRunMissingExecutableFailsBeforeBuild(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.cfg.Run.Executable = filepath.Join(t.TempDir(), "missing", "reaper")

	err := env.execute("run")
	if !errors.Is(err, supervisor.ErrExecutableNotFound) {
		t.Fatalf("run error = %v, want ErrExecutableNotFound", err)
	}
	if len(env.tool.Calls()) != 0 {
		t.Error("build ran although REAPER could not be found")
	}
}
