// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	restore := func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})
	}

	t.Run("ldflags version", func(t *testing.T) {
		restore(t)
		Version, Commit, BuildDate = "v0.3.0", "abc1234", "2026-01-02T10:00:00Z"

		want := "v0.3.0 (commit: abc1234, built: 2026-01-02T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		restore(t)
		Version = "dev"

		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestCargoArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"invoked through cargo", []string{"reaper", "build", "--", "--release"}, []string{"build", "--", "--release"}},
		{"invoked directly", []string{"build"}, []string{"build"}},
		{"subcommand name later", []string{"list", "reaper"}, []string{"list", "reaper"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cargoArgs(tt.args); !slices.Equal(got, tt.want) {
				t.Errorf("cargoArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"nil", nil, types.ExitSuccess},
		{"plain error", errors.New("boom"), types.ExitFailure},
		{"exit error", &ExitError{Code: 4}, 4},
		{"build tool status", fmt.Errorf("build: %w", &build.ToolError{Tool: "cargo", ExitCode: 101}), 101},
		{"host status", &supervisor.HostExitError{ExitCode: 3}, 3},
		{"host killed by signal", &supervisor.HostExitError{ExitCode: 137, Signaled: true}, 137},
		{"build tool without status", &build.ToolError{Tool: "cargo", Err: errors.New("exec failed")}, types.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 2}).Error(); got != "exit status 2" {
		t.Errorf("Error() = %q", got)
	}
	inner := errors.New("inner")
	exitErr := &ExitError{Code: 2, Err: inner}
	if exitErr.Error() != "inner" || !errors.Is(exitErr, inner) {
		t.Errorf("ExitError does not expose its cause: %v", exitErr)
	}
}
