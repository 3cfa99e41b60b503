// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

func configureProcessGroup(*exec.Cmd) {}

// terminate kills the process outright; there is no graceful signal to send.
func terminate(proc *os.Process, exited <-chan struct{}, _ time.Duration) error {
	select {
	case <-exited:
		return nil
	default:
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func exitStatus(ps *os.ProcessState) (types.ExitCode, bool) {
	if ps == nil {
		return types.ExitFailure, false
	}
	return types.ExitCode(ps.ExitCode()), false
}
