// SPDX-License-Identifier: MPL-2.0

//go:build unix

package supervisor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// configureProcessGroup puts the child in its own process group so the host
// and anything it or the harness spawns are signalled together.
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// terminate sends SIGTERM to the process group, waits up to grace for exited
// to close, then sends SIGKILL. A group that is already gone is not an error.
func terminate(proc *os.Process, exited <-chan struct{}, grace time.Duration) error {
	pgid := -proc.Pid
	if err := signalGroup(pgid, unix.SIGTERM); err != nil {
		return err
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-exited:
		// The leader is gone; make sure stragglers in the group are too.
		return signalGroup(pgid, unix.SIGKILL)
	case <-timer.C:
	}
	return signalGroup(pgid, unix.SIGKILL)
}

func signalGroup(pgid int, sig unix.Signal) error {
	if err := unix.Kill(pgid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}

// exitStatus reports the shell-style exit code; a signalled process gets
// 128 plus the signal number.
func exitStatus(ps *os.ProcessState) (types.ExitCode, bool) {
	if ps == nil {
		return types.ExitFailure, false
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return types.ExitCodeFromSignal(int(ws.Signal())), true
	}
	return types.ExitCode(ps.ExitCode()), false
}
