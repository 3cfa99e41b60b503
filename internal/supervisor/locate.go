// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
)

// BinaryName is the host executable looked up on PATH.
const BinaryName = "reaper"

// Locator finds the host executable.
type Locator struct {
	Platform platform.Platform
	Dirs     platform.DirLocator
	GOARCH   string
	LookPath func(string) (string, error)
}

// NewLocator creates a Locator for the current machine.
func NewLocator(pf platform.Platform) *Locator {
	return &Locator{
		Platform: pf,
		Dirs:     platform.OSDirs{},
		GOARCH:   runtime.GOARCH,
		LookPath: exec.LookPath,
	}
}

// Locate returns the first existing executable from: override, configured,
// BinaryName on PATH, then the platform's install locations. An override or
// configured path that does not exist is an error rather than a fallthrough.
func (l *Locator) Locate(override, configured string) (string, error) {
	for _, explicit := range []string{override, configured} {
		if explicit == "" {
			continue
		}
		if isFile(explicit) {
			return explicit, nil
		}
		return "", &ProcessError{Op: "locate", Path: explicit, Err: ErrExecutableNotFound}
	}

	tried := []string{"$PATH/" + BinaryName}
	if l.LookPath != nil {
		if path, err := l.LookPath(BinaryName); err == nil {
			return path, nil
		}
	}
	for _, candidate := range l.Platform.DefaultExecutableCandidates(l.Dirs, l.GOARCH) {
		tried = append(tried, candidate)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", &ProcessError{Op: "locate", Tried: tried, Err: ErrExecutableNotFound}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
