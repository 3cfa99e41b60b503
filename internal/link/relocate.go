// SPDX-License-Identifier: MPL-2.0

package link

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// Relocate copies artifactPath to <key><ext> in the same directory and
// returns the new path. The copy is written to a temporary file first and
// renamed into place, so a reader never sees a partial library. An artifact
// that already has the final name is returned unchanged.
func Relocate(artifactPath string, key types.PluginKey, pf platform.Platform) (string, error) {
	src, err := filepath.Abs(artifactPath)
	if err != nil {
		return "", &LinkError{Op: "relocate", Path: artifactPath, Cause: err}
	}
	dir := filepath.Dir(src)
	name := pf.PluginFileName(key.String())
	dest := filepath.Join(dir, name)
	if dest == src {
		return dest, nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", &LinkError{Op: "relocate", Path: src, Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", &LinkError{Op: "relocate", Path: dest, Cause: err}
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := copyInto(tmp, src); err != nil {
		return "", &LinkError{Op: "relocate", Path: dest, Cause: err}
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return "", &LinkError{Op: "relocate", Path: dest, Cause: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", &LinkError{Op: "relocate", Path: dest, Cause: err}
	}
	renamed = true
	return dest, nil
}

// copyInto copies the file at src into dst and closes dst.
func copyInto(dst *os.File, src string) (err error) {
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	if _, err := io.Copy(dst, in); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return nil
}
