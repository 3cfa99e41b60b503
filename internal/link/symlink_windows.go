// SPDX-License-Identifier: MPL-2.0

//go:build windows

package link

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// symlinkError flags the privilege failure Windows reports when Developer
// Mode is off and the process is not elevated.
func symlinkError(err error) error {
	if errors.Is(err, windows.ERROR_PRIVILEGE_NOT_HELD) {
		return fmt.Errorf("%w: %w", ErrSymlinkPrivilege, err)
	}
	return err
}
