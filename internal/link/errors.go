// SPDX-License-Identifier: MPL-2.0

package link

import (
	"errors"
	"fmt"
)

var (
	// ErrLink is the sentinel wrapped by LinkError.
	ErrLink = errors.New("plugin link error")
	// ErrUserPluginsMissing is returned when the host has never created its
	// UserPlugins directory.
	ErrUserPluginsMissing = errors.New("UserPlugins directory does not exist")
	// ErrUnmanagedFile is returned when a regular file or directory occupies
	// the path a link would use.
	ErrUnmanagedFile = errors.New("path is not a symbolic link")
	// ErrNotLinked is returned by a strict Remove when no link exists.
	ErrNotLinked = errors.New("plugin is not linked")
	// ErrSymlinkPrivilege is returned when the OS refuses to create a
	// symbolic link for lack of privilege.
	ErrSymlinkPrivilege = errors.New("insufficient privilege to create symbolic links")
)

// LinkError reports a failed filesystem operation on a plugin file or link.
type LinkError struct {
	Op    string
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap exposes ErrLink and the cause.
func (e *LinkError) Unwrap() []error { return []error{ErrLink, e.Cause} }
