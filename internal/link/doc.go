// SPDX-License-Identifier: MPL-2.0

// Package link relocates built plugin libraries to their final names and
// manages the symbolic links that make them visible to the host's
// UserPlugins directory.
//
// Only symbolic links are ever removed from UserPlugins. Any other file found
// where a link should be is reported and left alone.
package link
