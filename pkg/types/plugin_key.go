// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// PluginKeyPrefix is required at the start of every extension plugin name.
// The host only loads UserPlugins entries whose file name carries it.
const PluginKeyPrefix = "reaper_"

// ErrInvalidPluginKey is the sentinel error wrapped by InvalidPluginKeyError.
var ErrInvalidPluginKey = errors.New("invalid plugin key")

type (
	// PluginKey is the final name of an extension plugin. It doubles as the
	// file stem of the relocated library and of its UserPlugins entry.
	PluginKey string

	// InvalidPluginKeyError is returned when a PluginKey is missing the
	// required prefix or cannot be used as a file name.
	InvalidPluginKeyError struct {
		Value  PluginKey
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidPluginKeyError) Error() string {
	return fmt.Sprintf("invalid plugin key %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPluginKey for errors.Is() compatibility.
func (e *InvalidPluginKeyError) Unwrap() error { return ErrInvalidPluginKey }

// NewPluginKey returns name as a PluginKey, adding the required prefix when
// it is absent.
func NewPluginKey(name string) PluginKey {
	if strings.HasPrefix(name, PluginKeyPrefix) {
		return PluginKey(name)
	}
	return PluginKey(PluginKeyPrefix + name)
}

// String returns the key as a plain string.
func (k PluginKey) String() string { return string(k) }

// HasPrefix reports whether the key starts with PluginKeyPrefix.
func (k PluginKey) HasPrefix() bool { return strings.HasPrefix(string(k), PluginKeyPrefix) }

// Suggested returns the prefixed form of an invalid key, for help messages.
func (k PluginKey) Suggested() PluginKey { return NewPluginKey(string(k)) }

// Validate returns an error if the key lacks the prefix, has nothing after
// it, or contains path separators.
func (k PluginKey) Validate() error {
	switch {
	case !k.HasPrefix():
		return &InvalidPluginKeyError{Value: k, Reason: "must start with " + PluginKeyPrefix}
	case len(k) == len(PluginKeyPrefix):
		return &InvalidPluginKeyError{Value: k, Reason: "must have a name after " + PluginKeyPrefix}
	case strings.ContainsAny(string(k), `/\`):
		return &InvalidPluginKeyError{Value: k, Reason: "must not contain path separators"}
	}
	return nil
}
