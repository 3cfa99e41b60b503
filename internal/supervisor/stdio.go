// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"fmt"
	"strings"
)

const (
	// StdioInherit connects the stream to the supervisor's own.
	StdioInherit StdioMode = "inherit"
	// StdioNull connects the stream to the null device.
	StdioNull StdioMode = "null"
	// StdioPiped captures the stream. Captured output is returned in the
	// Outcome; a piped stdin stays open and empty.
	StdioPiped StdioMode = "piped"
)

// StdioMode routes one standard stream of the host process. It satisfies
// pflag.Value so it can back a command-line flag directly.
type StdioMode string

// ParseStdioMode accepts inherit, null (or discard) and piped (or pipe).
func ParseStdioMode(s string) (StdioMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inherit":
		return StdioInherit, nil
	case "null", "discard":
		return StdioNull, nil
	case "piped", "pipe":
		return StdioPiped, nil
	default:
		return "", fmt.Errorf("invalid stdio mode %q (expected inherit, null or piped)", s)
	}
}

// String returns the mode name.
func (m StdioMode) String() string {
	if m == "" {
		return string(StdioInherit)
	}
	return string(m)
}

// Set parses s into m.
func (m *StdioMode) Set(s string) error {
	parsed, err := ParseStdioMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type names the flag value kind in help output.
func (*StdioMode) Type() string { return "mode" }
