// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DisplayEnv names the X display of the current session.
	DisplayEnv = "DISPLAY"
	// DefaultDisplay is used when neither a flag nor DisplayEnv gives one.
	DefaultDisplay = ":99"

	defaultDisplayNum = 99
)

// Display is an X server number. The zero Display is unset, which is not
// the same as display :0.
type Display struct {
	num int
	set bool
}

// NewDisplay returns the display for server number n.
func NewDisplay(n int) Display { return Display{num: n, set: true} }

// ParseDisplay accepts ":99", "99", ":99.0" and "host:99".
func ParseDisplay(s string) (Display, error) {
	v := strings.TrimSpace(s)
	if i := strings.LastIndex(v, ":"); i >= 0 {
		v = v[i+1:]
	}
	if i := strings.Index(v, "."); i >= 0 {
		v = v[:i]
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return Display{}, fmt.Errorf("invalid display %q", s)
	}
	return NewDisplay(n), nil
}

// ResolveDisplay picks the flag value, then DisplayEnv, then DefaultDisplay.
func ResolveDisplay(flag string, getenv func(string) string) (Display, error) {
	if flag != "" {
		return ParseDisplay(flag)
	}
	if getenv != nil {
		if env := getenv(DisplayEnv); env != "" {
			return ParseDisplay(env)
		}
	}
	return NewDisplay(defaultDisplayNum), nil
}

// IsSet reports whether d names a server.
func (d Display) IsSet() bool { return d.set }

// Num returns the server number, or -1 when d is unset.
func (d Display) Num() int {
	if !d.set {
		return -1
	}
	return d.num
}

// String returns the DISPLAY form, e.g. ":99", or "" when unset.
func (d Display) String() string {
	if !d.set {
		return ""
	}
	return ":" + strconv.Itoa(d.num)
}

// ServerNum returns the bare server number.
func (d Display) ServerNum() string { return strconv.Itoa(d.num) }

// orDefault returns d, or DefaultDisplay when d is unset.
func (d Display) orDefault() Display {
	if d.set {
		return d
	}
	return NewDisplay(defaultDisplayNum)
}
