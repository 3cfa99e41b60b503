// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// CargoPackage describes a Cargo.toml fixture.
type CargoPackage struct {
	Name        string
	Version     string
	Description string
	Authors     []string
	// LibName is written as [lib].name when set.
	LibName string
	// CrateTypes is written as [lib].crate-type. A nil slice with NoLib
	// unset writes ["cdylib"].
	CrateTypes []string
	// NoLib omits the [lib] section entirely.
	NoLib bool
	// Extra is appended verbatim.
	Extra string
}

// Manifest renders the fixture as TOML.
func (p CargoPackage) Manifest() string {
	var sb strings.Builder
	sb.WriteString("[package]\n")
	fmt.Fprintf(&sb, "name = %q\n", p.Name)
	version := p.Version
	if version == "" {
		version = "0.1.0"
	}
	fmt.Fprintf(&sb, "version = %q\n", version)
	if p.Description != "" {
		fmt.Fprintf(&sb, "description = %q\n", p.Description)
	}
	if len(p.Authors) > 0 {
		fmt.Fprintf(&sb, "authors = [%s]\n", quoteAll(p.Authors))
	}
	sb.WriteString("edition = \"2021\"\n")
	if !p.NoLib {
		sb.WriteString("\n[lib]\n")
		if p.LibName != "" {
			fmt.Fprintf(&sb, "name = %q\n", p.LibName)
		}
		kinds := p.CrateTypes
		if kinds == nil {
			kinds = []string{"cdylib"}
		}
		fmt.Fprintf(&sb, "crate-type = [%s]\n", quoteAll(kinds))
	}
	if p.Extra != "" {
		sb.WriteString("\n" + p.Extra + "\n")
	}
	return sb.String()
}

// WriteCargoPackage writes dir/Cargo.toml and returns the manifest path.
func WriteCargoPackage(t testing.TB, dir string, p CargoPackage) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, "Cargo.toml"), p.Manifest())
}

// WriteDeclaration writes root/reaper.toml declaring the given entries, in
// the order given as alternating key, path pairs.
func WriteDeclaration(t testing.TB, root string, pairs ...string) string {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("WriteDeclaration needs key/path pairs, got %d values", len(pairs))
	}
	var sb strings.Builder
	sb.WriteString("[extension_plugins]\n")
	for i := 0; i < len(pairs); i += 2 {
		fmt.Fprintf(&sb, "%s = %q\n", pairs[i], pairs[i+1])
	}
	return WriteFile(t, filepath.Join(root, "reaper.toml"), sb.String())
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
