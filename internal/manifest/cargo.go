// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DynamicLibraryKind is the crate type the host can load.
const DynamicLibraryKind = "cdylib"

// inheritableFields are the [package] fields a member may take from
// [workspace.package] with `field = { workspace = true }`.
var inheritableFields = []string{
	"version", "authors", "description", "edition", "license",
	"repository", "homepage", "rust-version",
}

type (
	// cargoManifest is the subset of Cargo.toml the resolver reads. [package]
	// is kept untyped because any inheritable field may be a workspace marker.
	cargoManifest struct {
		Package   map[string]any  `toml:"package"`
		Lib       *cargoLib       `toml:"lib"`
		Workspace *cargoWorkspace `toml:"workspace"`
	}

	cargoLib struct {
		Name            string   `toml:"name"`
		Path            string   `toml:"path"`
		CrateType       []string `toml:"crate-type"`
		LegacyCrateType []string `toml:"crate_type"`
	}

	cargoWorkspace struct {
		Members []string       `toml:"members"`
		Exclude []string       `toml:"exclude"`
		Package map[string]any `toml:"package"`
	}

	// manifestFile is a parsed Cargo.toml together with its source, kept so
	// diagnostics can quote it.
	manifestFile struct {
		path   string
		source []byte
		doc    cargoManifest
	}
)

// readManifest parses the Cargo.toml at path. The returned Diagnostic is set
// when the file exists but cannot be decoded.
func readManifest(path string) (*manifestFile, *Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	mf := &manifestFile{path: path, source: src}
	if err := toml.Unmarshal(src, &mf.doc); err != nil {
		diag, ok := decodeDiagnostic(path, src, err)
		if !ok {
			diag = Diagnostic{
				Code:    CodeManifestParse,
				Message: fmt.Sprintf("failed to parse manifest: %v", err),
			}.at(path, src, sourcePos{})
		}
		return nil, &diag, nil
	}
	return mf, nil, nil
}

func (m *manifestFile) dir() string { return filepath.Dir(m.path) }

func (m *manifestFile) isPackage() bool { return m.doc.Package != nil }

func (m *manifestFile) isWorkspace() bool { return m.doc.Workspace != nil }

func (m *manifestFile) packageName() string {
	name, _ := m.doc.Package["name"].(string)
	return name
}

// crateTypes returns the library kinds, accepting the legacy spelling.
func (m *manifestFile) crateTypes() []string {
	if m.doc.Lib == nil {
		return nil
	}
	if len(m.doc.Lib.CrateType) > 0 {
		return m.doc.Lib.CrateType
	}
	return m.doc.Lib.LegacyCrateType
}

// libName returns the library target name, defaulting like the build tool
// does to the package name with dashes replaced by underscores.
func (m *manifestFile) libName() string {
	if m.doc.Lib != nil && m.doc.Lib.Name != "" {
		return m.doc.Lib.Name
	}
	return strings.ReplaceAll(m.packageName(), "-", "_")
}

func (m *manifestFile) diag(table, key string, d Diagnostic) Diagnostic {
	idx := indexSource(m.source)
	var pos sourcePos
	if key != "" {
		pos = idx.key(table, key)
	}
	if pos.Line == 0 {
		pos = idx.table(table)
	}
	return d.at(m.path, m.source, pos)
}

// isInheritMarker reports whether v is `{ workspace = true }`.
func isInheritMarker(v any) bool {
	t, ok := v.(map[string]any)
	if !ok {
		return false
	}
	inherit, _ := t["workspace"].(bool)
	return inherit
}

// mergePackage resolves member [package] fields against the workspace's
// [workspace.package]. Explicit member values always win; inherited values
// are copied only where the member asks for them.
func mergePackage(member *manifestFile, ws *manifestFile) (map[string]any, []Diagnostic) {
	merged := make(map[string]any, len(member.doc.Package))
	var diags []Diagnostic
	var wsPackage map[string]any
	if ws != nil && ws.doc.Workspace != nil {
		wsPackage = ws.doc.Workspace.Package
	}
	for key, value := range member.doc.Package {
		if !isInheritMarker(value) {
			merged[key] = value
			continue
		}
		if !slices.Contains(inheritableFields, key) {
			diags = append(diags, member.diag("package", key, Diagnostic{
				Code:    CodeInheritance,
				Message: fmt.Sprintf("`package.%s` cannot be inherited from a workspace", key),
				Label:   "not an inheritable field",
			}))
			continue
		}
		if ws == nil {
			diags = append(diags, member.diag("package", key, Diagnostic{
				Code:    CodeInheritance,
				Message: fmt.Sprintf("`package.%s` is inherited but the package is not in a workspace", key),
				Label:   "no enclosing workspace",
				Help:    fmt.Sprintf("set `%s` directly or add the package to a workspace's `members`", key),
			}))
			continue
		}
		inherited, ok := wsPackage[key]
		if !ok {
			diags = append(diags, member.diag("package", key, Diagnostic{
				Code:    CodeInheritance,
				Message: fmt.Sprintf("`package.%s` is inherited but `workspace.package.%s` is not set", key, key),
				Label:   "inherited from " + ws.path,
				Help:    fmt.Sprintf("add `%s` to `[workspace.package]`", key),
			}))
			continue
		}
		merged[key] = inherited
	}
	return merged, diags
}

func stringField(pkg map[string]any, key string) string {
	s, _ := pkg[key].(string)
	return s
}

func stringsField(pkg map[string]any, key string) []string {
	switch v := pkg[key].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
