// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

type (
	// ResolvedManifest is the validated package behind one declared plugin,
	// with workspace-inherited fields already merged in.
	ResolvedManifest struct {
		ManifestPath string
		PackageName  string
		Version      string
		Authors      []string
		Description  string
		// LibName is the library target name the build tool names the
		// artifact after.
		LibName    string
		CrateTypes []string
		Layout     Layout
	}

	// ExtensionPlugin pairs a declaration entry with its resolved manifest.
	// It is the unit of work for building and linking.
	ExtensionPlugin struct {
		Key          types.PluginKey
		DeclaredPath string
		Manifest     ResolvedManifest
	}

	// Resolver validates declarations against the package manifests they
	// reference. It only reads the filesystem.
	Resolver struct {
		logger *log.Logger
	}
)

// NewResolver creates a Resolver. A nil logger discards debug output.
func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{logger: logger}
}

// Load finds the project root from start, reads its declaration file and
// resolves every entry.
func (r *Resolver) Load(start string) (*Declaration, []ExtensionPlugin, error) {
	root, err := FindProjectRoot(start)
	if err != nil {
		return nil, nil, err
	}
	decl, err := LoadDeclaration(root)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Debug("loaded plugin declarations", "path", decl.Path, "entries", len(decl.Entries))
	plugins, err := r.Resolve(decl)
	if err != nil {
		return decl, nil, err
	}
	return decl, plugins, nil
}

// Resolve validates every entry of decl and returns one ExtensionPlugin per
// key in declaration order. Problems are collected across all entries and
// returned together as a *ValidationError; no plugins are returned then.
func (r *Resolver) Resolve(decl *Declaration) ([]ExtensionPlugin, error) {
	locator := newWorkspaceLocator()
	plugins := make([]ExtensionPlugin, 0, len(decl.Entries))
	var diags []Diagnostic

	for _, entry := range decl.Entries {
		plugin, entryDiags := r.resolveEntry(decl, entry, locator)
		diags = append(diags, entryDiags...)
		if len(entryDiags) == 0 {
			plugins = append(plugins, plugin)
		}
	}

	diags = append(diags, ambiguities(decl, plugins)...)

	if len(diags) > 0 {
		return nil, &ValidationError{Diagnostics: diags}
	}
	return plugins, nil
}

func (r *Resolver) resolveEntry(decl *Declaration, entry DeclarationEntry, locator *workspaceLocator) (ExtensionPlugin, []Diagnostic) {
	var diags []Diagnostic

	if err := entry.Key.Validate(); err != nil {
		diags = append(diags, decl.diagnostic(entry, Diagnostic{
			Code:    CodeInvalidKey,
			Message: "Invalid extension plugin name",
			Label:   fmt.Sprintf("extension plugins must be prefixed by `%s` to be recognized", types.PluginKeyPrefix),
			Help:    fmt.Sprintf("consider changing this to `%s`", entry.Key.Suggested()),
		}))
	}

	if entry.Path == "" {
		return ExtensionPlugin{}, append(diags, decl.diagnostic(entry, Diagnostic{
			Code:    CodeInvalidPath,
			Message: fmt.Sprintf("`%s` must map to a manifest directory", entry.Key),
			Label:   fmt.Sprintf("expected a path string, found %T", entry.Raw),
			Help:    fmt.Sprintf(`use %s = "./path/to/crate"`, entry.Key),
		}))
	}

	manifestPath := decl.ManifestPath(entry)
	mf, parseDiag, err := readManifest(manifestPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ExtensionPlugin{}, append(diags, decl.diagnostic(entry, Diagnostic{
			Code:    CodeManifestMissing,
			Message: fmt.Sprintf("manifest for `%s` not found: %s", entry.Key, manifestPath),
			Label:   "no Cargo.toml at this path",
		}))
	case err != nil:
		return ExtensionPlugin{}, append(diags, decl.diagnostic(entry, Diagnostic{
			Code:    CodeManifestMissing,
			Message: fmt.Sprintf("failed to read manifest for `%s`: %v", entry.Key, err),
		}))
	case parseDiag != nil:
		return ExtensionPlugin{}, append(diags, *parseDiag)
	}

	if !mf.isPackage() {
		d := mf.diag("workspace", "", Diagnostic{
			Code:    CodeNotAPackage,
			Message: fmt.Sprintf("`%s` is not a package", entry.Key),
			Label:   "expected manifest path to a package containing a dynamic library target",
			Help:    "is this a workspace? point the key at one of its members",
		})
		return ExtensionPlugin{}, append(diags, d)
	}

	if mf.packageName() == "" {
		diags = append(diags, mf.diag("package", "", Diagnostic{
			Code:    CodeNotAPackage,
			Message: fmt.Sprintf("`%s` package has no name", entry.Key),
			Help:    `add name = "<...>" to [package]`,
		}))
	}

	if mf.doc.Lib == nil {
		diags = append(diags, mf.diag("package", "", Diagnostic{
			Code:    CodeMissingLibrary,
			Message: fmt.Sprintf("`%s` does not contain a library target", entry.Key),
			Help:    "add the `[lib]` target attribute",
		}))
	} else if !slices.Contains(mf.crateTypes(), DynamicLibraryKind) {
		key := "crate-type"
		if len(mf.doc.Lib.CrateType) == 0 && len(mf.doc.Lib.LegacyCrateType) > 0 {
			key = "crate_type"
		}
		diags = append(diags, mf.diag("lib", key, Diagnostic{
			Code:    CodeNotDynamicLibrary,
			Message: fmt.Sprintf("`%s` is not a dynamic library", entry.Key),
			Label:   "extension plugins must be dynamic libraries to be recognized",
			Help:    fmt.Sprintf("add `crate-type = [%q]`", DynamicLibraryKind),
		}))
	}

	layout, ws := locator.layoutFor(mf)
	pkg, inheritDiags := mergePackage(mf, ws)
	diags = append(diags, inheritDiags...)

	if len(diags) > 0 {
		return ExtensionPlugin{}, diags
	}

	plugin := ExtensionPlugin{
		Key:          entry.Key,
		DeclaredPath: entry.Path,
		Manifest: ResolvedManifest{
			ManifestPath: mf.path,
			PackageName:  mf.packageName(),
			Version:      stringField(pkg, "version"),
			Authors:      stringsField(pkg, "authors"),
			Description:  stringField(pkg, "description"),
			LibName:      mf.libName(),
			CrateTypes:   slices.Clone(mf.crateTypes()),
			Layout:       layout,
		},
	}
	r.logger.Debug("resolved plugin",
		"key", plugin.Key,
		"package", plugin.Manifest.PackageName,
		"lib", plugin.Manifest.LibName,
		"layout", layout.Kind(),
		"root", layout.BuildRoot())
	return plugin, nil
}

// ambiguities reports packages claimed by more than one key. Building one
// package under two final names would leave the host loading it twice.
func ambiguities(decl *Declaration, plugins []ExtensionPlugin) []Diagnostic {
	type pkgID struct{ root, name string }
	owners := make(map[pkgID]types.PluginKey, len(plugins))
	var diags []Diagnostic
	for _, p := range plugins {
		id := pkgID{root: p.Manifest.Layout.BuildRoot(), name: p.Manifest.PackageName}
		first, seen := owners[id]
		if !seen {
			owners[id] = p.Key
			continue
		}
		entry, _ := decl.Lookup(p.Key)
		diags = append(diags, decl.diagnostic(entry, Diagnostic{
			Code:    CodeAmbiguous,
			Message: fmt.Sprintf("package `%s` is declared by both `%s` and `%s`", p.Manifest.PackageName, first, p.Key),
			Label:   "duplicate plugin package",
			Help:    "declare each package under exactly one key",
		}))
	}
	return diags
}
