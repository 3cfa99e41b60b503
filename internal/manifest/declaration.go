// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

const (
	// HiddenDeclarationFile is checked before DeclarationFile.
	HiddenDeclarationFile = ".reaper.toml"
	// DeclarationFile is the visible plugin declaration file name.
	DeclarationFile = "reaper.toml"
	// DeclarationTable maps plugin keys to manifest directories.
	DeclarationTable = "extension_plugins"
	// CargoManifestFile is the package manifest file name.
	CargoManifestFile = "Cargo.toml"
)

// DeclarationFileNames lists the recognised declaration files in precedence order.
var DeclarationFileNames = []string{HiddenDeclarationFile, DeclarationFile}

type (
	// Declaration is a loaded plugin declaration file. It is read once per
	// invocation and not modified afterwards.
	Declaration struct {
		// Path is the absolute path of the declaration file.
		Path string
		// Entries are ordered as they appear in the file.
		Entries []DeclarationEntry

		source []byte
	}

	// DeclarationEntry is one "key = path" line of the declaration table.
	DeclarationEntry struct {
		Key types.PluginKey
		// Path is the declared manifest location, relative to the declaration
		// file's directory unless absolute. Empty when Raw is not a string.
		Path string
		// Raw is the decoded TOML value.
		Raw any

		pos sourcePos
	}

	declarationDocument struct {
		ExtensionPlugins map[string]any `toml:"extension_plugins"`
	}
)

// Dir is the directory declared paths are relative to.
func (d *Declaration) Dir() string { return filepath.Dir(d.Path) }

// Keys returns the declared plugin keys in file order.
func (d *Declaration) Keys() []types.PluginKey {
	keys := make([]types.PluginKey, 0, len(d.Entries))
	for _, e := range d.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Lookup returns the entry for key.
func (d *Declaration) Lookup(key types.PluginKey) (DeclarationEntry, bool) {
	for _, e := range d.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return DeclarationEntry{}, false
}

// ManifestPath resolves the entry's Cargo.toml location. A declared path may
// name the directory or the manifest file itself.
func (d *Declaration) ManifestPath(e DeclarationEntry) string {
	p := e.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.Dir(), p)
	}
	p = filepath.Clean(p)
	if filepath.Base(p) == CargoManifestFile {
		return p
	}
	return filepath.Join(p, CargoManifestFile)
}

func (d *Declaration) diagnostic(e DeclarationEntry, diag Diagnostic) Diagnostic {
	return diag.at(d.Path, d.source, e.pos)
}

// FindProjectRoot walks up from start to the first directory containing a
// declaration file.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", &ConfigError{Path: start, Err: err}
	}
	for {
		for _, name := range DeclarationFileNames {
			if fileExists(filepath.Join(dir, name)) {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &ConfigError{
				Path: start,
				Err:  fmt.Errorf("%w: looked for %s or %s in this directory and its parents", ErrDeclarationNotFound, HiddenDeclarationFile, DeclarationFile),
			}
		}
		dir = parent
	}
}

// LoadDeclaration reads the first declaration file found in root, in
// DeclarationFileNames order.
func LoadDeclaration(root string) (*Declaration, error) {
	var path string
	for _, name := range DeclarationFileNames {
		candidate := filepath.Join(root, name)
		if fileExists(candidate) {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, &ConfigError{Path: root, Err: ErrDeclarationNotFound}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ConfigError{Path: abs, Err: fmt.Errorf("read declaration file: %w", err)}
	}
	return ParseDeclaration(abs, src)
}

// ParseDeclaration decodes declaration file contents read from path.
func ParseDeclaration(path string, src []byte) (*Declaration, error) {
	var doc declarationDocument
	if err := toml.Unmarshal(src, &doc); err != nil {
		return nil, decodeConfigError(path, src, err)
	}

	idx := indexSource(src)
	if doc.ExtensionPlugins == nil && !idx.defines(DeclarationTable) {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("missing [%s] table", DeclarationTable)}
	}

	decl := &Declaration{Path: path, source: src}
	for key, raw := range doc.ExtensionPlugins {
		entry := DeclarationEntry{
			Key: types.PluginKey(key),
			Raw: raw,
			pos: idx.key(DeclarationTable, key),
		}
		if s, ok := raw.(string); ok {
			entry.Path = s
		}
		decl.Entries = append(decl.Entries, entry)
	}
	sort.Slice(decl.Entries, func(i, j int) bool {
		a, b := decl.Entries[i], decl.Entries[j]
		if a.pos.Line != b.pos.Line {
			return a.pos.Line < b.pos.Line
		}
		if a.pos.Column != b.pos.Column {
			return a.pos.Column < b.pos.Column
		}
		return a.Key < b.Key
	})
	return decl, nil
}

// decodeConfigError turns a go-toml decode failure into a positioned ConfigError.
func decodeConfigError(path string, src []byte, err error) error {
	diag, ok := decodeDiagnostic(path, src, err)
	if !ok {
		return &ConfigError{Path: path, Err: err}
	}
	return &ConfigError{Path: path, Diagnostic: &diag, Err: err}
}

// decodeDiagnostic locates a go-toml decode failure in src.
func decodeDiagnostic(path string, src []byte, err error) (Diagnostic, bool) {
	var derr *toml.DecodeError
	if !errors.As(err, &derr) {
		return Diagnostic{}, false
	}
	row, col := derr.Position()
	return Diagnostic{
		Code:    CodeManifestParse,
		Message: derr.Error(),
		Label:   "invalid TOML",
	}.at(path, src, sourcePos{Line: row, Column: col, Width: 1}), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
