// SPDX-License-Identifier: MPL-2.0

package manifest

import "testing"

const spanDoc = `# plugins
[package]
name = "hello"

[lib]
name = "hello_ext"
  crate-type = ["rlib"] # not loadable

[extension_plugins]
reaper_a = "./a"
"reaper_b" = "./b"
`

func TestSourceIndexKey(t *testing.T) {
	t.Parallel()

	idx := indexSource([]byte(spanDoc))
	tests := []struct {
		table, key string
		want       sourcePos
	}{
		{table: "package", key: "name", want: sourcePos{Line: 3, Column: 1, Width: 4}},
		{table: "lib", key: "name", want: sourcePos{Line: 6, Column: 1, Width: 4}},
		{table: "lib", key: "crate-type", want: sourcePos{Line: 7, Column: 3, Width: 10}},
		{table: "extension_plugins", key: "reaper_a", want: sourcePos{Line: 10, Column: 1, Width: 8}},
		// Quoted keys are underlined with their quotes.
		{table: "extension_plugins", key: "reaper_b", want: sourcePos{Line: 11, Column: 1, Width: 10}},
		{table: "lib", key: "path", want: sourcePos{}},
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.key, func(t *testing.T) {
			t.Parallel()

			if got := idx.key(tt.table, tt.key); got != tt.want {
				t.Errorf("key(%q, %q) = %+v, want %+v", tt.table, tt.key, got, tt.want)
			}
		})
	}
}

func TestSourceIndexDottedKeys(t *testing.T) {
	t.Parallel()

	src := []byte(`extension_plugins.reaper_x = "./x"

[package]
name = "member"
license.workspace = true
`)
	idx := indexSource(src)

	if got := idx.key("extension_plugins", "reaper_x"); got != (sourcePos{Line: 1, Column: 1, Width: len("extension_plugins.reaper_x")}) {
		t.Errorf("root dotted key = %+v, want line 1 column 1", got)
	}
	if got := idx.key("package", "license"); got != (sourcePos{Line: 5, Column: 1, Width: len("license")}) {
		t.Errorf("dotted key in table = %+v, want line 5 column 1 width 7", got)
	}
	if got := idx.key("package", "license.workspace"); got.Line != 5 || got.Width != len("license.workspace") {
		t.Errorf("full dotted key = %+v, want line 5 spanning both segments", got)
	}
	if !idx.defines("extension_plugins") {
		t.Error("defines(extension_plugins) = false for a dotted root key")
	}
}

func TestSourceIndexInlineTable(t *testing.T) {
	t.Parallel()

	src := []byte(`extension_plugins = { reaper_zeta = "./z", reaper_alpha = "./a" }`)
	idx := indexSource(src)

	zeta := idx.key("extension_plugins", "reaper_zeta")
	alpha := idx.key("extension_plugins", "reaper_alpha")
	if zeta.Line != 1 || zeta.Column != 23 {
		t.Errorf("reaper_zeta = %+v, want 1:23", zeta)
	}
	if alpha.Line != 1 || alpha.Column <= zeta.Column {
		t.Errorf("reaper_alpha = %+v, want after reaper_zeta on line 1", alpha)
	}
}

func TestSourceIndexTable(t *testing.T) {
	t.Parallel()

	idx := indexSource([]byte(spanDoc))
	if got := idx.table("lib"); got != (sourcePos{Line: 5, Column: 1, Width: len("[lib]")}) {
		t.Errorf("table(lib) = %+v, want 5:1 width 5", got)
	}
	if got := idx.table("workspace"); got.Line != 0 {
		t.Errorf("table(workspace) line = %d, want 0", got.Line)
	}
	if got := indexSource([]byte("[[bin]]\nname = \"x\"\n")).table("bin"); got.Line != 0 {
		t.Errorf("array-of-tables header should not match, got line %d", got.Line)
	}
	if got := indexSource([]byte("[ lib . \"x\" ]\n")).table("lib.x"); got != (sourcePos{Line: 1, Column: 1, Width: len(`[ lib . "x" ]`)}) {
		t.Errorf("table(lib.x) = %+v, want the whole spaced header", got)
	}
}

func TestSourceIndexIgnoresStringContents(t *testing.T) {
	t.Parallel()

	src := []byte(`[package]
name = "hello"
description = """
[lib]
name = "not a table"
"""

[lib]
crate-type = ["cdylib"]
`)
	idx := indexSource(src)
	if got := idx.table("lib"); got.Line != 8 {
		t.Errorf("table(lib) line = %d, want 8 (the real header)", got.Line)
	}
	if got := idx.key("package", "name"); got.Line != 2 {
		t.Errorf("key(package, name) line = %d, want 2", got.Line)
	}
}

func TestSourceLine(t *testing.T) {
	t.Parallel()

	if got := sourceLine([]byte(spanDoc), 3); got != `name = "hello"` {
		t.Errorf("sourceLine(3) = %q", got)
	}
	if got := sourceLine([]byte(spanDoc), 0); got != "" {
		t.Errorf("sourceLine(0) = %q, want empty", got)
	}
	if got := sourceLine([]byte(spanDoc), 100); got != "" {
		t.Errorf("sourceLine(100) = %q, want empty", got)
	}
}
