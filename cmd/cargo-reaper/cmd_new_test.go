// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/scaffold"
)

func TestNewCreatesProject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "my-plugin")

	if err := env.execute("new", "--no-git", dir); err != nil {
		t.Fatalf("new error = %v", err)
	}
	for _, f := range []string{"Cargo.toml", "reaper.toml", filepath.Join("src", "lib.rs")} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("%s missing: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); !errors.Is(err, os.ErrNotExist) {
		t.Error("--no-git still initialised a repository")
	}
	out := env.stdout.String()
	if !strings.Contains(out, "Created") || !strings.Contains(out, "reaper_my_plugin") {
		t.Errorf("stdout = %q", out)
	}
}

func TestNewVSTTemplate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "gain")

	if err := env.execute("new", "--no-git", "--template", "vst", dir); err != nil {
		t.Fatalf("new error = %v", err)
	}
	lib, err := os.ReadFile(filepath.Join(dir, "src", "lib.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(lib), "vst::plugin_main!") {
		t.Errorf("src/lib.rs is not the vst template:\n%s", lib)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	if err := env.execute("new", "--no-git", env.project); !errors.Is(err, scaffold.ErrPathExists) {
		t.Errorf("new on existing path error = %v, want ErrPathExists", err)
	}
	if err := env.execute("new", "--template", "clap", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("new accepted an unknown template")
	}
	if err := env.execute("new"); err == nil {
		t.Error("new accepted a missing path")
	}
}
