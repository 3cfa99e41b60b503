// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/testutil"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

func builtTestEnv(t *testing.T) *testEnv {
	t.Helper()
	requireSymlinks(t)

	env := newTestEnv(t)
	if err := env.execute("build"); err != nil {
		t.Fatalf("build error = %v", err)
	}
	env.stdout.Reset()
	return env
}

func TestCleanRemovesLinks(t *testing.T) {
	t.Parallel()

	env := builtTestEnv(t)
	if err := env.execute("clean"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Lstat(env.linkPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("link still present: %v", err)
	}
	// Without -a the renamed library stays.
	if _, err := os.Stat(env.relocatedPath(build.ProfileDebug)); err != nil {
		t.Errorf("relocated artifact removed: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Removed 1 symlink(s)") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestCleanDryRun(t *testing.T) {
	t.Parallel()

	env := builtTestEnv(t)
	if err := env.execute("clean", "-n", "-p", "reaper_hello"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Lstat(env.linkPath()); err != nil {
		t.Errorf("dry run removed the link: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "Summary 1 symlink(s)") {
		t.Errorf("stdout = %q, want a summary", out)
	}
	if !strings.Contains(out, "no files deleted due to --dry-run") {
		t.Errorf("stdout = %q, want the dry-run warning", out)
	}
}

func TestCleanRemoveArtifacts(t *testing.T) {
	t.Parallel()

	env := builtTestEnv(t)
	if err := env.execute("clean", "-a"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Stat(env.relocatedPath(build.ProfileDebug)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("relocated artifact still present: %v", err)
	}

	calls := env.tool.Calls()
	last := calls[len(calls)-1]
	if want := []string{"clean", "-p", "hello"}; !slices.Equal(last.Args, want) {
		t.Errorf("tool args = %q, want %q", last.Args, want)
	}
}

func TestCleanRemoveArtifactsDryRun(t *testing.T) {
	t.Parallel()

	env := builtTestEnv(t)
	before := len(env.tool.Calls())
	if err := env.execute("clean", "-a", "--dry-run"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Stat(env.relocatedPath(build.ProfileDebug)); err != nil {
		t.Errorf("dry run removed the artifact: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Would remove") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	// The build tool is asked to report, not remove.
	calls := env.tool.Calls()
	if len(calls) != before+1 {
		t.Fatalf("tool calls = %d, want one clean call", len(calls)-before)
	}
	want := []string{"clean", "--dry-run", "-p", "hello"}
	got := slices.Clone(calls[before].Args)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("tool args = %q, want clean -p hello --dry-run", calls[before].Args)
	}
}

func TestCleanRemovesLinkOfBrokenPackage(t *testing.T) {
	t.Parallel()

	env := builtTestEnv(t)
	// The package loses its [lib] table after the link was made.
	testutil.WriteFile(t, filepath.Join(env.project, "hello", "Cargo.toml"), "[package]\nname = \"hello\"\n")

	if err := env.execute("clean", "-p", "reaper_hello"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Lstat(env.linkPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("link still present: %v", err)
	}

	// Artifact cleanup still needs a valid package.
	var verr *manifest.ValidationError
	if err := env.execute("clean", "-a"); !errors.As(err, &verr) {
		t.Errorf("clean -a error = %v, want a ValidationError", err)
	}
}

func TestCleanKeepsUnmanagedFiles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	testutil.WriteFile(t, env.linkPath(), "installed by hand")

	err := env.execute("clean")
	if !errors.Is(err, link.ErrUnmanagedFile) {
		t.Fatalf("clean error = %v, want ErrUnmanagedFile", err)
	}
	if _, err := os.Stat(env.linkPath()); err != nil {
		t.Errorf("unmanaged file removed: %v", err)
	}
}

func TestCleanUnknownPlugin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := env.execute("clean", "-p", "reaper_hello", "-p", "reaper_nope", "-p", "reaper_gone")

	var unknown *UnknownPluginError
	if !errors.As(err, &unknown) {
		t.Fatalf("clean error = %v, want UnknownPluginError", err)
	}
	if !slices.Equal(unknown.Keys, []string{"reaper_nope", "reaper_gone"}) {
		t.Errorf("Keys = %q", unknown.Keys)
	}
	if !strings.Contains(err.Error(), "cargo reaper list") {
		t.Errorf("error lacks the list tip: %q", err.Error())
	}
}

func TestSelectKeys(t *testing.T) {
	t.Parallel()

	declared := []types.PluginKey{"reaper_a", "reaper_b"}

	all, err := selectKeys(declared, nil)
	if err != nil || !slices.Equal(all, declared) {
		t.Errorf("selectKeys(nil) = %v, %v", all, err)
	}

	got, err := selectKeys(declared, []string{"reaper_b", "reaper_b"})
	if err != nil {
		t.Fatalf("selectKeys() error = %v", err)
	}
	if !slices.Equal(got, []types.PluginKey{"reaper_b"}) {
		t.Errorf("selectKeys() = %v, want reaper_b once", got)
	}

	plugins := []manifest.ExtensionPlugin{{Key: "reaper_a"}, {Key: "reaper_b"}}
	if p := pluginsByKey(plugins, got); len(p) != 1 || p[0].Key != "reaper_b" {
		t.Errorf("pluginsByKey() = %v, want reaper_b", p)
	}
}

func TestLinkThenCleanRoundTrip(t *testing.T) {
	t.Parallel()
	requireSymlinks(t)

	env := newTestEnv(t)
	lib := testutil.WriteFile(t, filepath.Join(t.TempDir(), "libhello.so"), "ELF")
	if err := env.execute("link", lib); err != nil {
		t.Fatalf("link error = %v", err)
	}
	if err := env.execute("clean", "-p", "reaper_hello"); err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if _, err := os.Lstat(env.linkPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("link still present after clean: %v", err)
	}

	// Cleaning again finds nothing and still succeeds.
	env.stdout.Reset()
	if err := env.execute("clean", "-p", "reaper_hello"); err != nil {
		t.Fatalf("second clean error = %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Removed 0 symlink(s)") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
	if err := env.execute("clean", "-p", "reaper_hello", "--strict"); !errors.Is(err, link.ErrNotLinked) {
		t.Errorf("strict clean error = %v, want ErrNotLinked", err)
	}
}
