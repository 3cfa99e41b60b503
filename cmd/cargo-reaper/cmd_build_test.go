// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
)

func TestBuildWatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	root := NewRootCommand(env.app)
	root.SilenceErrors = true
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"build", "--watch", "--no-symlink"})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("build --watch error = %v", err)
	}

	if len(env.tool.Calls()) == 0 {
		t.Error("watch mode skipped the initial build")
	}
	out := env.stdout.String()
	if !strings.Contains(out, "initial build") || !strings.Contains(out, "for changes") {
		t.Errorf("stdout = %q", out)
	}
}

func TestWatchRoots(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	s, err := env.app.session(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	decl, plugins, err := env.app.resolvePlugins(s)
	if err != nil {
		t.Fatal(err)
	}
	// A second key for the same package adds no root.
	plugins = append(plugins, manifest.ExtensionPlugin{Key: "reaper_alias", Manifest: plugins[0].Manifest})

	got := watchRoots(decl, plugins)
	want := []string{decl.Dir(), filepath.Join(env.project, "hello")}
	if !slices.Equal(got, want) {
		t.Errorf("watchRoots() = %q, want %q", got, want)
	}
}
