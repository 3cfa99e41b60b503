// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/testutil"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

type (
	toolCall struct {
		dir  string
		args []string
	}

	// fakeTool records invocations and writes the library files a real
	// build would produce.
	fakeTool struct {
		calls    []toolCall
		produce  map[string][]string // output dir -> file names
		failWith error
	}
)

func (f *fakeTool) Run(_ context.Context, dir string, args []string) error {
	f.calls = append(f.calls, toolCall{dir: dir, args: args})
	if f.failWith != nil {
		return f.failWith
	}
	for outDir, names := range f.produce {
		for _, name := range names {
			path := filepath.Join(outDir, name)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte("lib"), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func noEnv(string) string { return "" }

func singlePlugin(root, key, pkg, lib string) manifest.ExtensionPlugin {
	manifestPath := filepath.Join(root, "Cargo.toml")
	return manifest.ExtensionPlugin{
		Key:          types.PluginKey(key),
		DeclaredPath: "./.",
		Manifest: manifest.ResolvedManifest{
			ManifestPath: manifestPath,
			PackageName:  pkg,
			LibName:      lib,
			CrateTypes:   []string{"cdylib"},
			Layout:       manifest.SinglePackage{ManifestPath: manifestPath},
		},
	}
}

func memberPlugin(wsRoot, member, key string) manifest.ExtensionPlugin {
	manifestPath := filepath.Join(wsRoot, member, "Cargo.toml")
	return manifest.ExtensionPlugin{
		Key: types.PluginKey(key),
		Manifest: manifest.ResolvedManifest{
			ManifestPath: manifestPath,
			PackageName:  member,
			LibName:      member,
			CrateTypes:   []string{"cdylib"},
			Layout: manifest.WorkspaceMember{
				ManifestPath:          manifestPath,
				WorkspaceManifestPath: filepath.Join(wsRoot, "Cargo.toml"),
				MemberPath:            member,
			},
		},
	}
}

func TestPlanSinglePackage(t *testing.T) {
	t.Parallel()

	o := New(&fakeTool{}, platform.PlatformLinux, WithGetenv(noEnv))
	invs := o.Plan([]manifest.ExtensionPlugin{singlePlugin("/p", "reaper_hello", "hello", "hello_ext")}, []string{"--release"})
	if len(invs) != 1 {
		t.Fatalf("Plan() = %d invocations, want 1", len(invs))
	}
	if invs[0].Dir != "/p" {
		t.Errorf("Dir = %q, want /p", invs[0].Dir)
	}
	if want := []string{"build", "--release"}; !reflect.DeepEqual(invs[0].Args, want) {
		t.Errorf("Args = %q, want %q", invs[0].Args, want)
	}
}

func TestPlanWorkspaceGroupsMembers(t *testing.T) {
	t.Parallel()

	plugins := []manifest.ExtensionPlugin{
		memberPlugin("/ws", "alpha", "reaper_alpha"),
		singlePlugin("/solo", "reaper_solo", "solo", "solo"),
		memberPlugin("/ws", "beta", "reaper_beta"),
	}
	o := New(&fakeTool{}, platform.PlatformLinux, WithDefaultArgs([]string{"--locked"}))
	invs := o.Plan(plugins, []string{"--", "-C", "opt-level=3"})
	if len(invs) != 2 {
		t.Fatalf("Plan() = %d invocations, want 2", len(invs))
	}
	want := []string{"build", "--locked", "-p", "alpha", "-p", "beta", "--", "-C", "opt-level=3"}
	if invs[0].Dir != "/ws" || !reflect.DeepEqual(invs[0].Args, want) {
		t.Errorf("workspace invocation = %s %q, want /ws %q", invs[0].Dir, invs[0].Args, want)
	}
	if invs[1].Dir != "/solo" || !reflect.DeepEqual(invs[1].Args, []string{"build", "--locked", "--", "-C", "opt-level=3"}) {
		t.Errorf("single invocation = %s %q", invs[1].Dir, invs[1].Args)
	}
}

func TestPlanRespectsUserPackageFilter(t *testing.T) {
	t.Parallel()

	o := New(&fakeTool{}, platform.PlatformLinux)
	invs := o.Plan([]manifest.ExtensionPlugin{memberPlugin("/ws", "alpha", "reaper_alpha")}, []string{"--workspace"})
	if want := []string{"build", "--workspace"}; !reflect.DeepEqual(invs[0].Args, want) {
		t.Errorf("Args = %q, want %q", invs[0].Args, want)
	}
}

func TestOutputDir(t *testing.T) {
	t.Parallel()

	env := func(v string) func(string) string {
		return func(key string) string {
			if key == TargetDirEnv {
				return v
			}
			return ""
		}
	}
	root := filepath.FromSlash("/proj")
	tests := []struct {
		name   string
		opts   Options
		getenv func(string) string
		want   string
	}{
		{"default", Options{Profile: ProfileDebug}, noEnv, "/proj/target/debug"},
		{"release with target", Options{Profile: ProfileRelease, Target: "x86_64-pc-windows-gnu"}, noEnv, "/proj/target/x86_64-pc-windows-gnu/release"},
		{"env override", Options{Profile: ProfileDebug}, env("/cache/out"), "/cache/out/debug"},
		{"relative env", Options{Profile: ProfileDebug}, env("out"), "/proj/out/debug"},
		{"flag beats env", Options{Profile: ProfileDebug, TargetDir: "/flag"}, env("/cache/out"), "/flag/debug"},
		{"empty profile", Options{}, noEnv, "/proj/target/debug"},
	}
	for _, tt := range tests {
		if got := OutputDir(root, tt.opts, tt.getenv); got != filepath.FromSlash(tt.want) {
			t.Errorf("%s: OutputDir() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildLocatesArtifact(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outDir := filepath.Join(root, "target", "release")
	tool := &fakeTool{produce: map[string][]string{outDir: {"libhello_ext.so"}}}
	o := New(tool, platform.PlatformLinux, WithGetenv(noEnv))

	artifacts, err := o.Build(context.Background(), []manifest.ExtensionPlugin{singlePlugin(root, "reaper_hello", "hello", "hello_ext")}, []string{"--release"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("Build() = %d artifacts, want 1", len(artifacts))
	}
	a := artifacts[0]
	if a.Path != filepath.Join(outDir, "libhello_ext.so") {
		t.Errorf("Path = %q", a.Path)
	}
	if a.Profile != ProfileRelease || a.Platform != platform.PlatformLinux {
		t.Errorf("Profile, Platform = %q, %q", a.Profile, a.Platform)
	}
	if len(tool.calls) != 1 || tool.calls[0].dir != root {
		t.Errorf("tool calls = %+v", tool.calls)
	}
}

func TestBuildCrossTargetUsesTargetPlatform(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	triple := "x86_64-pc-windows-gnu"
	outDir := filepath.Join(root, "target", triple, "debug")
	tool := &fakeTool{produce: map[string][]string{outDir: {"hello_ext.dll"}}}
	o := New(tool, platform.PlatformLinux, WithGetenv(noEnv))

	artifacts, err := o.Build(context.Background(), []manifest.ExtensionPlugin{singlePlugin(root, "reaper_hello", "hello", "hello_ext")}, []string{"--target", triple})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if artifacts[0].Platform != platform.PlatformWindows {
		t.Errorf("Platform = %q, want windows", artifacts[0].Platform)
	}
}

func TestBuildArtifactNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	o := New(&fakeTool{}, platform.PlatformLinux, WithGetenv(noEnv))

	_, err := o.Build(context.Background(), []manifest.ExtensionPlugin{singlePlugin(root, "reaper_hello", "hello", "hello_ext")}, nil)
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("Build() error = %v, want ErrArtifactNotFound", err)
	}
	var nf *ArtifactNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Build() error type = %T", err)
	}
	want := filepath.Join(root, "target", "debug", "libhello_ext.so")
	if len(nf.Tried) != 1 || nf.Tried[0] != want {
		t.Errorf("Tried = %q, want [%q]", nf.Tried, want)
	}
}

func TestBuildStopsOnToolFailure(t *testing.T) {
	t.Parallel()

	failure := &ToolError{Tool: "cargo", ExitCode: 101}
	tool := &fakeTool{failWith: failure}
	o := New(tool, platform.PlatformLinux)
	plugins := []manifest.ExtensionPlugin{
		singlePlugin("/a", "reaper_a", "a", "a"),
		singlePlugin("/b", "reaper_b", "b", "b"),
	}

	_, err := o.Build(context.Background(), plugins, nil)
	if !errors.Is(err, ErrBuildTool) {
		t.Fatalf("Build() error = %v, want ErrBuildTool", err)
	}
	if len(tool.calls) != 1 {
		t.Errorf("tool ran %d times, want 1", len(tool.calls))
	}
}

func TestCleanPackages(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{}
	o := New(tool, platform.PlatformLinux)
	plugins := []manifest.ExtensionPlugin{
		memberPlugin("/ws", "alpha", "reaper_alpha"),
		memberPlugin("/ws", "beta", "reaper_beta"),
	}
	if err := o.CleanPackages(context.Background(), plugins, nil, true); err != nil {
		t.Fatalf("CleanPackages() error = %v", err)
	}
	want := []string{"clean", "--dry-run", "-p", "alpha", "-p", "beta"}
	if len(tool.calls) != 1 || !reflect.DeepEqual(tool.calls[0].args, want) {
		t.Errorf("tool calls = %+v, want one call with %q", tool.calls, want)
	}
}

func TestExecToolExitCode(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the build tool")
	}
	dir := t.TempDir()
	script := testutil.WriteExecutable(t, filepath.Join(dir, "fake-cargo"), "#!/bin/sh\nexit 7\n")

	err := (&ExecTool{Path: script, Stdout: io.Discard, Stderr: io.Discard}).Run(context.Background(), dir, []string{"build"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run() error = %v, want *ToolError", err)
	}
	if toolErr.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", toolErr.ExitCode)
	}
	if toolErr.Err != nil {
		t.Errorf("Err = %v, want nil for a tool that ran", toolErr.Err)
	}
}

func TestExecToolMissingBinary(t *testing.T) {
	t.Parallel()

	err := NewExecTool(filepath.Join(t.TempDir(), "no-such-tool")).Run(context.Background(), t.TempDir(), nil)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run() error = %v, want *ToolError", err)
	}
	if toolErr.Err == nil || toolErr.ExitCode != types.ExitFailure {
		t.Errorf("ToolError = %+v, want a spawn failure with exit code 1", toolErr)
	}
}
