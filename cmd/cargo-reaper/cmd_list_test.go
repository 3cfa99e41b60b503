// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/testutil"
)

func TestListText(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.execute("list"); err != nil {
		t.Fatalf("list error = %v", err)
	}

	out := env.stdout.String()
	for _, want := range []string{
		"Available Plugins:",
		"hello v1.2.0 -- Says hello",
		"Authored by: Ada, Grace",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestListSortsByName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	testutil.WriteCargoPackage(t, filepath.Join(env.project, "aardvark"), testutil.CargoPackage{Name: "aardvark"})
	testutil.WriteDeclaration(t, env.project, "reaper_hello", "./hello", "reaper_aardvark", "./aardvark")

	if err := env.execute("list", "--format", "json"); err != nil {
		t.Fatalf("list error = %v", err)
	}
	var entries []listEntry
	if err := json.Unmarshal(env.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("list json is invalid: %v\n%s", err, env.stdout.String())
	}
	if len(entries) != 2 || entries[0].Name != "aardvark" || entries[1].Name != "hello" {
		t.Errorf("entries = %+v, want aardvark then hello", entries)
	}
}

func TestListJSONWithLinks(t *testing.T) {
	t.Parallel()
	requireSymlinks(t)

	env := newTestEnv(t)
	if err := env.execute("build"); err != nil {
		t.Fatalf("build error = %v", err)
	}
	env.stdout.Reset()

	if err := env.execute("list", "--format", "json", "--linked"); err != nil {
		t.Fatalf("list error = %v", err)
	}
	var entries []listEntry
	if err := json.Unmarshal(env.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("list json is invalid: %v\n%s", err, env.stdout.String())
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Key != "reaper_hello" || got.Version != "1.2.0" {
		t.Errorf("entry = %+v", got)
	}
	if got.Link == nil || !got.Link.Linked {
		t.Fatalf("link = %+v, want linked", got.Link)
	}
	if got.Link.Path != env.linkPath() {
		t.Errorf("link path = %q, want %q", got.Link.Path, env.linkPath())
	}
}

func TestListYAML(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.execute("list", "--format", "yaml"); err != nil {
		t.Fatalf("list error = %v", err)
	}
	var entries []listEntry
	if err := yaml.Unmarshal(env.stdout.Bytes(), &entries); err != nil {
		t.Fatalf("list yaml is invalid: %v\n%s", err, env.stdout.String())
	}
	if len(entries) != 1 || entries[0].Key != "reaper_hello" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].Link != nil {
		t.Error("link status reported without --linked")
	}
}

func TestListInvalidFormat(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.execute("list", "--format", "xml"); err == nil {
		t.Fatal("list accepted an unknown format")
	}
}
