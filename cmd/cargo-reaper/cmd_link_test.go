// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/testutil"
)

func TestLinkInfersKeyFromDeclaration(t *testing.T) {
	t.Parallel()
	requireSymlinks(t)

	env := newTestEnv(t)
	dir := t.TempDir()
	lib := testutil.WriteFile(t, filepath.Join(dir, "libhello.so"), "ELF")

	if err := env.execute("link", lib); err != nil {
		t.Fatalf("link error = %v", err)
	}
	target, err := os.Readlink(env.linkPath())
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if filepath.Base(target) != "reaper_hello.so" {
		t.Errorf("link target = %q, want the renamed library", target)
	}
}

func TestLinkKeyFromFileName(t *testing.T) {
	t.Parallel()
	requireSymlinks(t)

	env := newTestEnv(t)
	lib := testutil.WriteFile(t, filepath.Join(t.TempDir(), "reaper_prebuilt.so"), "ELF")

	if err := env.execute("link", lib); err != nil {
		t.Fatalf("link error = %v", err)
	}
	if _, err := os.Lstat(filepath.Join(env.pluginsDir, "reaper_prebuilt.so")); err != nil {
		t.Errorf("link missing: %v", err)
	}
}

func TestLinkExplicitName(t *testing.T) {
	t.Parallel()
	requireSymlinks(t)

	env := newTestEnv(t)
	lib := testutil.WriteFile(t, filepath.Join(t.TempDir(), "whatever.so"), "ELF")

	if err := env.execute("link", "--name", "reaper_named", lib); err != nil {
		t.Fatalf("link error = %v", err)
	}
	if _, err := os.Lstat(filepath.Join(env.pluginsDir, "reaper_named.so")); err != nil {
		t.Errorf("link missing: %v", err)
	}
}

func TestLinkErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dir := t.TempDir()
	unknown := testutil.WriteFile(t, filepath.Join(dir, "libother.so"), "ELF")
	second := testutil.WriteFile(t, filepath.Join(dir, "libsecond.so"), "ELF")

	t.Run("key cannot be inferred", func(t *testing.T) {
		err := env.execute("link", unknown)
		if !errors.Is(err, errCannotInferKey) {
			t.Errorf("link error = %v, want errCannotInferKey", err)
		}
	})

	t.Run("name with several paths", func(t *testing.T) {
		if err := env.execute("link", "--name", "reaper_x", unknown, second); err == nil {
			t.Error("link accepted --name with two paths")
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		if err := env.execute("link", "--name", "not_prefixed", unknown); err == nil {
			t.Error("link accepted a key without the reaper_ prefix")
		}
	})

	t.Run("directory", func(t *testing.T) {
		if err := env.execute("link", "--name", "reaper_x", dir); err == nil {
			t.Error("link accepted a directory")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := env.execute("link", filepath.Join(dir, "nope.so")); err == nil {
			t.Error("link accepted a missing file")
		}
	})
}
