// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigInit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.execute("config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	path := filepath.Join(env.home, "cargo-reaper", "config.cue")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if !strings.Contains(env.stdout.String(), "Created default configuration") {
		t.Errorf("stdout = %q", env.stdout.String())
	}

	env.stdout.Reset()
	if err := env.execute("config", "init"); err != nil {
		t.Fatalf("second config init error = %v", err)
	}
	if !strings.Contains(env.stdout.String(), "already exists") {
		t.Errorf("stdout = %q", env.stdout.String())
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.execute("config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, filepath.Join(env.home, "cargo-reaper", "config.cue")) {
		t.Errorf("stdout = %q, want the config file path", out)
	}
	if !strings.Contains(out, "not created yet") {
		t.Errorf("stdout = %q, want the missing-file hint", out)
	}
	if !strings.Contains(out, env.pluginsDir) {
		t.Errorf("stdout = %q, want the UserPlugins directory", out)
	}
}

func TestConfigPathOverride(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	custom := filepath.Join(t.TempDir(), "custom.cue")
	if err := env.execute("--config", custom, "config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(env.stdout.String(), custom) {
		t.Errorf("stdout = %q, want %s", env.stdout.String(), custom)
	}
}

func TestConfigShowAndDump(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.cfg.Build.Tool = "cross"
	env.cfg.Run.Timeout = 45 * time.Second

	if err := env.execute("config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	show := env.stdout.String()
	for _, want := range []string{"Current Configuration", "(using defaults)", "tool: cross", "timeout: 45s"} {
		if !strings.Contains(show, want) {
			t.Errorf("config show missing %q:\n%s", want, show)
		}
	}

	env.stdout.Reset()
	if err := env.execute("config", "dump"); err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	dump := env.stdout.String()
	if !strings.Contains(dump, `"cross"`) {
		t.Errorf("config dump does not carry the effective tool:\n%s", dump)
	}
}
