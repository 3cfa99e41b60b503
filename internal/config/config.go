// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/issue"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/cueutil"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "cargo-reaper"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. CARGO_REAPER_RUN_TIMEOUT.
	EnvPrefix = "CARGO_REAPER"

	schemaDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the cargo-reaper configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file location the loader would use for opts,
// whether or not it exists.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgPath, err := FilePath(opts)
	if err != nil {
		return nil, err
	}

	resolvedPath := ""
	switch {
	case fileExists(cfgPath):
		if err := loadCUEIntoViper(v, cfgPath); err != nil {
			return nil, loadError(cfgPath, err,
				"Check that the file contains valid CUE syntax",
				"Run 'cargo reaper config show --defaults' to compare against the defaults")
		}
		resolvedPath = cfgPath
	case opts.ConfigFilePath != "":
		// An explicit --config must exist; the default location may not.
		return nil, loadError(cfgPath, fmt.Errorf("config file not found: %s", cfgPath),
			"Verify the file path is correct",
			"Run 'cargo reaper config init' to create a default config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loadError(cfgPath, fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, loadError(cfgPath, err, "Durations must be non-negative, e.g. \"30s\" or \"1m30s\"")
	}
	cfg.Source = resolvedPath

	return &cfg, nil
}

func loadError(path string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestions(suggestions...).
		Wrap(err).
		BuildError()
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("build.tool", defaults.Build.Tool)
	v.SetDefault("build.args", defaults.Build.Args)
	v.SetDefault("build.watch_debounce", defaults.Build.WatchDebounce)
	v.SetDefault("run.executable", defaults.Run.Executable)
	v.SetDefault("run.timeout", defaults.Run.Timeout)
	v.SetDefault("run.headless_timeout", defaults.Run.HeadlessTimeout)
	v.SetDefault("run.display", defaults.Run.Display)
	v.SetDefault("run.poll_interval", defaults.Run.PollInterval)
	v.SetDefault("run.grace_period", defaults.Run.GracePeriod)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents over the defaults already set in v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, schemaDefinition, data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to dir (the platform
// config directory when empty). It leaves an existing file untouched and
// reports whether a file was written.
func CreateDefaultConfig(dir string) (path string, created bool, err error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", false, err
	}
	path = filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, true, nil
}

// GenerateCUE renders cfg as a config.cue document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// cargo-reaper configuration file\n")
	sb.WriteString("// See https://github.com/Cloud-Scythe-Labs/cargo-reaper for documentation.\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\ttool: %q\n", cfg.Build.Tool)
	if cfg.Build.Args != "" {
		fmt.Fprintf(&sb, "\targs: %q\n", cfg.Build.Args)
	}
	fmt.Fprintf(&sb, "\twatch_debounce: %q\n", durationString(cfg.Build.WatchDebounce))
	sb.WriteString("}\n")

	sb.WriteString("\nrun: {\n")
	if cfg.Run.Executable != "" {
		fmt.Fprintf(&sb, "\texecutable: %q\n", cfg.Run.Executable)
	}
	fmt.Fprintf(&sb, "\ttimeout: %q\n", durationString(cfg.Run.Timeout))
	fmt.Fprintf(&sb, "\theadless_timeout: %q\n", durationString(cfg.Run.HeadlessTimeout))
	if cfg.Run.Display != "" {
		fmt.Fprintf(&sb, "\tdisplay: %q\n", cfg.Run.Display)
	}
	fmt.Fprintf(&sb, "\tpoll_interval: %q\n", durationString(cfg.Run.PollInterval))
	fmt.Fprintf(&sb, "\tgrace_period: %q\n", durationString(cfg.Run.GracePeriod))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func durationString(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	return d.String()
}
