// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/config"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/issue"
)

// newConfigCommand creates the `cargo-reaper config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cargo-reaper configuration",
		Long: `Manage cargo-reaper configuration.

Configuration is stored in:
  - Linux: ~/.config/cargo-reaper/config.cue
  - macOS: ~/Library/Application Support/cargo-reaper/config.cue
  - Windows: %APPDATA%\cargo-reaper\config.cue

Every value can be overridden from the environment, e.g.
` + config.EnvPrefix + `_RUN_TIMEOUT=30s or ` + config.EnvPrefix + `_BUILD_TOOL=cross.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	s, err := app.session(ctx)
	if err != nil {
		return err
	}
	cfg := s.cfg
	w := app.stdout

	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(v string) string {
		if v == "" {
			return SubtitleStyle.Render("(not set)")
		}
		return valueStyle.Render(v)
	}
	duration := func(d time.Duration) string {
		if d == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(d.String())
	}

	fmt.Fprintln(w, headerStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("build"))
	fmt.Fprintf(w, "  tool: %s\n", value(cfg.Build.Tool))
	fmt.Fprintf(w, "  args: %s\n", value(cfg.Build.Args))
	fmt.Fprintf(w, "  watch_debounce: %s\n", duration(cfg.Build.WatchDebounce))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("run"))
	fmt.Fprintf(w, "  executable: %s\n", value(cfg.Run.Executable))
	fmt.Fprintf(w, "  timeout: %s\n", duration(cfg.Run.Timeout))
	fmt.Fprintf(w, "  headless_timeout: %s\n", duration(cfg.Run.HeadlessTimeout))
	fmt.Fprintf(w, "  display: %s\n", value(cfg.Run.Display))
	fmt.Fprintf(w, "  poll_interval: %s\n", duration(cfg.Run.PollInterval))
	fmt.Fprintf(w, "  grace_period: %s\n", duration(cfg.Run.GracePeriod))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func initConfig(app *App) error {
	path, created, err := config.CreateDefaultConfig(app.configDir)
	if err != nil {
		return newServiceError(err, issue.ConfigLoadFailedId, "")
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	if !fileExistsCheck(path) {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(not created yet; run `cargo reaper config init`)"))
	}

	if dir, err := app.Platform.UserPluginsDir(app.dirs); err == nil {
		fmt.Fprintf(app.stdout, "UserPlugins directory: %s\n", dir)
	}
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
