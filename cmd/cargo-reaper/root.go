// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// cargoSubcommand is the argument the build tool inserts when cargo-reaper
// is invoked as `cargo reaper`.
const cargoSubcommand = "reaper"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type rootFlagValues struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "cargo-reaper",
		Short: "A Cargo plugin for developing REAPER extension plugins with Rust",
		Long: TitleStyle.Render("cargo-reaper") + SubtitleStyle.Render(" - develop REAPER extension plugins with Rust") + `

cargo-reaper wraps Cargo with a post-build hook. It renames each compiled
plugin to the ` + "`reaper_`" + `-prefixed name REAPER loads, and symlinks it
into REAPER's UserPlugins directory.

Plugins are declared in a reaper.toml (or .reaper.toml) next to the crate
or workspace:

  [extension_plugins]
  reaper_my_plugin = "./."

` + SubtitleStyle.Render("Examples:") + `
  cargo reaper new my_plugin          Create a new plugin project
  cargo reaper build -- --release     Build, rename and link every plugin
  cargo reaper run --headless -t 10s  Launch REAPER without a display
  cargo reaper clean -a               Remove links and build artifacts`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is <user config dir>/cargo-reaper/config.cue)")

	root.AddCommand(
		newNewCommand(app),
		newListCommand(app),
		newBuildCommand(app),
		newLinkCommand(app),
		newRunCommand(app),
		newCleanCommand(app),
		newCompletionCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// cargoArgs drops the subcommand name the build tool passes when invoked as
// `cargo reaper ...`.
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == cargoSubcommand {
		return args[1:]
	}
	return args
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("error:"), err)
		os.Exit(1)
	}

	root := NewRootCommand(app)
	root.SetArgs(cargoArgs(os.Args[1:]))

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(app.handleError),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM, syscall.SIGHUP),
	); err != nil {
		os.Exit(int(exitCodeFor(err)))
	}
}
