// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/config"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/issue"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
)

const logPrefix = "cargo-reaper"

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and reaches
	// the resolver, orchestrator, link manager and supervisor through it.
	App struct {
		Config   ConfigProvider
		Platform platform.Platform

		dirs       platform.DirLocator
		configDir  string
		getwd      func() (string, error)
		getenv     func(string) string
		newTool    ToolFactory
		supervisor []supervisor.Option
		lookPath   func(string) (string, error)

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		flags rootFlagValues
		// logger is replaced by session once flags and config are known.
		logger *log.Logger
		scheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Platform platform.Platform
		// Dirs locates the home and config directories the UserPlugins
		// directory and the default host install paths derive from.
		Dirs platform.DirLocator
		// ConfigDir overrides the tool configuration directory.
		ConfigDir string
		Getwd     func() (string, error)
		Getenv    func(string) string
		Tool      ToolFactory
		// SupervisorOptions are applied before the logger and stdio options.
		SupervisorOptions []supervisor.Option
		LookPath          func(string) (string, error)

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ToolFactory creates the build tool runner for the configured tool
	// path. Tool output goes to stdout and stderr.
	ToolFactory func(path string, stdout, stderr io.Writer) build.Tool

	// session is the per-invocation state derived from flags and the tool
	// configuration.
	session struct {
		cfg     *config.Config
		logger  *log.Logger
		verbose bool
		workDir string
	}
)

// NewApp creates the CLI composition root.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Platform == "" {
		pf, err := platform.Current()
		if err != nil {
			return nil, err
		}
		deps.Platform = pf
	}
	if deps.Dirs == nil {
		deps.Dirs = platform.OSDirs{}
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Tool == nil {
		deps.Tool = newExecTool
	}

	return &App{
		Config:     deps.Config,
		Platform:   deps.Platform,
		dirs:       deps.Dirs,
		configDir:  deps.ConfigDir,
		getwd:      deps.Getwd,
		getenv:     deps.Getenv,
		newTool:    deps.Tool,
		supervisor: deps.SupervisorOptions,
		lookPath:   deps.LookPath,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		logger:     newLogger(deps.Stderr, false),
		scheme:     config.ColorSchemeAuto,
	}, nil
}

func newExecTool(path string, stdout, stderr io.Writer) build.Tool {
	t := build.NewExecTool(path)
	t.Stdout = stdout
	t.Stderr = stderr
	return t
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: logPrefix,
		Level:  level,
	})
}

// loadOptions maps the global flags to config loading options.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		ConfigDirPath:  a.configDir,
	}
}

// session loads the tool configuration and builds the logger for one
// command invocation.
func (a *App) session(ctx context.Context) (*session, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, newServiceError(err, issue.ConfigLoadFailedId, "")
	}

	verbose := a.flags.verbose || cfg.UI.Verbose
	a.logger = newLogger(a.stderr, verbose)
	a.scheme = cfg.UI.ColorScheme
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}

	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	a.logger.Debug("loaded configuration", "source", cfg.Source, "tool", cfg.Build.Tool, "platform", a.Platform)
	return &session{cfg: cfg, logger: a.logger, verbose: verbose, workDir: wd}, nil
}

// loadDeclaration finds and reads the declaration governing the session's
// working directory without resolving any package manifest.
func (a *App) loadDeclaration(s *session) (*manifest.Declaration, error) {
	root, err := manifest.FindProjectRoot(s.workDir)
	if err != nil {
		return nil, err
	}
	return manifest.LoadDeclaration(root)
}

// resolvePlugins loads and validates the declaration governing the
// session's working directory.
func (a *App) resolvePlugins(s *session) (*manifest.Declaration, []manifest.ExtensionPlugin, error) {
	return manifest.NewResolver(s.logger).Load(s.workDir)
}

// orchestrator creates the build orchestrator for the configured tool.
func (a *App) orchestrator(s *session) (*build.Orchestrator, error) {
	defaults, err := build.SplitArgs(s.cfg.Build.Args)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse build.args").
			WithResource(s.cfg.Source).
			WithSuggestion("quote arguments the way a POSIX shell would").
			Wrap(err).
			BuildError()
	}
	tool := a.newTool(s.cfg.Build.Tool, a.stdout, a.stderr)
	return build.New(tool, a.Platform,
		build.WithDefaultArgs(defaults),
		build.WithGetenv(a.getenv),
		build.WithLogger(s.logger),
	), nil
}

// linkManager creates a manager for the host's UserPlugins directory.
func (a *App) linkManager(s *session) (*link.Manager, error) {
	dir, err := a.Platform.UserPluginsDir(a.dirs)
	if err != nil {
		return nil, fmt.Errorf("failed to locate the UserPlugins directory: %w", err)
	}
	return link.NewManager(dir, s.logger), nil
}

// newSupervisor creates a supervisor writing to the App's streams.
func (a *App) newSupervisor(s *session) *supervisor.Supervisor {
	opts := append([]supervisor.Option{}, a.supervisor...)
	opts = append(opts,
		supervisor.WithLogger(s.logger),
		supervisor.WithStdio(a.stdin, a.stdout, a.stderr),
	)
	return supervisor.New(a.Platform, opts...)
}

// locator creates the host executable locator.
func (a *App) locator() *supervisor.Locator {
	loc := supervisor.NewLocator(a.Platform)
	loc.Dirs = a.dirs
	if a.lookPath != nil {
		loc.LookPath = a.lookPath
	}
	return loc
}

// isCanceled reports whether err only says the command was interrupted.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
