// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/supervisor"
)

type runFlagValues struct {
	exec         string
	project      string
	noBuild      bool
	timeout      time.Duration
	stdin        supervisor.StdioMode
	stdout       supervisor.StdioMode
	stderr       supervisor.StdioMode
	headless     bool
	display      string
	locateWindow string
	keepGoing    bool
}

// newRunCommand creates the `cargo-reaper run` command.
func newRunCommand(app *App) *cobra.Command {
	flags := runFlagValues{
		stdin:  supervisor.StdioInherit,
		stdout: supervisor.StdioInherit,
		stderr: supervisor.StdioInherit,
	}

	cmd := &cobra.Command{
		Use:   "run [flags] [-- <cargo build args>...]",
		Short: "Compile REAPER extension plugin(s) and run REAPER",
		Long: `Build and link every declared plugin, then launch REAPER.

The REAPER executable is taken from --exec, then run.executable from the
configuration file, then ` + "`" + supervisor.BinaryName + "`" + ` on $PATH, then the platform's default
install location.

With --headless (Linux only) REAPER runs under xvfb-run. --locate-window
polls the display for a window whose title contains the given text: the
run succeeds as soon as it appears and fails if REAPER exits or the
timeout passes first.`,
		Example: `  cargo reaper run
  cargo reaper run -e ~/opt/REAPER/reaper -- --release
  cargo reaper run --headless --no-build -t 5s --stdout null
  cargo reaper run --headless -w "fatal error"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return runRun(cmd.Context(), app, s, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.exec, "exec", "e", "", "override the REAPER executable path")
	cmd.Flags().StringVarP(&flags.project, "project", "o", "", "REAPER project file to open")
	cmd.Flags().BoolVar(&flags.noBuild, "no-build", false, "launch without building and linking first")
	cmd.Flags().DurationVarP(&flags.timeout, "timeout", "t", 0, "terminate REAPER after this long (e.g. 30s)")
	cmd.Flags().Var(&flags.stdin, "stdin", "REAPER's stdin (inherit, null or piped)")
	cmd.Flags().Var(&flags.stdout, "stdout", "REAPER's stdout (inherit, null or piped)")
	cmd.Flags().Var(&flags.stderr, "stderr", "REAPER's stderr (inherit, null or piped)")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "run REAPER under a virtual display (Linux)")
	cmd.Flags().StringVarP(&flags.display, "display", "D", "", "X display for --headless and --locate-window (default $DISPLAY or "+supervisor.DefaultDisplay+")")
	cmd.Flags().StringVarP(&flags.locateWindow, "locate-window", "w", "", "succeed once a window title contains this text")
	cmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "keep REAPER running after the window is found")

	modes := cobra.FixedCompletions([]string{"inherit", "null", "piped"}, cobra.ShellCompDirectiveNoFileComp)
	for _, name := range []string{"stdin", "stdout", "stderr"} {
		_ = cmd.RegisterFlagCompletionFunc(name, modes)
	}
	_ = cmd.MarkFlagFilename("project", "rpp")

	return cmd
}

func runRun(ctx context.Context, app *App, s *session, args []string, flags runFlagValues) error {
	opts, err := supervisorOptions(app, s, flags)
	if err != nil {
		return err
	}

	sup := app.newSupervisor(s)
	if err := sup.Preflight(opts); err != nil {
		return err
	}

	exe, err := app.locator().Locate(flags.exec, s.cfg.Run.Executable)
	if err != nil {
		return err
	}
	opts.Executable = exe

	if !flags.noBuild {
		if _, err := runBuild(ctx, app, s, args, true); err != nil {
			return err
		}
	}

	if flags.exec != "" {
		printWarning(app.stdout, "overriding REAPER executable path (%s)", exe)
	} else {
		printStatus(app.stdout, "Running", "REAPER executable (%s)", exe)
	}

	outcome, err := sup.Run(ctx, opts)
	if err != nil {
		return err
	}
	reportOutcome(app, s, outcome)
	return outcome.Err()
}

// supervisorOptions merges run flags over the run section of the tool
// configuration.
func supervisorOptions(app *App, s *session, flags runFlagValues) (supervisor.Options, error) {
	rc := s.cfg.Run
	opts := supervisor.Options{
		Project:         flags.project,
		Stdin:           flags.stdin,
		Stdout:          flags.stdout,
		Stderr:          flags.stderr,
		Headless:        flags.headless,
		Timeout:         rc.Timeout,
		HeadlessTimeout: rc.HeadlessTimeout,
		WindowTitle:     flags.locateWindow,
		KeepGoing:       flags.keepGoing,
		PollInterval:    rc.PollInterval,
		GracePeriod:     rc.GracePeriod,
	}
	if flags.timeout > 0 {
		opts.Timeout = flags.timeout
	} else if flags.timeout < 0 {
		return opts, fmt.Errorf("invalid --timeout %s: must not be negative", flags.timeout)
	}
	if flags.keepGoing && flags.locateWindow == "" {
		return opts, fmt.Errorf("--keep-going requires --locate-window")
	}

	if flags.headless || flags.locateWindow != "" {
		display := flags.display
		if display == "" {
			display = rc.Display
		}
		d, err := supervisor.ResolveDisplay(display, app.getenv)
		if err != nil {
			return opts, err
		}
		opts.Display = d
	}
	return opts, nil
}

func reportOutcome(app *App, s *session, o supervisor.Outcome) {
	s.logger.Debug("host finished",
		"state", o.State,
		"exit", o.ExitCode,
		"signaled", o.Signaled,
		"terminated", o.Terminated,
		"elapsed", o.Elapsed)

	if o.Stdout != "" {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("captured stdout:"))
		fmt.Fprint(app.stdout, o.Stdout)
	}
	if o.Stderr != "" {
		fmt.Fprintln(app.stderr, SubtitleStyle.Render("captured stderr:"))
		fmt.Fprint(app.stderr, o.Stderr)
	}

	elapsed := o.Elapsed.Round(time.Millisecond)
	switch {
	case o.WindowFound:
		printStatus(app.stdout, "Found", "window matching %q after %s", o.WindowTitle, elapsed)
	case o.State == supervisor.StateTimedOut && !o.WindowRequested:
		printStatus(app.stdout, "Timed out", "REAPER terminated after %s", elapsed)
	case o.State == supervisor.StateExited && o.ExitCode.IsSuccess():
		printStatus(app.stdout, "Finished", "REAPER exited after %s", elapsed)
	}
}
