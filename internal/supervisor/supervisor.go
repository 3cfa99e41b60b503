// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

const (
	StateIdle        State = "idle"
	StateStarting    State = "starting"
	StateRunning     State = "running"
	StateWindowFound State = "window-found"
	StateTimedOut    State = "timed-out"
	StateExited      State = "exited"
	StateCancelled   State = "cancelled"
	StateTerminated  State = "terminated"

	// DefaultHeadlessTimeout bounds a headless run that sets no timeout.
	DefaultHeadlessTimeout = 60 * time.Second
	// DefaultPollInterval is the pause between window searches.
	DefaultPollInterval = time.Second
	// DefaultGracePeriod is how long the host may take to exit after SIGTERM.
	DefaultGracePeriod = 3 * time.Second
)

type (
	// State is a step of a supervised run.
	State string

	// Options describes one supervised launch.
	Options struct {
		Executable string
		// Project is passed to the host as its only argument when set.
		Project string

		Stdin  StdioMode
		Stdout StdioMode
		Stderr StdioMode

		Headless bool
		// Display is the X server for the harness and window search. An
		// unset Display falls back to DefaultDisplay when either needs one.
		Display Display

		// Timeout of zero means no deadline, except in headless mode where
		// HeadlessTimeout applies.
		Timeout         time.Duration
		HeadlessTimeout time.Duration

		// WindowTitle enables the window watch.
		WindowTitle string
		// KeepGoing keeps the host running after the window is found, until
		// the deadline or its own exit.
		KeepGoing bool

		PollInterval time.Duration
		GracePeriod  time.Duration
	}

	// Outcome is the result of a supervised run.
	Outcome struct {
		// State is what ended supervision: StateWindowFound, StateTimedOut,
		// StateExited or StateCancelled.
		State State
		// Terminated is set when the supervisor stopped the host.
		Terminated      bool
		ExitCode        types.ExitCode
		Signaled        bool
		WindowRequested bool
		WindowFound     bool
		WindowTitle     string
		Elapsed         time.Duration
		// Stdout and Stderr hold output of piped streams.
		Stdout string
		Stderr string
	}

	// Supervisor launches and watches the host.
	Supervisor struct {
		platform platform.Platform
		searcher WindowSearcher
		harness  Harness
		logger   *log.Logger

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Option configures a Supervisor.
	Option func(*Supervisor)

	captured struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// WithWindowSearcher replaces the xdotool searcher.
func WithWindowSearcher(ws WindowSearcher) Option {
	return func(s *Supervisor) { s.searcher = ws }
}

// WithHarness replaces the xvfb-run harness.
func WithHarness(h Harness) Option {
	return func(s *Supervisor) { s.harness = h }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *log.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdio sets the streams inherited by the host.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdin, s.stdout, s.stderr = stdin, stdout, stderr
	}
}

// New creates a Supervisor for pf.
func New(pf platform.Platform, opts ...Option) *Supervisor {
	s := &Supervisor{
		platform: pf,
		searcher: XdotoolSearcher{},
		harness:  XvfbHarness{},
		logger:   log.New(io.Discard),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preflight checks that the platform and external tools can satisfy opts
// before anything is built or launched.
func (s *Supervisor) Preflight(opts Options) error {
	if opts.Headless {
		if !s.platform.SupportsHeadless() {
			return &ProcessError{Op: "headless", Path: s.platform.String(), Err: ErrHeadlessUnsupported}
		}
		if c, ok := s.harness.(availabilityChecker); ok {
			if err := c.Available(); err != nil {
				return err
			}
		}
	}
	if opts.WindowTitle != "" {
		if !s.platform.SupportsWindowSearch() {
			return &ProcessError{Op: "window search", Path: s.platform.String(), Err: ErrHeadlessUnsupported}
		}
		if c, ok := s.searcher.(availabilityChecker); ok {
			if err := c.Available(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run launches the host and supervises it until a deadline, a matching
// window, its own exit or ctx cancellation. The host is always torn down and
// every watch joined before Run returns. The returned error covers failures
// to launch; how the run ended is in the Outcome.
func (s *Supervisor) Run(ctx context.Context, opts Options) (Outcome, error) {
	opts = opts.withDefaults()
	outcome := Outcome{
		State:           StateIdle,
		WindowRequested: opts.WindowTitle != "",
		WindowTitle:     opts.WindowTitle,
	}
	if opts.Headless && !s.platform.SupportsHeadless() {
		return outcome, &ProcessError{Op: "headless", Path: s.platform.String(), Err: ErrHeadlessUnsupported}
	}
	if outcome.WindowRequested && !s.platform.SupportsWindowSearch() {
		return outcome, &ProcessError{Op: "window search", Path: s.platform.String(), Err: ErrHeadlessUnsupported}
	}

	name, args := opts.Executable, opts.hostArgs()
	if opts.Headless {
		name, args = s.harness.Wrap(name, args, opts.Display)
	}
	cmd := exec.Command(name, args...)
	// A child of the host may inherit a piped stream and outlive it; Wait
	// must not block on that copy past the grace period.
	cmd.WaitDelay = opts.GracePeriod
	out, err := s.wire(cmd, opts)
	if err != nil {
		return outcome, &ProcessError{Op: "start", Path: name, Err: err}
	}
	configureProcessGroup(cmd)

	s.transition(&outcome, StateStarting, "executable", name, "args", args)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return outcome, &ProcessError{Op: "start", Path: name, Err: err}
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	s.transition(&outcome, StateRunning, "pid", cmd.Process.Pid, "timeout", opts.Timeout)
	final := s.watch(ctx, opts, exited, &outcome)
	outcome.State = final
	s.logger.Debug("supervision ended", "state", final, "window_found", outcome.WindowFound)

	if final != StateExited {
		outcome.Terminated = true
	}
	if err := terminate(cmd.Process, exited, opts.GracePeriod); err != nil {
		s.logger.Warn("failed to terminate host", "pid", cmd.Process.Pid, "err", err)
	}
	<-exited

	outcome.Elapsed = time.Since(start)
	outcome.ExitCode, outcome.Signaled = exitStatus(cmd.ProcessState)
	outcome.Stdout = out.stdout.String()
	outcome.Stderr = out.stderr.String()
	s.logger.Debug("host terminated", "exit_code", outcome.ExitCode, "signaled", outcome.Signaled, "elapsed", outcome.Elapsed)
	return outcome, nil
}

// watch races the exit, deadline and window watches. Each watch sends at most
// once into a channel sized for all of them, so none ever blocks; the first
// result read decides the outcome. All watches have returned when watch does.
func (s *Supervisor) watch(ctx context.Context, opts Options, exited <-chan struct{}, outcome *Outcome) State {
	watchCtx, stop := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(watchCtx)
	results := make(chan State, 3)
	defer func() {
		stop()
		_ = g.Wait()
	}()

	g.Go(func() error {
		select {
		case <-exited:
			results <- StateExited
		case <-gctx.Done():
		}
		return nil
	})
	if opts.Timeout > 0 {
		g.Go(func() error {
			timer := time.NewTimer(opts.Timeout)
			defer timer.Stop()
			select {
			case <-timer.C:
				results <- StateTimedOut
			case <-gctx.Done():
			}
			return nil
		})
	}
	if opts.WindowTitle != "" {
		g.Go(func() error {
			s.pollWindow(gctx, opts, results)
			return nil
		})
	}

	for {
		select {
		case state := <-results:
			if state == StateWindowFound {
				outcome.WindowFound = true
				s.logger.Debug("window found", "title", opts.WindowTitle, "keep_going", opts.KeepGoing)
				if opts.KeepGoing {
					continue
				}
			}
			return state
		case <-ctx.Done():
			return StateCancelled
		}
	}
}

func (s *Supervisor) pollWindow(ctx context.Context, opts Options, results chan<- State) {
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		found, err := s.searcher.Search(ctx, opts.Display, opts.WindowTitle)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Debug("window search failed", "err", err)
			continue
		}
		if found {
			results <- StateWindowFound
			return
		}
	}
}

func (s *Supervisor) wire(cmd *exec.Cmd, opts Options) (*captured, error) {
	out := &captured{}
	switch opts.Stdin {
	case StdioNull:
	case StdioPiped:
		// Wait closes the write end once the host exits.
		if _, err := cmd.StdinPipe(); err != nil {
			return nil, err
		}
	default:
		cmd.Stdin = s.stdin
	}
	cmd.Stdout = route(opts.Stdout, s.stdout, &out.stdout)
	cmd.Stderr = route(opts.Stderr, s.stderr, &out.stderr)
	return out, nil
}

func route(mode StdioMode, inherit io.Writer, capture *bytes.Buffer) io.Writer {
	switch mode {
	case StdioNull:
		return nil
	case StdioPiped:
		return capture
	default:
		return inherit
	}
}

func (s *Supervisor) transition(o *Outcome, to State, keyvals ...any) {
	s.logger.Debug("host state", append([]any{"from", o.State, "to", to}, keyvals...)...)
	o.State = to
}

func (o Options) withDefaults() Options {
	if o.HeadlessTimeout <= 0 {
		o.HeadlessTimeout = DefaultHeadlessTimeout
	}
	if o.Headless && o.Timeout <= 0 {
		o.Timeout = o.HeadlessTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.Headless || o.WindowTitle != "" {
		o.Display = o.Display.orDefault()
	}
	return o
}

func (o Options) hostArgs() []string {
	if o.Project == "" {
		return nil
	}
	return []string{o.Project}
}

// Err maps the outcome to the command result. A requested window decides
// success on its own; otherwise a timeout is a success and an exit reports
// the host's status.
func (o Outcome) Err() error {
	switch {
	case o.State == StateCancelled:
		return context.Canceled
	case o.WindowRequested && o.WindowFound:
		return nil
	case o.WindowRequested:
		return &WindowNotFoundError{Title: o.WindowTitle, TimedOut: o.State == StateTimedOut}
	case o.State == StateExited && !o.ExitCode.IsSuccess():
		return &HostExitError{ExitCode: o.ExitCode, Signaled: o.Signaled}
	default:
		return nil
	}
}
