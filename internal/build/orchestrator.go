// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
)

type (
	// Invocation is one run of the build tool covering every plugin that
	// shares a build root.
	Invocation struct {
		Dir     string
		Args    []string
		Plugins []manifest.ExtensionPlugin
	}

	// Artifact is a library produced for one plugin.
	Artifact struct {
		Plugin   manifest.ExtensionPlugin
		Path     string
		Profile  string
		Target   string
		Platform platform.Platform
	}

	// Orchestrator plans and runs builds.
	Orchestrator struct {
		tool        Tool
		host        platform.Platform
		defaultArgs []string
		getenv      func(string) string
		logger      *log.Logger
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)
)

// WithDefaultArgs prepends args to every build invocation's pass-through
// arguments.
func WithDefaultArgs(args []string) Option {
	return func(o *Orchestrator) { o.defaultArgs = slices.Clone(args) }
}

// WithGetenv replaces the environment lookup used for CARGO_TARGET_DIR.
func WithGetenv(getenv func(string) string) Option {
	return func(o *Orchestrator) { o.getenv = getenv }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator that runs tool and locates artifacts for the
// host platform unless a target triple says otherwise.
func New(tool Tool, host platform.Platform, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tool:   tool,
		host:   host,
		getenv: os.Getenv,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Args returns the configured default arguments followed by args.
func (o *Orchestrator) Args(args []string) []string {
	return append(slices.Clone(o.defaultArgs), args...)
}

// Plan groups plugins by build root, keeping first-seen order, and builds the
// argument list for each group.
func (o *Orchestrator) Plan(plugins []manifest.ExtensionPlugin, args []string) []Invocation {
	return plan("build", plugins, o.Args(args))
}

// Build runs every planned invocation in order and then locates each
// plugin's artifact. It stops at the first failing invocation.
func (o *Orchestrator) Build(ctx context.Context, plugins []manifest.ExtensionPlugin, args []string) ([]Artifact, error) {
	full := o.Args(args)
	opts := ParseArgs(full)
	invocations := plan("build", plugins, full)

	for _, inv := range invocations {
		o.logger.Debug("running build tool", "dir", inv.Dir, "args", inv.Args, "plugins", len(inv.Plugins))
		if err := o.tool.Run(ctx, inv.Dir, inv.Args); err != nil {
			return nil, err
		}
	}

	pf, err := o.targetPlatform(opts)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(plugins))
	for _, inv := range invocations {
		outDir := OutputDir(inv.Dir, opts, o.getenv)
		for _, p := range inv.Plugins {
			path, err := LocateArtifact(outDir, p, pf)
			if err != nil {
				return nil, err
			}
			o.logger.Debug("found artifact", "key", p.Key, "path", path)
			artifacts = append(artifacts, Artifact{
				Plugin:   p,
				Path:     path,
				Profile:  opts.Profile,
				Target:   opts.Target,
				Platform: pf,
			})
		}
	}
	return artifacts, nil
}

// CleanPackages removes the build tool's outputs for the given plugins'
// packages. With dryRun the tool only reports what it would remove.
func (o *Orchestrator) CleanPackages(ctx context.Context, plugins []manifest.ExtensionPlugin, args []string, dryRun bool) error {
	extra := slices.Clone(args)
	if dryRun {
		extra = append(extra, "--dry-run")
	}
	for _, inv := range plan("clean", plugins, extra) {
		inv.Args = withPackages(inv.Args, inv.Plugins)
		o.logger.Debug("cleaning packages", "dir", inv.Dir, "args", inv.Args)
		if err := o.tool.Run(ctx, inv.Dir, inv.Args); err != nil {
			return err
		}
	}
	return nil
}

// OutputRoot returns the directory the build tool writes profiles under:
// --target-dir, then CARGO_TARGET_DIR, then target/ in the build root.
// Relative values are taken relative to the build root, which is the tool's
// working directory.
func OutputRoot(buildRoot string, opts Options, getenv func(string) string) string {
	dir := opts.TargetDir
	if dir == "" && getenv != nil {
		dir = getenv(TargetDirEnv)
	}
	if dir == "" {
		dir = DefaultTargetDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(buildRoot, dir)
	}
	return filepath.Clean(dir)
}

// OutputDir is OutputRoot plus the optional target triple and the profile.
func OutputDir(buildRoot string, opts Options, getenv func(string) string) string {
	parts := []string{OutputRoot(buildRoot, opts, getenv)}
	if opts.Target != "" {
		parts = append(parts, opts.Target)
	}
	profile := opts.Profile
	if profile == "" {
		profile = ProfileDebug
	}
	return filepath.Join(append(parts, profile)...)
}

// LocateArtifact returns the first library file candidate for p that exists
// in outDir.
func LocateArtifact(outDir string, p manifest.ExtensionPlugin, pf platform.Platform) (string, error) {
	candidates := pf.LibraryFileCandidates(p.Manifest.LibName)
	tried := make([]string, 0, len(candidates))
	for _, name := range candidates {
		path := filepath.Join(outDir, name)
		tried = append(tried, path)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", &ArtifactNotFoundError{Key: p.Key, Tried: tried}
}

func (o *Orchestrator) targetPlatform(opts Options) (platform.Platform, error) {
	if opts.Target == "" {
		return o.host, nil
	}
	return platform.FromTargetTriple(opts.Target)
}

func plan(subcommand string, plugins []manifest.ExtensionPlugin, args []string) []Invocation {
	filtered := ParseArgs(args).PackageFiltered
	var invocations []Invocation
	index := make(map[string]int)
	for _, p := range plugins {
		root := p.Manifest.Layout.BuildRoot()
		i, ok := index[root]
		if !ok {
			i = len(invocations)
			index[root] = i
			invocations = append(invocations, Invocation{Dir: root})
		}
		invocations[i].Plugins = append(invocations[i].Plugins, p)
	}
	for i := range invocations {
		inv := &invocations[i]
		inv.Args = append([]string{subcommand}, args...)
		if subcommand == "build" && !filtered && inWorkspace(inv.Plugins) {
			inv.Args = withPackages(inv.Args, inv.Plugins)
		}
	}
	return invocations
}

func inWorkspace(plugins []manifest.ExtensionPlugin) bool {
	return slices.ContainsFunc(plugins, func(p manifest.ExtensionPlugin) bool {
		return p.Manifest.Layout.InWorkspace()
	})
}

// withPackages adds -p <package> for each plugin ahead of any "--".
func withPackages(args []string, plugins []manifest.ExtensionPlugin) []string {
	pkgArgs := make([]string, 0, 2*len(plugins))
	for _, p := range plugins {
		pkgArgs = append(pkgArgs, "-p", p.Manifest.PackageName)
	}
	at := slices.Index(args, "--")
	if at < 0 {
		at = len(args)
	}
	return slices.Insert(slices.Clone(args), at, pkgArgs...)
}
