// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/watch"
)

type buildFlagValues struct {
	noSymlink bool
	watch     bool
}

// newBuildCommand creates the `cargo-reaper build` command.
func newBuildCommand(app *App) *cobra.Command {
	var flags buildFlagValues

	cmd := &cobra.Command{
		Use:   "build [flags] [-- <cargo build args>...]",
		Short: "Compile REAPER extension plugin(s)",
		Long: `Compile every declared REAPER extension plugin.

Each compiled library is copied to <key><ext> next to the build tool's
output and symlinked into REAPER's UserPlugins directory. Arguments after
-- are forwarded to ` + "`cargo build`" + `, after any build.args from the
configuration file.`,
		Example: `  cargo reaper build
  cargo reaper build -- --release
  cargo reaper build --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if flags.watch {
				return runBuildWatch(cmd.Context(), app, s, args, !flags.noSymlink)
			}
			_, err = runBuild(cmd.Context(), app, s, args, !flags.noSymlink)
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.noSymlink, "no-symlink", false, "do not symlink the plugin(s) to the UserPlugins directory")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "W", false, "rebuild and relink when plugin sources change")

	return cmd
}

// runBuild resolves the declared plugins, then builds and installs them.
func runBuild(ctx context.Context, app *App, s *session, args []string, symlink bool) ([]link.Result, error) {
	_, plugins, err := app.resolvePlugins(s)
	if err != nil {
		return nil, err
	}
	return buildPlugins(ctx, app, s, plugins, args, symlink)
}

// buildPlugins compiles plugins and relocates every artifact, linking it
// into UserPlugins when symlink is set and it was built for the host.
func buildPlugins(ctx context.Context, app *App, s *session, plugins []manifest.ExtensionPlugin, args []string, symlink bool) ([]link.Result, error) {
	orch, err := app.orchestrator(s)
	if err != nil {
		return nil, err
	}
	artifacts, err := orch.Build(ctx, plugins, args)
	if err != nil {
		return nil, err
	}

	manager := link.NewManager("", s.logger)
	if symlink {
		if manager, err = app.linkManager(s); err != nil {
			return nil, err
		}
	}

	results := make([]link.Result, 0, len(artifacts))
	for _, artifact := range artifacts {
		res, err := installArtifact(app, manager, artifact, symlink)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func installArtifact(app *App, manager *link.Manager, artifact build.Artifact, symlink bool) (link.Result, error) {
	key := artifact.Plugin.Key
	linkIt := symlink
	if symlink && artifact.Platform != app.Platform {
		printWarning(app.stdout, "`%s` was built for %s; not linking it into the %s UserPlugins directory", key, artifact.Platform, app.Platform)
		linkIt = false
	}

	res, err := manager.Install(artifact.Path, key, artifact.Platform, link.InstallOptions{Symlink: linkIt})
	if err != nil {
		return res, err
	}

	switch res.Outcome {
	case link.Created, link.Replaced:
		printStatus(app.stdout, "Linked", "%s -> %s", CmdStyle.Render(key.String()), res.LinkPath)
	case link.Unchanged:
		printStatus(app.stdout, "Fresh", "%s (%s)", CmdStyle.Render(key.String()), res.LinkPath)
	default:
		printStatus(app.stdout, "Relocated", "%s (%s)", CmdStyle.Render(key.String()), res.Artifact)
		if !symlink {
			printWarning(app.stdout, "plugin was not symlinked (%s)", res.Artifact)
		}
	}
	return res, nil
}

// runBuildWatch builds once and then again whenever a plugin source,
// manifest or declaration changes. Build failures are reported and
// watching continues.
func runBuildWatch(ctx context.Context, app *App, s *session, args []string, symlink bool) error {
	decl, plugins, err := app.resolvePlugins(s)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) {
		// The declaration may have changed since the last build.
		_, current, err := app.resolvePlugins(s)
		if err == nil {
			_, err = buildPlugins(ctx, app, s, current, args, symlink)
		}
		if err != nil {
			app.printError(err)
		}
	}

	printStatus(app.stdout, "Watching", "initial build")
	if _, err := buildPlugins(ctx, app, s, plugins, args, symlink); err != nil {
		if isCanceled(err) {
			return nil
		}
		app.printError(err)
	}

	w, err := watch.New(watch.Config{
		Roots:    watchRoots(decl, plugins),
		Debounce: s.cfg.Build.WatchDebounce,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			printStatus(app.stdout, "Changed", "%d file(s); rebuilding", len(changed))
			for _, path := range changed {
				s.logger.Debug("changed", "path", path)
			}
			rebuild(ctx)
			return nil
		},
	})
	if err != nil {
		return err
	}

	printStatus(app.stdout, "Watching", "%d plugin(s) for changes (Ctrl+C to stop)", len(plugins))
	if err := w.Run(ctx); err != nil && !isCanceled(err) {
		return err
	}
	return nil
}

// watchRoots returns the declaration directory and every plugin package
// directory. The watcher folds nested roots.
func watchRoots(decl *manifest.Declaration, plugins []manifest.ExtensionPlugin) []string {
	roots := []string{decl.Dir()}
	for _, p := range plugins {
		dir := filepath.Dir(p.Manifest.ManifestPath)
		if !slices.Contains(roots, dir) {
			roots = append(roots, dir)
		}
	}
	return roots
}
