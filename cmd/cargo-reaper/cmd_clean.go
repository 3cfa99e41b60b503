// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/build"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// ErrUnknownPlugin is returned by clean for keys that are not declared.
var ErrUnknownPlugin = errors.New("plugin not found")

type (
	cleanFlagValues struct {
		plugins         []string
		dryRun          bool
		removeArtifacts bool
		strict          bool
	}

	// UnknownPluginError lists the requested keys missing from the
	// declaration.
	UnknownPluginError struct {
		Keys []string
	}
)

// Error implements the error interface.
func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("the following plugin(s) were not found: %s\n\nTip: run `cargo reaper list` to view the available plugins.",
		strings.Join(e.Keys, ", "))
}

// Unwrap returns ErrUnknownPlugin for errors.Is() compatibility.
func (e *UnknownPluginError) Unwrap() error { return ErrUnknownPlugin }

// newCleanCommand creates the `cargo-reaper clean` command.
func newCleanCommand(app *App) *cobra.Command {
	var flags cleanFlagValues

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove plugin links that cargo-reaper created from the UserPlugins directory",
		Long: `Remove plugin symlinks that cargo-reaper created from REAPER's UserPlugins
directory. Without -p every declared plugin is cleaned. Files in
UserPlugins that are not symlinks are never removed.

With --remove-artifacts the renamed libraries are deleted as well and
` + "`cargo clean -p <package>`" + ` runs for each plugin package.`,
		Example: `  cargo reaper clean
  cargo reaper clean -p reaper_my_plugin --dry-run
  cargo reaper clean -a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return runClean(cmd.Context(), app, s, flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.plugins, "plugin", "p", nil, "clean plugin(s) by key")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "display what would be deleted without deleting anything")
	cmd.Flags().BoolVarP(&flags.removeArtifacts, "remove-artifacts", "a", false, "also remove build artifacts")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when a plugin has no link to remove")
	_ = cmd.RegisterFlagCompletionFunc("plugin", func(c *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		s, err := app.session(c.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		decl, err := app.loadDeclaration(s)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		keys := make([]string, 0, len(decl.Entries))
		for _, k := range decl.Keys() {
			keys = append(keys, k.String())
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runClean(ctx context.Context, app *App, s *session, flags cleanFlagValues) error {
	// Links are removed by key alone, so a broken or moved package never
	// keeps its stale link in place.
	decl, err := app.loadDeclaration(s)
	if err != nil {
		return err
	}
	keys, err := selectKeys(decl.Keys(), flags.plugins)
	if err != nil {
		return err
	}

	manager, err := app.linkManager(s)
	if err != nil {
		return err
	}

	removed := 0
	for _, key := range keys {
		printStatus(app.stdout, "Removing", "%s", CmdStyle.Render(key.String()))
		res, err := manager.Remove(key, app.Platform, link.RemoveOptions{DryRun: flags.dryRun, Strict: flags.strict})
		if err != nil {
			return err
		}
		if res.Outcome == link.Removed || res.Outcome == link.WouldRemove {
			removed++
		}
	}
	verb := "Removed"
	if flags.dryRun {
		verb = "Summary"
	}
	printStatus(app.stdout, verb, "%d symlink(s)", removed)

	if !flags.removeArtifacts {
		if flags.dryRun {
			printWarning(app.stdout, "no files deleted due to --dry-run")
		}
		return nil
	}

	// Artifact cleanup needs package names and build roots.
	plugins, err := manifest.NewResolver(s.logger).Resolve(decl)
	if err != nil {
		return err
	}
	return cleanArtifacts(ctx, app, s, pluginsByKey(plugins, keys), flags.dryRun)
}

// cleanArtifacts deletes the renamed libraries from every profile and
// target directory, then lets the build tool clean the packages.
func cleanArtifacts(ctx context.Context, app *App, s *session, plugins []manifest.ExtensionPlugin, dryRun bool) error {
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	for _, p := range plugins {
		outputRoot := build.OutputRoot(p.Manifest.Layout.BuildRoot(), build.Options{}, app.getenv)
		paths, err := link.RemoveRelocated(outputRoot, p.Key, app.Platform, dryRun)
		if err != nil {
			return err
		}
		for _, path := range paths {
			printStatus(app.stdout, verb, "%s", path)
		}
	}

	orch, err := app.orchestrator(s)
	if err != nil {
		return err
	}
	return orch.CleanPackages(ctx, plugins, nil, dryRun)
}

// selectKeys returns the declared keys named by requested, or all of them
// when requested is empty. Unknown keys are reported together.
func selectKeys(declared []types.PluginKey, requested []string) ([]types.PluginKey, error) {
	if len(requested) == 0 {
		return declared, nil
	}
	selected := make([]types.PluginKey, 0, len(requested))
	var unknown []string
	for _, k := range requested {
		key := types.PluginKey(k)
		switch {
		case !slices.Contains(declared, key):
			unknown = append(unknown, k)
		case !slices.Contains(selected, key):
			selected = append(selected, key)
		}
	}
	if len(unknown) > 0 {
		return nil, &UnknownPluginError{Keys: unknown}
	}
	return selected, nil
}

// pluginsByKey returns the resolved plugins for keys, in keys order.
func pluginsByKey(plugins []manifest.ExtensionPlugin, keys []types.PluginKey) []manifest.ExtensionPlugin {
	selected := make([]manifest.ExtensionPlugin, 0, len(keys))
	for _, key := range keys {
		if i := slices.IndexFunc(plugins, func(p manifest.ExtensionPlugin) bool { return p.Key == key }); i >= 0 {
			selected = append(selected, plugins[i])
		}
	}
	return selected
}
