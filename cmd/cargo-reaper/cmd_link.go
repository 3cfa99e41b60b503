// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

// errCannotInferKey is returned when link cannot tell which plugin an
// artifact belongs to.
var errCannotInferKey = errors.New("cannot infer the plugin key")

type linkFlagValues struct {
	name string
}

// newLinkCommand creates the `cargo-reaper link` command.
func newLinkCommand(app *App) *cobra.Command {
	var flags linkFlagValues

	cmd := &cobra.Command{
		Use:   "link [--name <key>] <path>...",
		Short: "Rename and symlink pre-built plugin libraries",
		Long: `Rename and symlink plugin libraries built outside cargo-reaper.

Each library is copied to <key><ext> in its own directory and symlinked
into REAPER's UserPlugins directory. The key is taken from --name, from
the file name when it already carries the ` + "`" + types.PluginKeyPrefix + "`" + ` prefix,
or from the declared plugin whose library the file is. Linking stops at
the first failure.`,
		Example: `  cargo reaper link target/release/libmy_plugin.so
  cargo reaper link --name reaper_my_plugin ./build/my_plugin.dll`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.name != "" && len(args) > 1 {
				return fmt.Errorf("--name can only be used with a single path, got %d", len(args))
			}
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			_, err = runLink(app, s, args, flags)
			return err
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "plugin key to link the library as")

	return cmd
}

func runLink(app *App, s *session, paths []string, flags linkFlagValues) ([]link.Result, error) {
	manager, err := app.linkManager(s)
	if err != nil {
		return nil, err
	}

	var declared []manifest.ExtensionPlugin
	loadedDeclared := false

	results := make([]link.Result, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err == nil {
			abs, err = filepath.EvalSymlinks(abs)
		}
		if err != nil {
			return results, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if info, err := os.Stat(abs); err != nil {
			return results, err
		} else if !info.Mode().IsRegular() {
			return results, fmt.Errorf("%s is not a file", path)
		}

		key, ok := linkKey(app, abs, flags.name, declared)
		if !ok && !loadedDeclared {
			loadedDeclared = true
			if _, declared, err = app.resolvePlugins(s); err != nil && !errors.Is(err, manifest.ErrDeclarationNotFound) {
				return results, err
			}
			key, ok = linkKey(app, abs, flags.name, declared)
		}
		if !ok {
			return results, fmt.Errorf("%w for %s: pass --name or rename the file to %s<name>%s",
				errCannotInferKey, path, types.PluginKeyPrefix, app.Platform.LibraryExtension())
		}
		if err := key.Validate(); err != nil {
			return results, err
		}

		res, err := manager.Install(abs, key, app.Platform, link.InstallOptions{Symlink: true})
		if err != nil {
			return results, err
		}
		printStatus(app.stdout, "Linked", "%s -> %s", CmdStyle.Render(key.String()), res.LinkPath)
		results = append(results, res)
	}
	return results, nil
}

// linkKey picks the key for the library at path: the explicit name, the
// file stem when it already is a key, or the declared plugin whose library
// file names include the file.
func linkKey(app *App, path, name string, declared []manifest.ExtensionPlugin) (types.PluginKey, bool) {
	if name != "" {
		return types.PluginKey(name), true
	}

	base := filepath.Base(path)
	stem := types.PluginKey(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem.HasPrefix() && stem.Validate() == nil {
		return stem, true
	}

	for _, p := range declared {
		if slices.Contains(app.Platform.LibraryFileCandidates(p.Manifest.LibName), base) {
			return p.Key, true
		}
	}
	return "", false
}
