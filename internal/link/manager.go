// SPDX-License-Identifier: MPL-2.0

package link

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/platform"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

const (
	// Created means a new link was made.
	Created Outcome = "created"
	// Replaced means an existing link was pointed at a new target.
	Replaced Outcome = "replaced"
	// Unchanged means the link already pointed at the target.
	Unchanged Outcome = "unchanged"
	// Relocated means the artifact was renamed but no link was touched.
	Relocated Outcome = "relocated"
	// Removed means the link was deleted.
	Removed Outcome = "removed"
	// WouldRemove is the dry-run form of Removed.
	WouldRemove Outcome = "would-remove"
	// Absent means there was no link to remove.
	Absent Outcome = "absent"
)

type (
	// Outcome describes what a link operation did.
	Outcome string

	// Result is the outcome of one Install or Remove.
	Result struct {
		Key     types.PluginKey
		Outcome Outcome
		// Artifact is the relocated library. Empty for Remove.
		Artifact string
		// LinkPath is the entry in UserPlugins. Empty when no link was
		// touched.
		LinkPath string
		// Previous is the old link target when Outcome is Replaced.
		Previous string
	}

	// InstallOptions controls Install.
	InstallOptions struct {
		// Symlink enables linking into UserPlugins. When unset only
		// relocation happens.
		Symlink bool
	}

	// RemoveOptions controls Remove.
	RemoveOptions struct {
		DryRun bool
		// Strict makes a missing link an error.
		Strict bool
	}

	// Status describes a plugin's entry in UserPlugins.
	Status struct {
		LinkPath string
		// Linked is set when the entry is a symbolic link.
		Linked bool
		// Target is the link destination when Linked.
		Target string
		// Dangling is set when Target does not exist.
		Dangling bool
		// Unmanaged is set when the entry exists but is not a link.
		Unmanaged bool
	}

	// Manager installs and removes plugin links in one UserPlugins directory.
	Manager struct {
		pluginsDir string
		logger     *log.Logger
	}
)

// NewManager creates a Manager for pluginsDir. A nil logger discards output.
func NewManager(pluginsDir string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{pluginsDir: pluginsDir, logger: logger}
}

// PluginsDir returns the managed UserPlugins directory.
func (m *Manager) PluginsDir() string { return m.pluginsDir }

// LinkPath returns where key's link lives.
func (m *Manager) LinkPath(key types.PluginKey, pf platform.Platform) string {
	return filepath.Join(m.pluginsDir, pf.PluginFileName(key.String()))
}

// Install relocates the artifact to its final name and, when opts.Symlink is
// set, points the UserPlugins entry at it. Running it twice with the same
// artifact leaves the filesystem as it was after the first run.
func (m *Manager) Install(artifactPath string, key types.PluginKey, pf platform.Platform, opts InstallOptions) (Result, error) {
	relocated, err := Relocate(artifactPath, key, pf)
	if err != nil {
		return Result{}, err
	}
	res := Result{Key: key, Outcome: Relocated, Artifact: relocated}
	if !opts.Symlink {
		m.logger.Debug("relocated artifact", "key", key, "path", relocated)
		return res, nil
	}

	if err := m.requirePluginsDir(); err != nil {
		return res, err
	}

	linkPath := m.LinkPath(key, pf)
	res.LinkPath = linkPath
	outcome, previous, err := replaceSymlink(relocated, linkPath)
	if err != nil {
		return res, err
	}
	res.Outcome = outcome
	res.Previous = previous
	m.logger.Debug("linked plugin", "key", key, "link", linkPath, "target", relocated, "outcome", outcome)
	return res, nil
}

// Remove deletes key's link from UserPlugins. It never deletes anything that
// is not a symbolic link. A missing link is reported as Absent, or as an
// error when opts.Strict is set.
func (m *Manager) Remove(key types.PluginKey, pf platform.Platform, opts RemoveOptions) (Result, error) {
	linkPath := m.LinkPath(key, pf)
	res := Result{Key: key, LinkPath: linkPath}

	info, err := os.Lstat(linkPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.Outcome = Absent
		if opts.Strict {
			return res, &LinkError{Op: "remove", Path: linkPath, Cause: ErrNotLinked}
		}
		return res, nil
	case err != nil:
		return res, &LinkError{Op: "remove", Path: linkPath, Cause: err}
	case info.Mode()&fs.ModeSymlink == 0:
		return res, &LinkError{Op: "remove", Path: linkPath, Cause: ErrUnmanagedFile}
	}

	if target, err := os.Readlink(linkPath); err == nil {
		res.Previous = target
	}
	if opts.DryRun {
		res.Outcome = WouldRemove
		return res, nil
	}
	if err := os.Remove(linkPath); err != nil {
		return res, &LinkError{Op: "remove", Path: linkPath, Cause: err}
	}
	res.Outcome = Removed
	m.logger.Debug("removed plugin link", "key", key, "link", linkPath)
	return res, nil
}

// Status reports key's entry in UserPlugins.
func (m *Manager) Status(key types.PluginKey, pf platform.Platform) (Status, error) {
	st := Status{LinkPath: m.LinkPath(key, pf)}
	info, err := os.Lstat(st.LinkPath)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, &LinkError{Op: "status", Path: st.LinkPath, Cause: err}
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		st.Unmanaged = true
		return st, nil
	}
	target, err := os.Readlink(st.LinkPath)
	if err != nil {
		return st, &LinkError{Op: "status", Path: st.LinkPath, Cause: err}
	}
	st.Linked = true
	st.Target = target
	if _, err := os.Stat(st.LinkPath); err != nil {
		st.Dangling = true
	}
	return st, nil
}

// RemoveRelocated deletes relocated copies of key's library below outputRoot,
// in any profile directory with or without a target triple. It returns the
// paths removed, or that would be removed with dryRun.
func RemoveRelocated(outputRoot string, key types.PluginKey, pf platform.Platform, dryRun bool) ([]string, error) {
	if _, err := os.Stat(outputRoot); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	name := pf.PluginFileName(key.String())
	fsys := os.DirFS(outputRoot)
	var matches []string
	// <profile>/<name> and <triple>/<profile>/<name>.
	for _, pattern := range []string{"*/" + name, "*/*/" + name} {
		found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &LinkError{Op: "clean", Path: outputRoot, Cause: err}
		}
		matches = append(matches, found...)
	}
	slices.Sort(matches)
	matches = slices.Compact(matches)
	removed := make([]string, 0, len(matches))
	for _, match := range matches {
		path := filepath.Join(outputRoot, filepath.FromSlash(match))
		if !dryRun {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, &LinkError{Op: "clean", Path: path, Cause: err}
			}
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func (m *Manager) requirePluginsDir() error {
	info, err := os.Stat(m.pluginsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return &LinkError{Op: "link", Path: m.pluginsDir, Cause: ErrUserPluginsMissing}
	}
	if err != nil {
		return &LinkError{Op: "link", Path: m.pluginsDir, Cause: err}
	}
	if !info.IsDir() {
		return &LinkError{Op: "link", Path: m.pluginsDir, Cause: fmt.Errorf("%w: not a directory", ErrUserPluginsMissing)}
	}
	return nil
}

// replaceSymlink points linkPath at target. An existing link is swapped by
// renaming a freshly created link over it, so the entry never disappears.
func replaceSymlink(target, linkPath string) (Outcome, string, error) {
	outcome := Created
	var previous string

	info, err := os.Lstat(linkPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", "", &LinkError{Op: "link", Path: linkPath, Cause: err}
	case info.Mode()&fs.ModeSymlink == 0:
		return "", "", &LinkError{Op: "link", Path: linkPath, Cause: ErrUnmanagedFile}
	default:
		current, err := os.Readlink(linkPath)
		if err != nil {
			return "", "", &LinkError{Op: "link", Path: linkPath, Cause: err}
		}
		if current == target {
			return Unchanged, current, nil
		}
		outcome = Replaced
		previous = current
	}

	tmp := filepath.Join(filepath.Dir(linkPath),
		"."+filepath.Base(linkPath)+".tmp-"+strconv.Itoa(os.Getpid())+"-"+strconv.FormatInt(time.Now().UnixNano(), 36))
	if err := os.Symlink(target, tmp); err != nil {
		return "", "", &LinkError{Op: "link", Path: linkPath, Cause: symlinkError(err)}
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return "", "", &LinkError{Op: "link", Path: linkPath, Cause: err}
	}
	return outcome, previous, nil
}
