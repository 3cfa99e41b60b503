// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	LayoutSinglePackage   LayoutKind = "package"
	LayoutWorkspaceRoot   LayoutKind = "workspace-root"
	LayoutWorkspaceMember LayoutKind = "workspace-member"
)

type (
	// LayoutKind names a Layout variant.
	LayoutKind string

	// Layout is the project shape a plugin's package lives in. It is a closed
	// union of SinglePackage, WorkspaceRoot and WorkspaceMember.
	Layout interface {
		Kind() LayoutKind
		// BuildRoot is the directory the build tool runs in. Artifacts land
		// under its target directory.
		BuildRoot() string
		// InWorkspace reports whether builds must select the package with -p.
		InWorkspace() bool

		isLayout()
	}

	// SinglePackage is a package with no enclosing workspace.
	SinglePackage struct {
		ManifestPath string
	}

	// WorkspaceRoot is a package whose manifest also declares [workspace].
	WorkspaceRoot struct {
		ManifestPath string
		Members      []string
	}

	// WorkspaceMember is a package listed in an enclosing workspace's members.
	WorkspaceMember struct {
		ManifestPath          string
		WorkspaceManifestPath string
		// MemberPath is the package directory relative to the workspace root,
		// with forward slashes.
		MemberPath string
	}
)

func (SinglePackage) Kind() LayoutKind    { return LayoutSinglePackage }
func (l SinglePackage) BuildRoot() string { return filepath.Dir(l.ManifestPath) }
func (SinglePackage) InWorkspace() bool   { return false }
func (SinglePackage) isLayout()           {}

func (WorkspaceRoot) Kind() LayoutKind    { return LayoutWorkspaceRoot }
func (l WorkspaceRoot) BuildRoot() string { return filepath.Dir(l.ManifestPath) }
func (l WorkspaceRoot) InWorkspace() bool { return len(l.Members) > 0 }
func (WorkspaceRoot) isLayout()           {}

func (WorkspaceMember) Kind() LayoutKind    { return LayoutWorkspaceMember }
func (l WorkspaceMember) BuildRoot() string { return filepath.Dir(l.WorkspaceManifestPath) }
func (WorkspaceMember) InWorkspace() bool   { return true }
func (WorkspaceMember) isLayout()           {}

// workspaceLocator finds and caches enclosing workspaces for one resolution.
type workspaceLocator struct {
	cache map[string]*manifestFile
}

func newWorkspaceLocator() *workspaceLocator {
	return &workspaceLocator{cache: make(map[string]*manifestFile)}
}

// load reads a workspace candidate, remembering misses and parse failures
// as nil.
func (w *workspaceLocator) load(manifestPath string) *manifestFile {
	if mf, ok := w.cache[manifestPath]; ok {
		return mf
	}
	mf, diag, err := readManifest(manifestPath)
	if err != nil || diag != nil {
		mf = nil
	}
	w.cache[manifestPath] = mf
	return mf
}

// explicit follows `package.workspace = "<dir>"`.
func (w *workspaceLocator) explicit(member *manifestFile, rel string) *manifestFile {
	dir := rel
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(member.dir(), dir)
	}
	mf := w.load(filepath.Join(filepath.Clean(dir), CargoManifestFile))
	if mf == nil || !mf.isWorkspace() {
		return nil
	}
	return mf
}

// enclosing walks up from the member's parent directory to the first
// manifest declaring [workspace]. The build tool stops at the first one it
// finds, so does this.
func (w *workspaceLocator) enclosing(member *manifestFile) *manifestFile {
	dir := filepath.Dir(member.dir())
	for {
		candidate := filepath.Join(dir, CargoManifestFile)
		if _, err := os.Stat(candidate); err == nil {
			if mf := w.load(candidate); mf != nil && mf.isWorkspace() {
				return mf
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// memberPath reports the member's path relative to the workspace root and
// whether the workspace's members globs include it.
func memberPath(ws *manifestFile, memberDir string) (string, bool) {
	rel, err := filepath.Rel(ws.dir(), memberDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range ws.doc.Workspace.Exclude {
		if globMatch(pattern, rel, true) {
			return rel, false
		}
	}
	for _, pattern := range ws.doc.Workspace.Members {
		if globMatch(pattern, rel, false) {
			return rel, true
		}
	}
	return rel, false
}

// globMatch matches a members or exclude entry. With subtree set, a plain
// directory entry also matches everything beneath it, which is how excludes
// behave.
func globMatch(pattern, rel string, subtree bool) bool {
	pattern = path.Clean(filepath.ToSlash(pattern))
	if pattern == rel {
		return true
	}
	if subtree && strings.HasPrefix(rel, pattern+"/") {
		return true
	}
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

// layoutFor classifies the package in mf, returning the workspace manifest
// its fields inherit from, if any.
func (w *workspaceLocator) layoutFor(mf *manifestFile) (Layout, *manifestFile) {
	if mf.isWorkspace() {
		return WorkspaceRoot{ManifestPath: mf.path, Members: mf.doc.Workspace.Members}, mf
	}
	if rel, ok := mf.doc.Package["workspace"].(string); ok {
		if ws := w.explicit(mf, rel); ws != nil {
			relPath, _ := memberPath(ws, mf.dir())
			return WorkspaceMember{ManifestPath: mf.path, WorkspaceManifestPath: ws.path, MemberPath: relPath}, ws
		}
	}
	if ws := w.enclosing(mf); ws != nil {
		if relPath, ok := memberPath(ws, mf.dir()); ok {
			return WorkspaceMember{ManifestPath: mf.path, WorkspaceManifestPath: ws.path, MemberPath: relPath}, ws
		}
	}
	return SinglePackage{ManifestPath: mf.path}, nil
}
