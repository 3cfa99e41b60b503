// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DeclarationNotFoundId Id = iota + 1
	DeclarationParseErrorId
	ManifestInvalidId
	BuildToolFailedId
	ArtifactNotFoundId
	UserPluginsMissingId
	SymlinkPrivilegeId
	UnmanagedPluginFileId
	ExecutableNotFoundId
	HeadlessUnsupportedId
	HeadlessToolMissingId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	declarationNotFoundIssue = &Issue{
		id: DeclarationNotFoundId,
		mdMsg: `
# No plugin declaration file found!

cargo-reaper looks for ` + "`.reaper.toml`" + `, then ` + "`reaper.toml`" + `, in the current
directory and each of its parents.

## Things you can try:
- Create a new plugin project:
~~~
$ cargo reaper new my_plugin
~~~

- Or declare an existing crate:
~~~toml
[extension_plugins]
reaper_my_plugin = "./."
~~~`,
		docLinks: []HttpLink{"https://github.com/Cloud-Scythe-Labs/cargo-reaper#configuration"},
	}

	declarationParseErrorIssue = &Issue{
		id: DeclarationParseErrorId,
		mdMsg: `
# Failed to parse the plugin declaration file!

The file is not valid TOML, or it has no ` + "`[extension_plugins]`" + ` table.

## Things you can try:
- Check the line and column reported above for a syntax error.
- Make sure every value is a quoted path string:
~~~toml
[extension_plugins]
reaper_hello = "./hello"
~~~`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# A declared plugin is not a valid extension plugin!

Each declared path must point at a crate whose ` + "`Cargo.toml`" + ` has a library target
built as a dynamic library, and every key must start with ` + "`reaper_`" + `.

## A valid manifest looks like:
~~~toml
[package]
name = "hello"
version = "0.1.0"

[lib]
name = "hello_ext"
crate-type = ["cdylib"]
~~~`,
		extLinks: []HttpLink{"https://doc.rust-lang.org/cargo/reference/cargo-targets.html#the-crate-type-field"},
	}

	buildToolFailedIssue = &Issue{
		id: BuildToolFailedId,
		mdMsg: `
# The build tool reported a failure!

The compiler output above describes what went wrong. cargo-reaper does not retry failed builds.

## Things you can try:
- Run ` + "`cargo build`" + ` in the crate directory to reproduce the error.
- Make sure the arguments after ` + "`--`" + ` are valid for ` + "`cargo build`" + `.`,
	}

	artifactNotFoundIssue = &Issue{
		id: ArtifactNotFoundId,
		mdMsg: `
# The build succeeded but the plugin library is missing!

The expected dynamic library was not found in the build output directory. This usually
means the manifest's library name or ` + "`crate-type`" + ` does not match what was built.

## Things you can try:
- Check that ` + "`[lib] crate-type`" + ` contains ` + "`\"cdylib\"`" + `.
- Check ` + "`CARGO_TARGET_DIR`" + ` and ` + "`--target-dir`" + ` point where you expect.`,
	}

	userPluginsMissingIssue = &Issue{
		id: UserPluginsMissingId,
		mdMsg: `
# REAPER's UserPlugins directory does not exist!

REAPER creates it the first time it starts.

## Things you can try:
- Launch REAPER once, then rerun the command.
- Use ` + "`--no-symlink`" + ` to build without linking.`,
		extLinks: []HttpLink{"https://www.reaper.fm/download.php"},
	}

	symlinkPrivilegeIssue = &Issue{
		id: SymlinkPrivilegeId,
		mdMsg: `
# Creating the plugin symlink was not permitted!

On Windows, creating symbolic links requires Developer Mode or an elevated shell.

## Things you can try:
- Enable Developer Mode in *Settings → For developers*.
- Run the command from an Administrator terminal.`,
		extLinks: []HttpLink{"https://learn.microsoft.com/windows/apps/get-started/enable-your-device-for-development"},
	}

	unmanagedPluginFileIssue = &Issue{
		id: UnmanagedPluginFileId,
		mdMsg: `
# A file that cargo-reaper does not manage is in the way!

A regular file with the plugin's final name already exists in UserPlugins. cargo-reaper only
replaces or removes symlinks it created.

## Things you can try:
- Move or delete the file yourself if it is an old copy of the plugin.`,
	}

	executableNotFoundIssue = &Issue{
		id: ExecutableNotFoundId,
		mdMsg: `
# REAPER executable not found!

cargo-reaper searched, in order: the ` + "`--exec`" + ` flag, ` + "`run.executable`" + ` in the
configuration, ` + "`reaper`" + ` on PATH, then the default install locations.

## Things you can try:
- Pass the path explicitly:
~~~
$ cargo reaper run --exec /path/to/reaper
~~~`,
		extLinks: []HttpLink{"https://www.reaper.fm/download.php"},
	}

	headlessUnsupportedIssue = &Issue{
		id: HeadlessUnsupportedId,
		mdMsg: `
# Headless mode is not supported on this platform!

Headless launches and window detection rely on Xvfb and xdotool, which are Linux-only.`,
	}

	headlessToolMissingIssue = &Issue{
		id: HeadlessToolMissingId,
		mdMsg: `
# A headless tool is missing!

` + "`--headless`" + ` needs ` + "`xvfb-run`" + `, and ` + "`--locate-window`" + ` needs ` + "`xdotool`" + `.

## Things you can try:
~~~
$ sudo apt install xvfb xdotool
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The cargo-reaper configuration file could not be loaded.

## Things you can try:
- Check the CUE syntax and field names reported above.
- Recreate the defaults:
~~~
$ cargo reaper config init
~~~
- Print the path being read:
~~~
$ cargo reaper config path
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		declarationNotFoundIssue.Id():   declarationNotFoundIssue,
		declarationParseErrorIssue.Id(): declarationParseErrorIssue,
		manifestInvalidIssue.Id():       manifestInvalidIssue,
		buildToolFailedIssue.Id():       buildToolFailedIssue,
		artifactNotFoundIssue.Id():      artifactNotFoundIssue,
		userPluginsMissingIssue.Id():    userPluginsMissingIssue,
		symlinkPrivilegeIssue.Id():      symlinkPrivilegeIssue,
		unmanagedPluginFileIssue.Id():   unmanagedPluginFileIssue,
		executableNotFoundIssue.Id():    executableNotFoundIssue,
		headlessUnsupportedIssue.Id():   headlessUnsupportedIssue,
		headlessToolMissingIssue.Id():   headlessToolMissingIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
