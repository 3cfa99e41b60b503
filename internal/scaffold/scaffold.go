// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates new extension plugin projects from embedded
// templates.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/pkg/types"
)

const (
	// TemplateExtension is a native extension plugin using reaper-rs.
	TemplateExtension Template = "extension"
	// TemplateVST is a VST2 plugin that talks to the host through reaper-rs.
	TemplateVST Template = "vst"
)

var (
	// ErrPathExists is returned when the project directory already exists.
	ErrPathExists = errors.New("project path already exists")
	// ErrInvalidPackageName is returned when the directory name is not a
	// valid package name.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrUnknownTemplate is returned by ParseTemplate.
	ErrUnknownTemplate = errors.New("unknown template")

	packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

	//go:embed templates
	templates embed.FS
)

type (
	// Template selects the src/lib.rs starting point.
	Template string

	// Options configures Create.
	Options struct {
		// Path is the project directory to create. Its base name becomes the
		// package name.
		Path     string
		Template Template
		// NoGit skips initialising a git repository.
		NoGit  bool
		Logger *log.Logger
	}

	// Result describes a created project.
	Result struct {
		Dir         string
		PackageName string
		Key         types.PluginKey
		// Files are the created files relative to Dir, in creation order.
		Files []string
	}

	templateData struct {
		PackageName string
		LibName     string
		Key         types.PluginKey
		Prefix      string
		Template    Template
	}
)

// Templates lists the available templates.
func Templates() []Template { return []Template{TemplateExtension, TemplateVST} }

// ParseTemplate parses a template name.
func ParseTemplate(s string) (Template, error) {
	for _, t := range Templates() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q (valid: extension, vst)", ErrUnknownTemplate, s)
}

// String implements fmt.Stringer.
func (t Template) String() string { return string(t) }

// Set implements pflag.Value.
func (t *Template) Set(s string) error {
	parsed, err := ParseTemplate(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Type implements pflag.Value.
func (t *Template) Type() string { return "template" }

// Create writes a new plugin project at opts.Path: the package manifest,
// src/lib.rs, a reaper.toml declaring the package under its prefixed key and
// a .gitignore, then initialises a git repository. A partially written
// project is removed on failure.
func Create(opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = TemplateExtension
	}
	if _, err := ParseTemplate(string(tmpl)); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	if _, err := os.Lstat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrPathExists, dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("check project path: %w", err)
	}

	name := filepath.Base(dir)
	if !packageNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w %q: use letters, digits, '-' or '_', starting with a letter", ErrInvalidPackageName, name)
	}

	data := templateData{
		PackageName: name,
		LibName:     strings.ReplaceAll(name, "-", "_"),
		Key:         types.NewPluginKey(strings.ReplaceAll(name, "-", "_")),
		Prefix:      types.PluginKeyPrefix,
		Template:    tmpl,
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				logger.Warn("remove partial project", "dir", dir, "err", rmErr)
			}
		}
	}()

	res = &Result{Dir: dir, PackageName: name, Key: data.Key}
	files := []struct {
		dest, src string
		render    bool
	}{
		{"Cargo.toml", "templates/Cargo.toml.tmpl", true},
		{path.Join("src", "lib.rs"), path.Join("templates", string(tmpl), "lib.rs"), false},
		{"reaper.toml", "templates/reaper.toml.tmpl", true},
		{".gitignore", "templates/gitignore", false},
	}
	for _, f := range files {
		content, err := templates.ReadFile(f.src)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", f.src, err)
		}
		if f.render {
			if content, err = render(f.src, content, data); err != nil {
				return nil, err
			}
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(f.dest)), content, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.dest, err)
		}
		logger.Debug("created file", "path", f.dest)
		res.Files = append(res.Files, f.dest)
	}

	if !opts.NoGit {
		if _, err := git.PlainInit(dir, false); err != nil {
			return nil, fmt.Errorf("initialize git repository: %w", err)
		}
		logger.Debug("initialized git repository", "dir", dir)
	}
	return res, nil
}

func render(name string, src []byte, data templateData) ([]byte, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
