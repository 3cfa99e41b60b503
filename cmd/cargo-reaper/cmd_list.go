// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/link"
	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/manifest"
)

const (
	listFormatText = "text"
	listFormatJSON = "json"
	listFormatYAML = "yaml"
)

type (
	listFlagValues struct {
		format string
		linked bool
	}

	// listEntry is one plugin in `list` output.
	listEntry struct {
		Key          string      `json:"key" yaml:"key"`
		Name         string      `json:"name" yaml:"name"`
		Version      string      `json:"version" yaml:"version"`
		Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
		Authors      []string    `json:"authors,omitempty" yaml:"authors,omitempty"`
		ManifestPath string      `json:"manifest_path" yaml:"manifest_path"`
		Layout       string      `json:"layout" yaml:"layout"`
		Link         *linkStatus `json:"link,omitempty" yaml:"link,omitempty"`
	}

	linkStatus struct {
		Path      string `json:"path" yaml:"path"`
		Linked    bool   `json:"linked" yaml:"linked"`
		Target    string `json:"target,omitempty" yaml:"target,omitempty"`
		Dangling  bool   `json:"dangling,omitempty" yaml:"dangling,omitempty"`
		Unmanaged bool   `json:"unmanaged,omitempty" yaml:"unmanaged,omitempty"`
	}
)

// newListCommand creates the `cargo-reaper list` command.
func newListCommand(app *App) *cobra.Command {
	var flags listFlagValues

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available extension plugin(s)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return runList(app, s, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", listFormatText, "output format (text, json or yaml)")
	cmd.Flags().BoolVar(&flags.linked, "linked", false, "show each plugin's UserPlugins link")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{listFormatText, listFormatJSON, listFormatYAML}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runList(app *App, s *session, flags listFlagValues) error {
	switch flags.format {
	case listFormatText, listFormatJSON, listFormatYAML:
	default:
		return fmt.Errorf("invalid --format %q (expected text, json or yaml)", flags.format)
	}

	_, plugins, err := app.resolvePlugins(s)
	if err != nil {
		return err
	}

	var manager *link.Manager
	if flags.linked {
		if manager, err = app.linkManager(s); err != nil {
			return err
		}
	}

	entries := make([]listEntry, 0, len(plugins))
	for _, p := range plugins {
		entry := newListEntry(p)
		if manager != nil {
			st, err := manager.Status(p.Key, app.Platform)
			if err != nil {
				return err
			}
			entry.Link = &linkStatus{
				Path:      st.LinkPath,
				Linked:    st.Linked,
				Target:    st.Target,
				Dangling:  st.Dangling,
				Unmanaged: st.Unmanaged,
			}
		}
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b listEntry) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})

	switch flags.format {
	case listFormatJSON:
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case listFormatYAML:
		enc := yaml.NewEncoder(app.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		writeListText(app.stdout, entries)
		return nil
	}
}

func newListEntry(p manifest.ExtensionPlugin) listEntry {
	return listEntry{
		Key:          p.Key.String(),
		Name:         p.Manifest.PackageName,
		Version:      p.Manifest.Version,
		Description:  p.Manifest.Description,
		Authors:      p.Manifest.Authors,
		ManifestPath: p.Manifest.ManifestPath,
		Layout:       string(p.Manifest.Layout.Kind()),
	}
}

// writeListText prints the "Available Plugins" block, one section per
// plugin separated by "--".
func writeListText(w io.Writer, entries []listEntry) {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString(TitleStyle.Render(e.Name))
		if e.Version != "" {
			sb.WriteString(" " + SubtitleStyle.Render("v"+e.Version))
		}
		if e.Description != "" {
			sb.WriteString(" -- " + e.Description)
		}
		if len(e.Authors) > 0 {
			sb.WriteString("\n\nAuthored by: " + strings.Join(e.Authors, ", "))
		}
		if e.Link != nil {
			sb.WriteString("\n\n" + describeLink(e.Key, e.Link))
		}
		blocks = append(blocks, sb.String())
	}
	fmt.Fprintf(w, "\n%s\n\n%s\n", TitleStyle.Render("Available Plugins:"), strings.Join(blocks, "\n\n--\n\n"))
}

func describeLink(key string, st *linkStatus) string {
	name := CmdStyle.Render(key)
	switch {
	case st.Unmanaged:
		return fmt.Sprintf("%s: %s", name, WarningStyle.Render("unmanaged file at "+st.Path))
	case st.Dangling:
		return fmt.Sprintf("%s: %s", name, WarningStyle.Render("dangling link to "+st.Target))
	case st.Linked:
		return fmt.Sprintf("%s: %s", name, SuccessStyle.Render("linked to "+st.Target))
	default:
		return fmt.Sprintf("%s: %s", name, SubtitleStyle.Render("not linked"))
	}
}
