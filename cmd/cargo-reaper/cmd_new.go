// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Cloud-Scythe-Labs/cargo-reaper/internal/scaffold"
)

type newFlagValues struct {
	template scaffold.Template
	noGit    bool
}

// newNewCommand creates the `cargo-reaper new` command.
func newNewCommand(app *App) *cobra.Command {
	flags := newFlagValues{template: scaffold.TemplateExtension}

	cmd := &cobra.Command{
		Use:   "new <path>",
		Short: "Create a new REAPER extension plugin from a template at <path>",
		Long: `Create a new REAPER extension plugin from a template at <path>.

The directory name becomes the package name. The project contains a
Cargo.toml building a cdylib, src/lib.rs, a reaper.toml declaring the
plugin and a .gitignore. A git repository is initialised unless --no-git
is given.`,
		Example: `  cargo reaper new my_plugin
  cargo reaper new --template vst my_vst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			return runNew(app, s, args[0], flags)
		},
	}

	cmd.Flags().Var(&flags.template, "template", "project template (extension or vst)")
	cmd.Flags().BoolVar(&flags.noGit, "no-git", false, "do not initialise a git repository")
	_ = cmd.RegisterFlagCompletionFunc("template", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(scaffold.Templates()))
		for _, t := range scaffold.Templates() {
			names = append(names, t.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runNew(app *App, s *session, path string, flags newFlagValues) error {
	res, err := scaffold.Create(scaffold.Options{
		Path:     path,
		Template: flags.template,
		NoGit:    flags.noGit,
		Logger:   s.logger,
	})
	if err != nil {
		return err
	}

	printStatus(app.stdout, "Created", "%s plugin `%s` (%s)", flags.template, res.PackageName, CmdStyle.Render(res.Key.String()))
	if s.verbose {
		for _, f := range res.Files {
			printStatus(app.stdout, "", "%s", VerboseStyle.Render(f))
		}
	}
	return nil
}
