// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `cargo-reaper completion` command.
func newCompletionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "completion [bash|zsh|fish|powershell]",
		Aliases: []string{"completions"},
		Short:   "Generate shell completion scripts",
		Long: `Generate shell completion scripts for cargo-reaper.

To enable shell completions, run one of the following commands:

` + SubtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(cargo-reaper completion bash)"

  # Or install system-wide:
  cargo-reaper completion bash > /etc/bash_completion.d/cargo-reaper

` + SubtitleStyle.Render("Zsh:") + `
  # Add to ~/.zshrc:
  eval "$(cargo-reaper completion zsh)"

  # Or install to fpath:
  cargo-reaper completion zsh > "${fpath[1]}/_cargo-reaper"

` + SubtitleStyle.Render("Fish:") + `
  cargo-reaper completion fish > ~/.config/fish/completions/cargo-reaper.fish

` + SubtitleStyle.Render("PowerShell:") + `
  cargo-reaper completion powershell | Out-String | Invoke-Expression

  # Or add to $PROFILE:
  cargo-reaper completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(app.stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(app.stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(app.stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(app.stdout)
			}
			return nil
		},
	}
}
