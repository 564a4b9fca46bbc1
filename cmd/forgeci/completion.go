// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Generate shell completion scripts",
	Long: `Generate a completion script for forgeci so that subcommands, flags
and allowlist operations tab-complete in your shell.

` + SubtitleStyle.Render("Install:") + `
  # bash, current session only:
  eval "$(forgeci completion bash)"

  # zsh, persistent:
  forgeci completion zsh > "${fpath[1]}/_forgeci"

  # fish, persistent:
  forgeci completion fish > ~/.config/fish/completions/forgeci.fish

  # powershell, add to $PROFILE:
  forgeci completion powershell >> $PROFILE`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(os.Stdout)
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell %q", args[0])
		}
	},
}
