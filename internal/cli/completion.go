package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for jrevolver.

To load completions:

Bash:
  $ source <(jrevolver completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ jrevolver completion bash > /etc/bash_completion.d/jrevolver
  # macOS:
  $ jrevolver completion bash > $(brew --prefix)/etc/bash_completion.d/jrevolver

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ jrevolver completion zsh > "${fpath[1]}/_jrevolver"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ jrevolver completion fish | source

  # To load completions for each session, execute once:
  $ jrevolver completion fish > ~/.config/fish/completions/jrevolver.fish

PowerShell:
  PS> jrevolver completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> jrevolver completion powershell > jrevolver.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.Out)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}
