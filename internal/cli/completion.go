package cli

import (
	"github.com/spf13/cobra"
)

// scenarioExtensions are the file types scenario.Load decodes.
var scenarioExtensions = []string{"toml", "yaml", "yml", "json"}

// completeScenario completes the single scenario argument of place, sweep
// and preview with scenario files only.
func completeScenario(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return scenarioExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for popover. Scenario arguments of
place, sweep and preview complete to .toml, .yaml, .yml and .json files.

To load completions:

Bash:
  $ source <(popover completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ popover completion bash > /etc/bash_completion.d/popover
  # macOS:
  $ popover completion bash > $(brew --prefix)/etc/bash_completion.d/popover

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ popover completion zsh > "${fpath[1]}/_popover"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ popover completion fish | source

  # To load completions for each session, execute once:
  $ popover completion fish > ~/.config/fish/completions/popover.fish

PowerShell:
  PS> popover completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> popover completion powershell > popover.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}
