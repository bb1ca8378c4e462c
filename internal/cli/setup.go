package cli

import (
	"github.com/spf13/cobra"

	"github.com/kk-code-lab/rpick/internal/shellsetup"
)

var parentShellDetector = shellsetup.DetectParentShellName

func newSetupCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "setup [shell]",
		Short: "Print a ctrl-t key binding that inserts picked records into the command line",
		Long: `Print shell integration for bash, zsh, fish or PowerShell. Without an
argument the shell is detected from $SHELL or the parent process.

    eval "$(rpick setup bash)"`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "pwsh"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := ""
			if len(args) > 0 {
				shell = args[0]
			}
			return shellsetup.Write(cmd.OutOrStdout(), shell, shellsetup.Config{
				DetectParent: parentShellDetector,
				Getenv:       e.getenv,
			})
		},
	}
}
