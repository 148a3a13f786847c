package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cbhands",
		Short: "Plugin-based service manager for game backend development",
		Long: `cbhands manages the long-running backend services a card-game stack
needs during development. Functionality is provided by plugins, each
contributing commands for starting, stopping, and inspecting services.
Use "cbhands plugin list" to see what is loaded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to showing help if no subcommand
			return cmd.Help()
		},
	}

	return rootCmd
}
