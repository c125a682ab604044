// Package cli implements the bsdesk CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bsdesk",
	Short: "Manage the BusinessSuite desktop agent",
	Long: `Bsdesk manages the BusinessSuite desktop agent (bsdeskd), the tray
process that delivers reminder notifications and keeps the unread badge
in sync with the CRM.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}
