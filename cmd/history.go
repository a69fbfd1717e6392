package cmd

import (
	"github.com/chemflow/equipctl/core"
	"github.com/spf13/cobra"
)

// historyCmd lists the recent snapshots kept by the service.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent uploads, newest first.",
	Long: `Fetch the short history of recent analyses kept by the service.

The service keeps the last five uploads. When the history cannot be fetched the
list is shown as empty and the cause is written to the diagnostics log.

Examples:
  # Show the history
  equipctl history

  # Save it for a spreadsheet
  equipctl history --output csv --output-file history.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		exitOnError("Cannot show history", core.ExecuteHistory(rootCtx, cfg, storeManager))
	},
}
