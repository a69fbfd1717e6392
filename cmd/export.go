package cmd

import (
	"github.com/chemflow/equipctl/core"
	"github.com/spf13/cobra"
)

// exportCmd exports a PDF report for one history entry.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a PDF report for a history entry.",
	Long: `Display one entry of the history and ask the service for a protected PDF report.

The chart is rendered locally as a PNG unless --image is given. The report is
named after the snapshot timestamp and only appears in --output-dir once the
whole document has been received.

Examples:
  # Export the newest upload
  equipctl export

  # Export the third entry into ./reports
  equipctl export --entry 3 --output-dir reports`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		exitOnError("Cannot export report", core.ExecuteExport(rootCtx, cfg, storeManager))
	},
}
