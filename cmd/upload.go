package cmd

import (
	"github.com/chemflow/equipctl/core"
	"github.com/spf13/cobra"
)

// uploadCmd submits one CSV file and shows the resulting statistics.
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an equipment CSV file and show its statistics.",
	Long: `Validate a CSV file locally, send it to the statistics service and display
the returned summary: total equipment, average pressure and temperature, and the
distribution of equipment types.

Only .csv files (or files declared as text/csv) are sent. Anything else is rejected
before a request is made.

Examples:
  # Analyse a file
  equipctl upload plant.csv

  # Analyse and export a PDF report into ./reports
  equipctl upload plant.csv --export --output-dir reports

  # Save the statistics as JSON
  equipctl upload plant.csv --output json --output-file stats.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		exitOnError("Cannot upload file", core.ExecuteUpload(rootCtx, cfg, storeManager, args[0]))
	},
}
