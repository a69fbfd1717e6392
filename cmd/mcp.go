package cmd

import (
	"github.com/chemflow/equipctl/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the equipctl MCP server",
	Long: `Launch an MCP server on stdio so AI agents can upload equipment files, browse
the history, and export reports through standard tools. Notices go to the
diagnostics log because stdout carries the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
