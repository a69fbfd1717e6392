// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/chemflow/equipctl/core"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerVersion is reported to MCP clients during initialization.
var ServerVersion = "1.0.0"

// NewMCPServer initializes and configures the equipctl MCP server without starting it.
// Every tool call shares one workspace, so the displayed snapshot survives across calls.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	// Tool calls never see later changes to the caller's config
	cfg := baseCfg.Clone()
	app := core.NewAppContext(cfg, mgr)
	// stdout carries the protocol, notices go to the diagnostics log
	app.Notifier = &logNotifier{}
	return newMCPServer(cfg, core.NewWorkspace(app))
}

func newMCPServer(baseCfg *contract.Config, ws *core.Workspace) *server.MCPServer {
	s := server.NewMCPServer(
		"Equipment Statistics Server",
		ServerVersion,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		ws:      ws,
	}

	// --- 1. Tool: upload_equipment_csv ---
	s.AddTool(mcp.NewTool("upload_equipment_csv",
		mcp.WithDescription("Upload an equipment CSV file for analysis and display the resulting statistics."),
		mcp.WithString("path", mcp.Description("Path to the CSV file on the local machine."), mcp.Required()),
		mcp.WithString("media_type", mcp.Description("Declared media type (defaults to one derived from the file extension).")),
	), h.handleUpload)

	// --- 2. Tool: get_history ---
	s.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List the most recent statistics snapshots kept by the server, newest first."),
	), h.handleGetHistory)

	// --- 3. Tool: show_history_entry ---
	s.AddTool(mcp.NewTool("show_history_entry",
		mcp.WithDescription("Display one history entry so it can be exported."),
		mcp.WithNumber("entry", mcp.Description("1-based position in the history list."), mcp.Required()),
	), h.handleShowHistoryEntry)

	// --- 4. Tool: get_displayed ---
	s.AddTool(mcp.NewTool("get_displayed",
		mcp.WithDescription("Return the snapshot and chart dataset currently displayed."),
	), h.handleGetDisplayed)

	// --- 5. Tool: export_report ---
	s.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Export a PDF report for the displayed snapshot."),
		mcp.WithString("output_dir", mcp.Description("Directory the report is saved into (defaults to the configured output directory).")),
		mcp.WithString("image_path", mcp.Description("PNG chart image to embed instead of the rendered chart.")),
	), h.handleExportReport)

	return s
}

// StartMCPServer starts the equipctl MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
