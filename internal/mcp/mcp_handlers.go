package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chemflow/equipctl/core"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/logging"
	"github.com/chemflow/equipctl/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	ws      *core.Workspace
}

func (h *toolHandler) handleUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	mediaType := request.GetString("media_type", "")
	if mediaType == "" {
		mediaType = core.MediaTypeForName(path)
	}

	name := filepath.Base(path)
	if _, err := core.ValidateFile(name, mediaType); err != nil {
		_, err = h.ws.Upload(ctx, name, mediaType, nil)
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}
	defer func() { _ = f.Close() }()

	view, err := h.ws.Upload(ctx, name, mediaType, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}
	return jsonResult(view)
}

func (h *toolHandler) handleGetHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views := h.ws.History(ctx)
	entries := make([]schema.HistoryEntry, len(views))
	for i, v := range views {
		entries[i] = schema.HistoryEntry{Position: i + 1, StatsSnapshot: v.Snapshot}
	}
	return jsonResult(entries)
}

func (h *toolHandler) handleShowHistoryEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry := request.GetInt("entry", 0)
	if entry < 1 {
		return mcp.NewToolResultError("entry must be 1 or greater"), nil
	}

	view, err := h.ws.ShowHistoryEntry(ctx, entry)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("show history entry failed: %v", err)), nil
	}
	return jsonResult(view)
}

func (h *toolHandler) handleGetDisplayed(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, ok := h.ws.Displayed()
	if !ok {
		return mcp.NewToolResultError("nothing is displayed yet. Upload a file or show a history entry first"), nil
	}
	return jsonResult(view)
}

func (h *toolHandler) handleExportReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := h.ws.Displayed(); !ok {
		return mcp.NewToolResultError("nothing is displayed yet. Upload a file or show a history entry first"), nil
	}

	dir := request.GetString("output_dir", h.baseCfg.OutputDir)
	if dir == "" {
		dir = "."
	}
	var image []byte
	if p := request.GetString("image_path", ""); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read image %s: %v", p, err)), nil
		}
		image = data
	}

	result, err := h.ws.Export(ctx, image, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// logNotifier sends workspace notices to the diagnostics log.
type logNotifier struct{}

var _ contract.Notifier = &logNotifier{} // Compile-time check

func (logNotifier) Warn(msg string) {
	logging.Warnw(msg, "source", "mcp")
}

func (logNotifier) Fail(op string, err error) {
	logging.Errorw("operation failed", "op", op, "kind", contract.KindOf(err), "error", err)
}

func (logNotifier) Info(msg string) {
	logging.Infow(msg, "source", "mcp")
}
