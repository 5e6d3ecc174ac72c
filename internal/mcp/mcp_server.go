// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/inconshreveable/log15"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the segcoalesce MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.SegmentStore, logger log15.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Segment Coalescing Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
		logger:  logger,
	}

	// --- 1. Tool: coalesce_intervals ---
	s.AddTool(mcp.NewTool("coalesce_intervals",
		mcp.WithDescription("Coalesce a list of [start, end) GPS intervals into the minimal sorted, disjoint set. Nothing is read from or written to the database."),
		mcp.WithString("intervals", mcp.Description("Comma separated START:END pairs, e.g. '0:10,5:15,20:30'."), mcp.Required()),
	), h.handleCoalesceIntervals)

	// --- 2. Tool: store_status ---
	s.AddTool(mcp.NewTool("store_status",
		mcp.WithDescription("Report row counts and run statistics of the segment database."),
	), h.handleStoreStatus)

	// --- 3. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the runs (process rows) registered in the segment database, newest first."),
		mcp.WithBoolean("open_only", mcp.Description("Only return runs without an end time.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListRuns)

	// --- 4. Tool: preview_window ---
	s.AddTool(mcp.NewTool("preview_window",
		mcp.WithDescription("Dry-run a coalescing pass over a GPS window and report what would change without writing."),
		mcp.WithString("start", mcp.Description("Window start: GPS seconds, RFC3339, 'now' or 'N [units] ago'."), mcp.Required()),
		mcp.WithString("end", mcp.Description("Window end: GPS seconds, RFC3339, 'now' or 'N [units] ago'."), mcp.Required()),
		mcp.WithString("ifos", mcp.Description("Comma separated interferometers to include.")),
		mcp.WithString("names", mcp.Description("Comma separated segment_definer names to include.")),
		mcp.WithNumber("version", mcp.Description("segment_definer version. Defaults to the configured version.")),
	), h.handlePreviewWindow)

	return s
}

// StartMCPServer starts the segcoalesce MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.SegmentStore, logger log15.Logger) error {
	s := NewMCPServer(baseCfg, store, logger)
	return server.ServeStdio(s)
}
