package cmd

import (
	"context"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/mcp"
	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the segcoalesce MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents coalesce interval lists,
inspect the segment database and preview coalescing passes. The server never writes.`,
	PreRunE: sharedSetup,
	RunE: withStore(func(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, logger log15.Logger) error {
		return mcp.StartMCPServer(ctx, cfg, store, logger)
	}),
}
