package cmd

import (
	"context"
	"os"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/segdb"
	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

// exportCmd exports the segment database to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and intervals to Parquet for analytics",
	Long: `Export the segment database to Parquet format for use with analytics tools.

Writes three files next to --output-file:
- PREFIX.process.parquet         - every run
- PREFIX.segment.parquet         - every segment row with its definer
- PREFIX.segment_summary.parquet - every segment_summary row with its definer

Requires: --output-file parameter

Examples:
  # Export everything
  segcoalesce export --output-file segdb

  # Use with DuckDB
  duckdb -c "SELECT ifos, name, sum(duration) FROM read_parquet('segdb.segment.parquet') GROUP BY ALL"`,
	PreRunE: sharedSetup,
	RunE: withStore(func(ctx context.Context, cfg *contract.Config, store contract.SegmentStore, _ log15.Logger) error {
		return segdb.ExecuteExport(ctx, os.Stdout, store, cfg.OutputFile)
	}),
}
