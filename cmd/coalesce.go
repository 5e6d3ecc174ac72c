package cmd

import (
	"github.com/gwdetchar/segcoalesce/core"
	"github.com/spf13/cobra"
)

// coalesceCmd runs one coalescing pass over a GPS window.
var coalesceCmd = &cobra.Command{
	Use:   "coalesce",
	Short: "Merge overlapping and adjacent intervals inside a GPS window.",
	Long: `Coalesce the segment and segment_summary rows of every segment_definer that has
rows starting inside [--start, --end].

For each definer and table, the rows are merged into the minimal sorted set of
disjoint intervals. Touching intervals are merged; empty intervals are dropped.
When a table is already minimal nothing is written, so its rows keep the
process_id of the run that wrote them and the group is reported as unchanged.
Otherwise the merged set is inserted under a new process row, the old rows are
deleted and the result is read back and checked.

Rows written by other runs that are still open are left alone.

Transaction modes:
  window - all definers commit together; any failure rolls back the whole pass
  group  - each definer commits on its own; the pass stops at the first failure

The process row is closed when the pass ends, including on failure or Ctrl-C.

Examples:
  # Coalesce one day of H1 and L1 segments
  segcoalesce coalesce --start 1400000000 --end 1400086400 --ifos H1,L1

  # See what would change without writing
  segcoalesce coalesce --start "1 week ago" --end now --dry-run

  # Commit per definer and keep a JSON report
  segcoalesce coalesce --start 1400000000 --end 1400086400 --tx-mode group --output json --output-file report.json`,
	PreRunE: sharedSetup,
	RunE:    withStore(core.ExecuteCoalesce),
}
