package cmd

import (
	"context"

	"github.com/gwdetchar/segcoalesce/core"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

// runsCmd focused on the process rows that own coalesced intervals.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and repair registered runs (process rows)",
	Long: `Every coalescing pass and every seed load registers a run in the process table.
Rows written by a pass are attributed to its run.

A run without an end time is treated as still in progress: its rows are ignored
by other passes. A pass that was killed leaves its run open; close it by hand
once you are sure it is gone.

Subcommands:
  list  - Show every run, newest first
  close - Stamp the end time of a run left open`,
}

// runsListCmd lists runs.
var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every registered run, newest first",
	Long: `List the process rows of the segment database.

Examples:
  # Show runs as a table
  segcoalesce runs list

  # Export runs to CSV
  segcoalesce runs list --output csv --output-file runs.csv`,
	PreRunE: sharedSetup,
	RunE:    withStore(core.ExecuteListRuns),
}

// runsCloseCmd closes a run left open.
var runsCloseCmd = &cobra.Command{
	Use:   "close RUN_ID",
	Short: "Stamp the end time of a run left open",
	Long: `Set the end time of a run to now. Its rows become visible to later passes.

Examples:
  segcoalesce runs close 0b8c7a4e-1f7e-4f55-9b3e-1c1d4f0f3a77`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]
		return withStore(func(ctx context.Context, _ *contract.Config, store contract.SegmentStore, logger log15.Logger) error {
			return core.CloseRun(ctx, store, logger, runID)
		})(cmd, args)
	},
}
