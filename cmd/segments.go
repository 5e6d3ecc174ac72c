package cmd

import (
	"github.com/gwdetchar/segcoalesce/core"
	"github.com/spf13/cobra"
)

// segmentsCmd focused on the raw interval rows.
var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Load and inspect raw segment rows",
	Long: `Work with the rows of the segment and segment_summary tables directly.

Subcommands:
  load - Insert raw rows from a CSV file under a new run
  show - List stored rows`,
}

// segmentsLoadCmd seeds raw rows.
var segmentsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Insert raw rows from a CSV file",
	Long: `Insert raw intervals from a CSV file of "table,ifos,name,version,start,end" rows.
A header line and lines starting with # are skipped. Missing segment_definer rows
are created. Rows are inserted as given; nothing is coalesced.

Examples:
  # Seed a test database
  segcoalesce segments load --file rows.csv

  # Only validate the file
  segcoalesce segments load --file rows.csv --dry-run`,
	PreRunE: sharedSetup,
	RunE:    withStore(core.ExecuteLoad),
}

// segmentsShowCmd lists stored rows.
var segmentsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored segment and segment_summary rows",
	Long: `Show stored rows of both interval tables. --ifos, --names and --definer-version
narrow the definers; --start and --end keep rows whose start lies in the window.

Examples:
  # Show all H1 rows
  segcoalesce segments show --ifos H1

  # Show rows starting in a window as JSON
  segcoalesce segments show --start 1400000000 --end 1400086400 --output json`,
	PreRunE: sharedSetup,
	RunE:    withStore(core.ExecuteShowSegments),
}
