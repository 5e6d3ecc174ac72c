package segdb

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/internal/parquet"
	"github.com/gwdetchar/segcoalesce/schema"
)

// ExecuteExport writes the process table and both interval tables to Parquet files
// named after outputFile.
func ExecuteExport(ctx context.Context, w io.Writer, store contract.SegmentStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no segment data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	runsFile := outputFile + ".process.parquet"
	if err := parquet.WriteProcessesParquet(parquet.ConvertRuns(runs, contract.TimeFromGPS), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	for _, table := range schema.AllTables {
		records, err := store.AllIntervals(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to retrieve %s rows: %w", table, err)
		}
		tableFile := fmt.Sprintf("%s.%s.parquet", outputFile, table)
		if err := parquet.WriteIntervalsParquet(parquet.ConvertSegmentRecords(records), tableFile); err != nil {
			return fmt.Errorf("failed to write %s rows: %w", table, err)
		}
		_, _ = fmt.Fprintf(w, "Exported %d %s rows to: %s\n", len(records), table, tableFile)
	}

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}
