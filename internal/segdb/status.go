package segdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
)

// allTables lists every table of a segment database, children first.
var allTables = []string{string(schema.SummaryTable), string(schema.SegmentTable), definerTable, processTable}

// Status returns summary information about the store.
func (s *Store) Status(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	processes := quoteTableName(processTable, s.backend)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", processes))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, queryFailure("count runs", err)
	}
	row = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE end_time IS NULL", processes))
	if err := row.Scan(&status.OpenRuns); err != nil {
		return status, queryFailure("count open runs", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT process_id, start_time FROM %s ORDER BY start_time DESC, process_id LIMIT 1", processes)
		err := s.db.QueryRowContext(ctx, lastRunQuery).Scan(&status.LastRunID, &status.LastRunStart)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return status, queryFailure("get last run", err)
		}
	}

	row = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(definerTable, s.backend)))
	if err := row.Scan(&status.TotalDefiners); err != nil {
		return status, queryFailure("count definers", err)
	}

	for _, table := range allTables {
		var count int64
		row = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
		if err := row.Scan(&count); err != nil {
			return status, queryFailure(fmt.Sprintf("count %s", table), err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// Clear deletes every row of the segment database.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range allTables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteTableName(table, s.backend))); err != nil {
			return queryFailure(fmt.Sprintf("clear %s", table), err)
		}
	}
	return nil
}

// PrintStatus prints store status information.
func PrintStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Database Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Open Runs: %d\n", status.OpenRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: GPS %d (%s)\n", status.LastRunStart,
			contract.TimeFromGPS(status.LastRunStart).Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Total Definers: %d\n", status.TotalDefiners)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
