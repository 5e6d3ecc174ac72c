package segdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/gwdetchar/segcoalesce/schema"
)

// AllIntervals returns every stored row of a table joined with its definer.
func (s *Store) AllIntervals(ctx context.Context, table schema.Table) ([]schema.SegmentRecord, error) {
	return s.intervals(ctx, table, schema.GroupFilter{})
}

// FindIntervals returns the stored rows of a table whose definer matches the filter.
// A zero Version matches every version.
func (s *Store) FindIntervals(ctx context.Context, table schema.Table, filter schema.GroupFilter) ([]schema.SegmentRecord, error) {
	return s.intervals(ctx, table, filter)
}

func (s *Store) intervals(ctx context.Context, table schema.Table, filter schema.GroupFilter) ([]schema.SegmentRecord, error) {
	idCol, err := idColumn(table)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var args []any
	fmt.Fprintf(&b, `SELECT t.%s, d.segment_def_id, d.ifos, d.name, d.version, t.start_time, t.end_time, t.process_id
		FROM %s t JOIN %s d ON d.segment_def_id = t.segment_def_id WHERE 1 = 1`,
		idCol, quoteTableName(string(table), s.backend), quoteTableName(definerTable, s.backend))
	if filter.Version > 0 {
		b.WriteString(" AND d.version = ?")
		args = append(args, filter.Version)
	}
	if len(filter.IFOs) > 0 {
		fmt.Fprintf(&b, " AND d.ifos IN (%s)", placeholders(len(filter.IFOs)))
		for _, ifo := range filter.IFOs {
			args = append(args, ifo)
		}
	}
	if len(filter.Names) > 0 {
		fmt.Fprintf(&b, " AND d.name IN (%s)", placeholders(len(filter.Names)))
		for _, name := range filter.Names {
			args = append(args, name)
		}
	}
	fmt.Fprintf(&b, " ORDER BY d.ifos, d.name, d.version, t.start_time, t.end_time, t.%s", idCol)

	rows, err := s.db.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, queryFailure(fmt.Sprintf("select %s rows", table), err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.SegmentRecord
	for rows.Next() {
		rec := schema.SegmentRecord{Table: table}
		if err := rows.Scan(&rec.RowID, &rec.DefID, &rec.IFOs, &rec.Name, &rec.Version,
			&rec.StartTime, &rec.EndTime, &rec.ProcessID); err != nil {
			return nil, queryFailure(fmt.Sprintf("scan %s row", table), err)
		}
		rec.IFOs = strings.TrimSpace(rec.IFOs)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailure(fmt.Sprintf("iterate %s rows", table), err)
	}
	return out, nil
}
