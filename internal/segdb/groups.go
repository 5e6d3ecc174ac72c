package segdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gwdetchar/segcoalesce/schema"
)

// ListGroups returns the definers that have rows in either table inside the window.
// The result is ordered by definer id.
func (s *Store) ListGroups(ctx context.Context, window schema.Window, filter schema.GroupFilter) ([]schema.Group, error) {
	version := filter.Version
	if version <= 0 {
		version = schema.DefaultDefinerVersion
	}

	var b strings.Builder
	args := []any{version}
	fmt.Fprintf(&b, `SELECT d.segment_def_id, d.ifos, d.name, d.version FROM %s d WHERE d.version = ?`,
		quoteTableName(definerTable, s.backend))

	b.WriteString(" AND (")
	for i, table := range schema.AllTables {
		if i > 0 {
			b.WriteString(" OR ")
		}
		fmt.Fprintf(&b, `EXISTS (SELECT 1 FROM %s t WHERE t.segment_def_id = d.segment_def_id AND t.start_time BETWEEN ? AND ?)`,
			quoteTableName(string(table), s.backend))
		args = append(args, window.Start, window.End)
	}
	b.WriteString(")")

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
	b.WriteString(" ORDER BY d.segment_def_id")

	rows, err := s.db.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, queryFailure("select definers", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []schema.Group
	for rows.Next() {
		var g schema.Group
		if err := rows.Scan(&g.DefID, &g.IFOs, &g.Name, &g.Version); err != nil {
			return nil, queryFailure("scan definer", err)
		}
		g.IFOs = strings.TrimSpace(g.IFOs)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailure("iterate definers", err)
	}
	return groups, nil
}

// EnsureDefiner returns the definer for ifos/name/version, creating it on behalf of runID if missing.
func (s *Store) EnsureDefiner(ctx context.Context, ifos, name string, version int, runID string) (schema.Group, error) {
	g, err := s.findDefiner(ctx, ifos, name, version)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return schema.Group{}, queryFailure("select definer", err)
	}

	g = schema.Group{DefID: uuid.NewString(), IFOs: ifos, Name: name, Version: version}
	query := fmt.Sprintf(`INSERT INTO %s (segment_def_id, creator_db, ifos, name, version, process_id) VALUES (?, ?, ?, ?, ?, ?)`,
		quoteTableName(definerTable, s.backend))
	if _, insErr := s.db.ExecContext(ctx, s.rebind(query), g.DefID, s.creatorDB, ifos, name, version, runID); insErr != nil {
		// Another writer may have created it in the meantime.
		if found, err := s.findDefiner(ctx, ifos, name, version); err == nil {
			return found, nil
		}
		return schema.Group{}, queryFailure("insert definer", insErr)
	}
	return g, nil
}

func (s *Store) findDefiner(ctx context.Context, ifos, name string, version int) (schema.Group, error) {
	query := fmt.Sprintf(`SELECT segment_def_id, ifos, name, version FROM %s WHERE ifos = ? AND name = ? AND version = ?`,
		quoteTableName(definerTable, s.backend))
	var g schema.Group
	err := s.db.QueryRowContext(ctx, s.rebind(query), ifos, name, version).Scan(&g.DefID, &g.IFOs, &g.Name, &g.Version)
	return g, err
}
