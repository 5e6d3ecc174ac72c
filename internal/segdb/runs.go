package segdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
)

const runColumns = `process_id, creator_db, COALESCE(program, ''), COALESCE(node, ''), COALESCE(username, ''),
	COALESCE(unix_procid, 0), start_time, end_time, jobid, COALESCE(domain, '')`

// BeginRun registers a new process row and returns the run it represents.
func (s *Store) BeginRun(ctx context.Context, info schema.RunInfo) (schema.Run, error) {
	creatorDB := info.CreatorDB
	if creatorDB <= 0 {
		creatorDB = s.creatorDB
	}
	run := schema.Run{
		ID:        uuid.NewString(),
		CreatorDB: creatorDB,
		Program:   info.Program,
		Node:      info.Node,
		Username:  info.Username,
		UnixPID:   info.UnixPID,
		StartTime: info.StartTime,
		JobID:     info.JobID,
		Domain:    info.Domain,
	}

	isOnline := 0
	if info.IsOnline {
		isOnline = 1
	}
	query := fmt.Sprintf(`INSERT INTO %s (process_id, creator_db, program, is_online, node, username,
		unix_procid, start_time, jobid, domain) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quoteTableName(processTable, s.backend))
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		run.ID, run.CreatorDB, run.Program, isOnline, run.Node, run.Username,
		run.UnixPID, run.StartTime, run.JobID, run.Domain)
	if err != nil {
		return schema.Run{}, queryFailure("insert process row", err)
	}
	return run, nil
}

// EndRun stamps the end time (GPS seconds) of a run.
func (s *Store) EndRun(ctx context.Context, runID string, endGPS int64) error {
	query := fmt.Sprintf(`UPDATE %s SET end_time = ? WHERE process_id = ?`, quoteTableName(processTable, s.backend))
	res, err := s.db.ExecContext(ctx, s.rebind(query), endGPS, runID)
	if err != nil {
		return queryFailure("update process end time", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return queryFailure("update process end time", err)
	}
	if n == 0 {
		// MySQL reports zero affected rows when the value is unchanged, so check existence.
		if _, err := s.GetRun(ctx, runID); err != nil {
			return err
		}
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, runID string) (schema.Run, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE process_id = ?`, runColumns, quoteTableName(processTable, s.backend))
	run, err := scanRun(s.db.QueryRowContext(ctx, s.rebind(query), runID))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Run{}, fmt.Errorf("%w: %s", contract.ErrRunNotFound, runID)
	}
	if err != nil {
		return schema.Run{}, queryFailure("select process row", err)
	}
	return run, nil
}

// ListRuns returns all registered runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]schema.Run, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY start_time DESC, process_id`, runColumns, quoteTableName(processTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryFailure("select process rows", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, queryFailure("scan process row", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailure("iterate process rows", err)
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (schema.Run, error) {
	var run schema.Run
	var endTime sql.NullInt64
	if err := row.Scan(&run.ID, &run.CreatorDB, &run.Program, &run.Node, &run.Username,
		&run.UnixPID, &run.StartTime, &endTime, &run.JobID, &run.Domain); err != nil {
		return schema.Run{}, err
	}
	if endTime.Valid {
		end := endTime.Int64
		run.EndTime = &end
	}
	return run, nil
}
