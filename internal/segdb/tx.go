package segdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/hashicorp/go-multierror"
)

// segmentTx implements contract.SegmentTx over one database transaction.
type segmentTx struct {
	store      *Store
	conn       *sql.Conn
	tx         *sql.Tx
	held       []string // definer ids locked in process
	mysqlLocks []string // GET_LOCK names to release once the transaction ends
}

var _ contract.SegmentTx = &segmentTx{} // Compile-time check

// WithGroup runs fn inside one transaction holding the lock of the group.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithGroup(ctx context.Context, group schema.Group, fn func(tx contract.SegmentTx) error) error {
	return s.WithWindow(ctx, func(tx contract.SegmentTx) error {
		if err := tx.LockGroup(ctx, group); err != nil {
			return err
		}
		return fn(tx)
	})
}

// WithWindow runs fn inside one transaction. Group locks are taken by fn through LockGroup.
func (s *Store) WithWindow(ctx context.Context, fn func(tx contract.SegmentTx) error) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %w", contract.ErrStorageUnavailable, err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: begin transaction: %w", contract.ErrStorageUnavailable, err)
	}

	stx := &segmentTx{store: s, conn: conn, tx: tx}
	defer func() {
		err = stx.finish(err)
	}()
	return fn(stx)
}

// finish commits or rolls back, then releases every lock and the connection.
// Cleanup failures are joined onto the primary error.
func (t *segmentTx) finish(fnErr error) error {
	var cleanup []error

	if fnErr != nil {
		if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			cleanup = append(cleanup, fmt.Errorf("rollback: %w", err))
		}
	} else if err := t.tx.Commit(); err != nil {
		fnErr = queryFailure("commit", err)
	}

	// Session locks outlive the transaction, so release them on the same connection.
	for _, name := range t.mysqlLocks {
		if _, err := t.conn.ExecContext(context.Background(), "DO RELEASE_LOCK(?)", name); err != nil {
			cleanup = append(cleanup, fmt.Errorf("release lock %s: %w", name, err))
		}
	}
	for _, key := range t.held {
		t.store.locks.Unlock(key)
	}
	if err := t.conn.Close(); err != nil {
		cleanup = append(cleanup, fmt.Errorf("close connection: %w", err))
	}

	if len(cleanup) == 0 {
		return fnErr
	}
	var errm *multierror.Error
	if fnErr != nil {
		errm = multierror.Append(errm, fnErr)
	}
	errm = multierror.Append(errm, cleanup...)
	return errm.ErrorOrNil()
}

// LockGroup acquires the exclusive lock of a group until the transaction ends.
func (t *segmentTx) LockGroup(ctx context.Context, group schema.Group) error {
	if slices.Contains(t.held, group.DefID) {
		return nil
	}
	if err := t.store.locks.Lock(ctx, group.DefID); err != nil {
		return fmt.Errorf("wait for lock on %s: %w", group, err)
	}
	t.held = append(t.held, group.DefID)

	switch t.store.backend {
	case schema.PostgreSQLBackend:
		if _, err := t.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryKey(group.DefID)); err != nil {
			return queryFailure(fmt.Sprintf("lock %s", group), err)
		}
	case schema.MySQLBackend:
		name := mysqlLockName(group.DefID)
		var got sql.NullInt64
		timeout := int(t.store.lockTimeout.Seconds())
		if err := t.tx.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, timeout).Scan(&got); err != nil {
			return queryFailure(fmt.Sprintf("lock %s", group), err)
		}
		if !got.Valid || got.Int64 != 1 {
			return fmt.Errorf("%w: lock %s: not granted within %s", contract.ErrQueryFailure, group, t.store.lockTimeout)
		}
		t.mysqlLocks = append(t.mysqlLocks, name)
	default:
		// SQLite transactions already hold the database write lock from BEGIN.
	}
	return nil
}

// SelectIntervals returns the rows of a group whose start time lies in the window.
// Rows written by other runs that are still open are left out.
func (t *segmentTx) SelectIntervals(ctx context.Context, table schema.Table, group schema.Group, window schema.Window, runID string) ([]schema.IntervalRow, error) {
	idCol, err := idColumn(table)
	if err != nil {
		return nil, err
	}
	b := t.store.backend
	query := fmt.Sprintf(`SELECT t.%s, t.start_time, t.end_time, t.process_id
		FROM %s t LEFT JOIN %s p ON p.process_id = t.process_id
		WHERE t.segment_def_id = ? AND t.start_time BETWEEN ? AND ?
		AND (p.process_id IS NULL OR p.end_time IS NOT NULL OR t.process_id = ?)
		ORDER BY t.start_time, t.end_time, t.%s`,
		idCol, quoteTableName(string(table), b), quoteTableName(processTable, b), idCol)

	rows, err := t.tx.QueryContext(ctx, t.store.rebind(query), group.DefID, window.Start, window.End, runID)
	if err != nil {
		return nil, queryFailure(fmt.Sprintf("select %s rows", table), err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.IntervalRow
	for rows.Next() {
		var r schema.IntervalRow
		if err := rows.Scan(&r.RowID, &r.Interval.Start, &r.Interval.End, &r.RunID); err != nil {
			return nil, queryFailure(fmt.Sprintf("scan %s row", table), err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailure(fmt.Sprintf("iterate %s rows", table), err)
	}
	return out, nil
}

// InsertIntervals writes one row per interval, attributed to runID.
func (t *segmentTx) InsertIntervals(ctx context.Context, table schema.Table, group schema.Group, runID string, intervals []schema.Interval) error {
	if len(intervals) == 0 {
		return nil
	}
	idCol, err := idColumn(table)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, creator_db, start_time, end_time, segment_def_id, segment_def_cdb, process_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(string(table), t.store.backend), idCol)

	stmt, err := t.tx.PrepareContext(ctx, t.store.rebind(query))
	if err != nil {
		return queryFailure(fmt.Sprintf("prepare %s insert", table), err)
	}
	defer func() { _ = stmt.Close() }()

	cdb := t.store.creatorDB
	for _, iv := range intervals {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), cdb, iv.Start, iv.End, group.DefID, cdb, runID); err != nil {
			return queryFailure(fmt.Sprintf("insert %s row %s", table, iv), err)
		}
	}
	return nil
}

// DeleteIntervals removes the given rows, except those attributed to keepRunID.
// It returns the number of rows removed.
func (t *segmentTx) DeleteIntervals(ctx context.Context, table schema.Table, rowIDs []string, keepRunID string) (int64, error) {
	idCol, err := idColumn(table)
	if err != nil {
		return 0, err
	}
	var total int64
	for chunk := range slices.Chunk(rowIDs, deleteChunkSize) {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s IN (%s) AND process_id <> ?`,
			quoteTableName(string(table), t.store.backend), idCol, placeholders(len(chunk)))
		args := make([]any, 0, len(chunk)+1)
		for _, id := range chunk {
			args = append(args, id)
		}
		args = append(args, keepRunID)

		res, err := t.tx.ExecContext(ctx, t.store.rebind(query), args...)
		if err != nil {
			return total, queryFailure(fmt.Sprintf("delete %s rows", table), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, queryFailure(fmt.Sprintf("delete %s rows", table), err)
		}
		total += n
	}
	return total, nil
}
