// Package contract provides interfaces and shared utilities for the segcoalesce internal architecture.
package contract

import (
	"context"

	"github.com/gwdetchar/segcoalesce/schema"
)

// SegmentStore is the abstract segment database a coalescing pass runs against.
// This allows the orchestration to be tested without a real database.
type SegmentStore interface {
	// --- Runs ---

	// BeginRun registers a new process row and returns the run it represents.
	BeginRun(ctx context.Context, info schema.RunInfo) (schema.Run, error)

	// EndRun stamps the end time (GPS seconds) of a run.
	EndRun(ctx context.Context, runID string, endGPS int64) error

	// ListRuns returns all registered runs, newest first.
	ListRuns(ctx context.Context) ([]schema.Run, error)

	// --- Groups ---

	// ListGroups returns the definers that have rows in either table inside the window.
	// The result is ordered by definer id.
	ListGroups(ctx context.Context, window schema.Window, filter schema.GroupFilter) ([]schema.Group, error)

	// EnsureDefiner returns the definer for ifos/name/version, creating it on behalf of runID if missing.
	EnsureDefiner(ctx context.Context, ifos, name string, version int, runID string) (schema.Group, error)

	// --- Atomic units ---

	// WithGroup runs fn inside one transaction holding the lock of the group.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithGroup(ctx context.Context, group schema.Group, fn func(tx SegmentTx) error) error

	// WithWindow runs fn inside one transaction. Group locks are taken by fn through LockGroup.
	WithWindow(ctx context.Context, fn func(tx SegmentTx) error) error

	// --- Inspection ---

	// Status returns summary information about the store.
	Status(ctx context.Context) (schema.StoreStatus, error)

	// AllIntervals returns every stored row of a table joined with its definer.
	AllIntervals(ctx context.Context, table schema.Table) ([]schema.SegmentRecord, error)

	// Clear deletes every row of every table.
	Clear(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// SegmentTx is the view of the store inside one atomic unit.
type SegmentTx interface {
	// LockGroup acquires the exclusive lock of a group until the transaction ends.
	LockGroup(ctx context.Context, group schema.Group) error

	// SelectIntervals returns the rows of a group whose start time lies in the window.
	// Rows written by other runs that are still open are left out.
	SelectIntervals(ctx context.Context, table schema.Table, group schema.Group, window schema.Window, runID string) ([]schema.IntervalRow, error)

	// InsertIntervals writes one row per interval, attributed to runID.
	InsertIntervals(ctx context.Context, table schema.Table, group schema.Group, runID string, intervals []schema.Interval) error

	// DeleteIntervals removes the given rows, except those attributed to keepRunID.
	// It returns the number of rows removed.
	DeleteIntervals(ctx context.Context, table schema.Table, rowIDs []string, keepRunID string) (int64, error)
}
