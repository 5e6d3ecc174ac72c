package segdb

import (
	"context"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/stretchr/testify/mock"
)

// MockSegmentStore is a mock implementation of SegmentStore for testing.
// WithGroup and WithWindow hand Tx to fn when it is set.
type MockSegmentStore struct {
	mock.Mock
	Tx contract.SegmentTx
}

var _ contract.SegmentStore = &MockSegmentStore{} // Compile-time check

// BeginRun implements the SegmentStore interface.
func (m *MockSegmentStore) BeginRun(ctx context.Context, info schema.RunInfo) (schema.Run, error) {
	args := m.Called(ctx, info)
	return args.Get(0).(schema.Run), args.Error(1)
}

// EndRun implements the SegmentStore interface.
func (m *MockSegmentStore) EndRun(ctx context.Context, runID string, endGPS int64) error {
	args := m.Called(ctx, runID, endGPS)
	return args.Error(0)
}

// ListRuns implements the SegmentStore interface.
func (m *MockSegmentStore) ListRuns(ctx context.Context) ([]schema.Run, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]schema.Run)
	return runs, args.Error(1)
}

// ListGroups implements the SegmentStore interface.
func (m *MockSegmentStore) ListGroups(ctx context.Context, window schema.Window, filter schema.GroupFilter) ([]schema.Group, error) {
	args := m.Called(ctx, window, filter)
	groups, _ := args.Get(0).([]schema.Group)
	return groups, args.Error(1)
}

// EnsureDefiner implements the SegmentStore interface.
func (m *MockSegmentStore) EnsureDefiner(ctx context.Context, ifos, name string, version int, runID string) (schema.Group, error) {
	args := m.Called(ctx, ifos, name, version, runID)
	return args.Get(0).(schema.Group), args.Error(1)
}

// WithGroup implements the SegmentStore interface.
func (m *MockSegmentStore) WithGroup(ctx context.Context, group schema.Group, fn func(tx contract.SegmentTx) error) error {
	args := m.Called(ctx, group)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := m.Tx.LockGroup(ctx, group); err != nil {
		return err
	}
	return fn(m.Tx)
}

// WithWindow implements the SegmentStore interface.
func (m *MockSegmentStore) WithWindow(ctx context.Context, fn func(tx contract.SegmentTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

// Status implements the SegmentStore interface.
func (m *MockSegmentStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// AllIntervals implements the SegmentStore interface.
func (m *MockSegmentStore) AllIntervals(ctx context.Context, table schema.Table) ([]schema.SegmentRecord, error) {
	args := m.Called(ctx, table)
	records, _ := args.Get(0).([]schema.SegmentRecord)
	return records, args.Error(1)
}

// Clear implements the SegmentStore interface.
func (m *MockSegmentStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close implements the SegmentStore interface.
func (m *MockSegmentStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSegmentTx is a mock implementation of SegmentTx for testing.
type MockSegmentTx struct {
	mock.Mock
}

var _ contract.SegmentTx = &MockSegmentTx{} // Compile-time check

// LockGroup implements the SegmentTx interface.
func (m *MockSegmentTx) LockGroup(ctx context.Context, group schema.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

// SelectIntervals implements the SegmentTx interface.
func (m *MockSegmentTx) SelectIntervals(ctx context.Context, table schema.Table, group schema.Group, window schema.Window, runID string) ([]schema.IntervalRow, error) {
	args := m.Called(ctx, table, group, window, runID)
	rows, _ := args.Get(0).([]schema.IntervalRow)
	return rows, args.Error(1)
}

// InsertIntervals implements the SegmentTx interface.
func (m *MockSegmentTx) InsertIntervals(ctx context.Context, table schema.Table, group schema.Group, runID string, intervals []schema.Interval) error {
	args := m.Called(ctx, table, group, runID, intervals)
	return args.Error(0)
}

// DeleteIntervals implements the SegmentTx interface.
func (m *MockSegmentTx) DeleteIntervals(ctx context.Context, table schema.Table, rowIDs []string, keepRunID string) (int64, error) {
	args := m.Called(ctx, table, rowIDs, keepRunID)
	return args.Get(0).(int64), args.Error(1)
}
