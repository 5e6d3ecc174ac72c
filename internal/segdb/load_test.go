package segdb

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSeed = `table,ifos,name,version,start,end
# science mode
segment, H1, DMT-SCIENCE, 1, 0, 10
segment,H1,DMT-SCIENCE,1,5,15
segment_summary,H1,DMT-SCIENCE,1,0,100
SEGMENT,L1,DMT-SCIENCE,2,3,3
`

func TestReadSeedCSV(t *testing.T) {
	rows, err := ReadSeedCSV(strings.NewReader(testSeed))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, SeedRow{
		Table: schema.SegmentTable, IFOs: "H1", Name: "DMT-SCIENCE", Version: 1,
		Interval: schema.Interval{Start: 0, End: 10},
	}, rows[0])
	assert.Equal(t, schema.SummaryTable, rows[2].Table)
	assert.Equal(t, schema.SegmentTable, rows[3].Table)
	assert.Equal(t, 2, rows[3].Version)
	assert.Zero(t, rows[3].Interval.Len())
}

func TestReadSeedCSVWithoutHeader(t *testing.T) {
	rows, err := ReadSeedCSV(strings.NewReader("segment,V1,ONLINE,1,100,200\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "V1", rows[0].IFOs)
}

func TestReadSeedCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown table", "process,H1,X,1,0,10\n", "invalid table 'process'"},
		{"empty ifos", "segment,,X,1,0,10\n", "ifos and name cannot be empty"},
		{"bad version", "segment,H1,X,zero,0,10\n", "invalid version 'zero'"},
		{"non-positive version", "segment,H1,X,0,0,10\n", "invalid version '0'"},
		{"bad start", "segment,H1,X,1,a,10\n", "invalid start 'a'"},
		{"bad end", "segment,H1,X,1,0,b\n", "invalid end 'b'"},
		{"inverted", "segment,H1,X,1,10,5\n", "start 10 is after end 5"},
		{"wrong field count", "segment,H1,X,1,0\n", "failed to read seed file"},
		{"reports line", "segment,H1,X,1,0,10\nsegment,H1,X,1,9,8\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeedCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := beginRun(t, store, 1)

	rows, err := ReadSeedCSV(strings.NewReader(testSeed))
	require.NoError(t, err)
	n, err := Load(ctx, store, run.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	segs, err := store.AllIntervals(ctx, schema.SegmentTable)
	require.NoError(t, err)
	assert.Len(t, segs, 3)
	sums, err := store.AllIntervals(ctx, schema.SummaryTable)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, segs[0].DefID, sums[0].DefID, "both tables share the definer")
	for _, r := range append(segs, sums...) {
		assert.Equal(t, run.ID, r.ProcessID)
	}

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalDefiners)
}

func TestLoadRollsBackOnInsertFailure(t *testing.T) {
	tx := &MockSegmentTx{}
	store := &MockSegmentStore{Tx: tx}
	g := schema.Group{DefID: "def-1", IFOs: "H1", Name: "X", Version: 1}
	boom := errors.New("disk full")

	store.On("EnsureDefiner", mock.Anything, "H1", "X", 1, "run-1").Return(g, nil).Once()
	store.On("WithWindow", mock.Anything).Return(nil)
	tx.On("InsertIntervals", mock.Anything, schema.SegmentTable, g, "run-1", []schema.Interval{{Start: 0, End: 1}, {Start: 2, End: 3}}).Return(boom)

	n, err := Load(context.Background(), store, "run-1", []SeedRow{
		{Table: schema.SegmentTable, IFOs: "H1", Name: "X", Version: 1, Interval: schema.Interval{Start: 0, End: 1}},
		{Table: schema.SegmentTable, IFOs: "H1", Name: "X", Version: 1, Interval: schema.Interval{Start: 2, End: 3}},
	})
	assert.Zero(t, n)
	assert.Equal(t, boom, err)
	store.AssertExpectations(t)
}

func TestKeyedLocker(t *testing.T) {
	locks := newKeyedLocker()
	ctx := context.Background()

	require.NoError(t, locks.Lock(ctx, "a"))
	// Distinct keys do not contend.
	require.NoError(t, locks.Lock(ctx, "b"))

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, locks.Lock(waitCtx, "a"), context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		_ = locks.Lock(ctx, "a")
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	locks.Unlock("a")
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not handed over")
	}
	locks.Unlock("a")
	locks.Unlock("b")
}

func TestKeyedLockerMutualExclusion(t *testing.T) {
	locks := newKeyedLocker()
	ctx := context.Background()
	var wg sync.WaitGroup
	var inside, maxInside int
	var mu sync.Mutex

	for range 8 {
		wg.Go(func() {
			assert.NoError(t, locks.Lock(ctx, "group"))
			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			locks.Unlock("group")
		})
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestAdvisoryKeys(t *testing.T) {
	assert.Equal(t, advisoryKey("def-1"), advisoryKey("def-1"))
	assert.NotEqual(t, advisoryKey("def-1"), advisoryKey("def-2"))

	name := mysqlLockName("0b8c7a4e-1f7e-4f55-9b3e-1c1d4f0f3a77")
	assert.True(t, strings.HasPrefix(name, "segcoalesce:"))
	assert.Len(t, name, len("segcoalesce:")+16)
	assert.LessOrEqual(t, len(name), 64)
}

func TestExecuteExport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := beginRun(t, store, 1000000000)
	rows, err := ReadSeedCSV(strings.NewReader(testSeed))
	require.NoError(t, err)
	_, err = Load(ctx, store, run.ID, rows)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export")
	var buf bytes.Buffer
	require.NoError(t, ExecuteExport(ctx, &buf, store, out))

	for _, suffix := range []string{".process.parquet", ".segment.parquet", ".segment_summary.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err, suffix)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, buf.String(), "Exporting data from sqlite backend")
	assert.Contains(t, buf.String(), "Exported 1 runs")
	assert.Contains(t, buf.String(), "Exported 3 segment rows")
	assert.Contains(t, buf.String(), "Exported 1 segment_summary rows")
}

func TestExecuteExportErrors(t *testing.T) {
	ctx := context.Background()

	err := ExecuteExport(ctx, &bytes.Buffer{}, &MockSegmentStore{}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file is required")

	empty := &MockSegmentStore{}
	empty.On("Status", mock.Anything).Return(schema.StoreStatus{Backend: "sqlite", Connected: true}, nil)
	err = ExecuteExport(ctx, &bytes.Buffer{}, empty, "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no segment data found")

	down := &MockSegmentStore{}
	down.On("Status", mock.Anything).Return(schema.StoreStatus{}, contract.ErrStorageUnavailable)
	err = ExecuteExport(ctx, &bytes.Buffer{}, down, "out")
	assert.ErrorIs(t, err, contract.ErrStorageUnavailable)
}
