package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() schema.Report {
	started := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	return schema.Report{
		RunID:  "run-1",
		Window: schema.Window{Start: 0, End: 100},
		Mode:   schema.WindowTx,
		Groups: []schema.GroupResult{
			{
				Group:   schema.Group{DefID: "a", IFOs: "H1", Name: "DMT-SCIENCE", Version: 1},
				Outcome: schema.SucceededOutcome,
				Tables: []schema.TableResult{
					{Table: schema.SegmentTable, RawRows: 3, CoalescedRows: 2, DeletedRows: 3, Coverage: 25},
					{Table: schema.SummaryTable, RawRows: 1, CoalescedRows: 1, Coverage: 100},
				},
			},
			{
				Group:   schema.Group{DefID: "b", IFOs: "L1", Name: "DMT-SCIENCE", Version: 1},
				Outcome: schema.SkippedOutcome,
			},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func TestWriteReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReportTable(&buf, sampleReport(), false, 0))

	out := buf.String()
	assert.Contains(t, out, "H1:DMT-SCIENCE:1")
	assert.Contains(t, out, "L1:DMT-SCIENCE:1")
	assert.Contains(t, out, "3 -> 2")
	assert.Contains(t, strings.ToUpper(out), "SUMMARY COVERAGE")
	assert.Contains(t, out, "Window [0, 100], 2 groups (window)")
	assert.Contains(t, out, "Run run-1: 1 succeeded, 0 unchanged, 0 failed, 0 rolled back, 1 skipped in 2s")
}

func TestWriteReportShowsFullGroupsAndErrors(t *testing.T) {
	reason := "select H1:DMT-SCIENCE:2 segment: query failure: connection reset by peer"
	report := schema.Report{
		RunID:  "run-1",
		Window: schema.Window{Start: 0, End: 100},
		Mode:   schema.GroupTx,
		Groups: []schema.GroupResult{
			{
				Group:   schema.Group{DefID: "a", IFOs: "H1", Name: "DMT-SCIENCE", Version: 1},
				Outcome: schema.SucceededOutcome,
				Tables: []schema.TableResult{
					{Table: schema.SegmentTable, RawRows: 2, CoalescedRows: 1, Coverage: 1234},
					{Table: schema.SummaryTable, RawRows: 2, CoalescedRows: 1, Coverage: 4321},
				},
			},
			{Group: schema.Group{DefID: "b", IFOs: "H1", Name: "DMT-SCIENCE", Version: 2}, Outcome: schema.FailedOutcome, Error: reason},
		},
	}

	orig := terminalWidth
	t.Cleanup(func() { terminalWidth = orig })

	t.Run("not a terminal", func(t *testing.T) {
		terminalWidth = func() (int, bool) { return 0, false }
		tmpFile := filepath.Join(t.TempDir(), "report.txt")
		require.NoError(t, WriteReport(report, &contract.Config{Output: schema.TextOut, OutputFile: tmpFile}))
		content, err := os.ReadFile(tmpFile)
		require.NoError(t, err)
		out := string(content)
		assert.Contains(t, out, "H1:DMT-SCIENCE:1")
		assert.Contains(t, out, "H1:DMT-SCIENCE:2")
		assert.Contains(t, out, reason)
		assert.Contains(t, out, "1234")
		assert.Contains(t, out, "4321")
		assert.NotContains(t, out, "...")
	})

	t.Run("narrow terminal", func(t *testing.T) {
		terminalWidth = func() (int, bool) { return 80, true }
		errWidth := getMaxTextWidth(reportReservedWidth, false)
		assert.Equal(t, minNameWidth, errWidth)

		var buf bytes.Buffer
		require.NoError(t, writeReportTable(&buf, report, false, errWidth))
		out := buf.String()
		assert.Contains(t, out, "H1:DMT-SCIENCE:1")
		assert.Contains(t, out, "H1:DMT-SCIENCE:2")
		assert.Contains(t, out, truncateLabel(reason, minNameWidth))
		assert.NotContains(t, out, reason)
	})
}

func TestGetMaxTextWidth(t *testing.T) {
	orig := terminalWidth
	t.Cleanup(func() { terminalWidth = orig })

	terminalWidth = func() (int, bool) { return 0, false }
	assert.Equal(t, 0, getMaxTextWidth(reportReservedWidth, false), "no limit off a terminal")

	terminalWidth = func() (int, bool) { return 150, true }
	assert.Equal(t, 40, getMaxTextWidth(reportReservedWidth, false))
	assert.Equal(t, 0, getMaxTextWidth(reportReservedWidth, true), "no limit when writing a file")

	terminalWidth = func() (int, bool) { return 400, true }
	assert.Equal(t, maxNameWidth, getMaxTextWidth(reportReservedWidth, false))
}

func TestWriteReportTableDryRun(t *testing.T) {
	report := sampleReport()
	report.DryRun = true
	var buf bytes.Buffer
	require.NoError(t, writeReportTable(&buf, report, false, 0))
	assert.Contains(t, buf.String(), "(window, dry run)")
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReportCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5) // header + 2 groups x 2 tables
	assert.Equal(t, "run_id,ifos,name,version,outcome,table,raw_rows,coalesced_rows,deleted_rows,coverage_seconds,error", lines[0])
	assert.Equal(t, "run-1,H1,DMT-SCIENCE,1,succeeded,segment,3,2,3,25,", lines[1])
	assert.Equal(t, "run-1,H1,DMT-SCIENCE,1,succeeded,segment_summary,1,1,0,100,", lines[2])
	assert.Equal(t, "run-1,L1,DMT-SCIENCE,1,skipped,segment,0,0,0,0,", lines[3])
}

func TestWriteReportJSONFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "report.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: tmpFile}
	require.NoError(t, WriteReport(sampleReport(), cfg))

	content, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	var decoded schema.Report
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Groups, 2)
	assert.Equal(t, schema.SucceededOutcome, decoded.Groups[0].Outcome)
	assert.Equal(t, int64(25), decoded.Groups[0].Tables[0].Coverage)
}

func TestTableStatsMissingTable(t *testing.T) {
	g := schema.GroupResult{Tables: []schema.TableResult{{Table: schema.SegmentTable, RawRows: 4}}}
	assert.Equal(t, 4, tableStats(g, schema.SegmentTable).RawRows)
	assert.Equal(t, schema.TableResult{Table: schema.SummaryTable}, tableStats(g, schema.SummaryTable))
}

func TestWriteRuns(t *testing.T) {
	end := int64(1000000100)
	runs := []schema.Run{
		{ID: "run-2", Domain: schema.CoalesceDomain, Program: "segcoalesce", Node: "ldas", Username: "alice", UnixPID: 42, StartTime: 1000000050},
		{ID: "run-1", Domain: schema.LoadDomain, Program: "segcoalesce", StartTime: 1000000000, EndTime: &end, CreatorDB: 1},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunsTable(&buf, runs))
		out := buf.String()
		assert.Contains(t, out, "run-2")
		assert.Contains(t, out, "open")
		assert.Contains(t, out, "1000000100")
		assert.Contains(t, out, "Showing 2 runs (1 open)")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunsCSV(&buf, runs))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "run-2,coalesce_local,segcoalesce,ldas,alice,42,1000000050,,0", lines[1])
		assert.Equal(t, "run-1,segment_load,segcoalesce,,,0,1000000000,1000000100,1", lines[2])
	})

	t.Run("empty json", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "runs.json")
		require.NoError(t, WriteRuns(nil, &contract.Config{Output: schema.JSONOut, OutputFile: tmpFile}))
		content, err := os.ReadFile(tmpFile)
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(content))
	})
}

func TestWriteSegments(t *testing.T) {
	records := []schema.SegmentRecord{
		{Table: schema.SegmentTable, RowID: "r1", DefID: "d1", IFOs: "H1", Name: "DMT-SCIENCE", Version: 1, StartTime: 0, EndTime: 15, ProcessID: "run-1"},
		{Table: schema.SummaryTable, RowID: "r2", DefID: "d1", IFOs: "H1", Name: "DMT-SCIENCE", Version: 1, StartTime: 0, EndTime: 100, ProcessID: "run-1"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSegmentsTable(&buf, records))
		out := buf.String()
		assert.Contains(t, out, "segment_summary")
		assert.Contains(t, out, "H1:DMT-SCIENCE:1")
		assert.NotContains(t, out, "...")
		assert.Contains(t, out, "Showing 2 rows (115 seconds)")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSegmentsCSV(&buf, records))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "segment,r1,d1,H1,DMT-SCIENCE,1,0,15,run-1", lines[1])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSegmentsJSON(&buf, records))
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "segment_summary", decoded[1]["table"])
		assert.Equal(t, float64(100), decoded[1]["end_time"])
	})
}
