package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// reportReservedWidth covers every report column except the error.
const reportReservedWidth = 110

// WriteReport outputs a coalescing report, dispatching based on the output format configured.
func WriteReport(report schema.Report, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			errWidth := getMaxTextWidth(reportReservedWidth, cfg.OutputFile != "")
			return writeReportTable(w, report, cfg.UseColors, errWidth)
		}, "Wrote table")
	}
}

// tableStats returns the result of table in g, or a zero result when the table was not reached.
func tableStats(g schema.GroupResult, table schema.Table) schema.TableResult {
	for _, tr := range g.Tables {
		if tr.Table == table {
			return tr
		}
	}
	return schema.TableResult{Table: table}
}

// deletedRows sums the rows removed from both tables of g.
func deletedRows(g schema.GroupResult) int64 {
	var n int64
	for _, tr := range g.Tables {
		n += tr.DeletedRows
	}
	return n
}

// writeReportTable renders the human-readable report.
// The group key is always shown in full; the error is cut to errWidth runes when errWidth > 0.
func writeReportTable(w io.Writer, report schema.Report, useColors bool, errWidth int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Group", "Outcome", "Segments", "Summary", "Deleted", "Segment Coverage", "Summary Coverage", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, g := range report.Groups {
		seg := tableStats(g, schema.SegmentTable)
		sum := tableStats(g, schema.SummaryTable)
		outcome := string(g.Outcome)
		if useColors {
			outcome = contract.GetColorLabel(g.Outcome)
		}
		data = append(data, []string{
			g.Group.String(),
			outcome,
			fmt.Sprintf("%d -> %d", seg.RawRows, seg.CoalescedRows),
			fmt.Sprintf("%d -> %d", sum.RawRows, sum.CoalescedRows),
			strconv.FormatInt(deletedRows(g), 10),
			strconv.FormatInt(seg.Coverage, 10),
			strconv.FormatInt(sum.Coverage, 10),
			truncateLabel(g.Error, errWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	mode := string(report.Mode)
	if report.DryRun {
		mode += ", dry run"
	}
	if _, err := fmt.Fprintf(w, "Window %s, %d groups (%s)\n", report.Window, len(report.Groups), mode); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Run %s: %d succeeded, %d unchanged, %d failed, %d rolled back, %d skipped in %s\n",
		report.RunID,
		report.Count(schema.SucceededOutcome),
		report.Count(schema.UnchangedOutcome),
		report.Count(schema.FailedOutcome),
		report.Count(schema.RolledBackOutcome),
		report.Count(schema.SkippedOutcome),
		formatDuration(report.Duration()))
	return err
}

// writeReportCSV writes one line per group and table.
func writeReportCSV(w io.Writer, report schema.Report) error {
	header := []string{
		"run_id",
		"ifos",
		"name",
		"version",
		"outcome",
		"table",
		"raw_rows",
		"coalesced_rows",
		"deleted_rows",
		"coverage_seconds",
		"error",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, g := range report.Groups {
			for _, table := range schema.AllTables {
				tr := tableStats(g, table)
				rec := []string{
					report.RunID,
					g.Group.IFOs,
					g.Group.Name,
					strconv.Itoa(g.Group.Version),
					string(g.Outcome),
					string(table),
					strconv.Itoa(tr.RawRows),
					strconv.Itoa(tr.CoalescedRows),
					strconv.FormatInt(tr.DeletedRows, 10),
					strconv.FormatInt(tr.Coverage, 10),
					g.Error,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
