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

// WriteSegments outputs stored interval rows in the configured format.
func WriteSegments(records []schema.SegmentRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSegmentsJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSegmentsCSV(w, records)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSegmentsTable(w, records)
		}, "Wrote table")
	}
}

func recordLabel(r schema.SegmentRecord) string {
	return fmt.Sprintf("%s:%s:%d", r.IFOs, r.Name, r.Version)
}

func writeSegmentsTable(w io.Writer, records []schema.SegmentRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Table", "Group", "Start", "End", "Duration", "Run"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	var total int64
	for _, r := range records {
		total += r.EndTime - r.StartTime
		data = append(data, []string{
			string(r.Table),
			recordLabel(r),
			strconv.FormatInt(r.StartTime, 10),
			strconv.FormatInt(r.EndTime, 10),
			strconv.FormatInt(r.EndTime-r.StartTime, 10),
			r.ProcessID,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d rows (%d seconds)\n", len(records), total)
	return err
}

func writeSegmentsCSV(w io.Writer, records []schema.SegmentRecord) error {
	header := []string{"table", "row_id", "segment_def_id", "ifos", "name", "version", "start_time", "end_time", "process_id"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			rec := []string{
				string(r.Table),
				r.RowID,
				r.DefID,
				r.IFOs,
				r.Name,
				strconv.Itoa(r.Version),
				strconv.FormatInt(r.StartTime, 10),
				strconv.FormatInt(r.EndTime, 10),
				r.ProcessID,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSegmentsJSON(w io.Writer, records []schema.SegmentRecord) error {
	type JSONSegment struct {
		Table     schema.Table `json:"table"`
		RowID     string       `json:"row_id"`
		DefID     string       `json:"segment_def_id"`
		IFOs      string       `json:"ifos"`
		Name      string       `json:"name"`
		Version   int          `json:"version"`
		StartTime int64        `json:"start_time"`
		EndTime   int64        `json:"end_time"`
		ProcessID string       `json:"process_id"`
	}

	output := make([]JSONSegment, len(records))
	for i, r := range records {
		output[i] = JSONSegment(r)
	}
	return writeJSON(w, output)
}
