package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteRuns outputs the registered runs in the configured format.
func WriteRuns(runs []schema.Run, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if runs == nil {
				runs = []schema.Run{}
			}
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, runs)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs)
		}, "Wrote table")
	}
}

func runEnd(run schema.Run) string {
	if run.EndTime == nil {
		return "open"
	}
	return strconv.FormatInt(*run.EndTime, 10)
}

func writeRunsTable(w io.Writer, runs []schema.Run) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Domain", "Program", "Node", "User", "PID", "Start", "End"})

	var data [][]string
	for _, run := range runs {
		data = append(data, []string{
			run.ID,
			run.Domain,
			run.Program,
			run.Node,
			run.Username,
			strconv.Itoa(run.UnixPID),
			formatGPS(run.StartTime),
			runEnd(run),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	open := 0
	for _, run := range runs {
		if run.Open() {
			open++
		}
	}
	_, err := fmt.Fprintf(w, "Showing %d runs (%d open)\n", len(runs), open)
	return err
}

func writeRunsCSV(w io.Writer, runs []schema.Run) error {
	header := []string{"process_id", "domain", "program", "node", "username", "unix_procid", "start_time", "end_time", "creator_db"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, run := range runs {
			end := ""
			if run.EndTime != nil {
				end = strconv.FormatInt(*run.EndTime, 10)
			}
			rec := []string{
				run.ID,
				run.Domain,
				run.Program,
				run.Node,
				run.Username,
				strconv.Itoa(run.UnixPID),
				strconv.FormatInt(run.StartTime, 10),
				end,
				strconv.Itoa(run.CreatorDB),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
