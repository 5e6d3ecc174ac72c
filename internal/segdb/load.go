package segdb

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
)

// SeedRow is one raw interval read from a seed file.
type SeedRow struct {
	Table    schema.Table
	IFOs     string
	Name     string
	Version  int
	Interval schema.Interval
}

// seedColumns is the expected column order of a seed file.
var seedColumns = []string{"table", "ifos", "name", "version", "start", "end"}

// ReadSeedCSV parses rows of "table,ifos,name,version,start,end".
// A header line naming those columns is optional.
func ReadSeedCSV(r io.Reader) ([]SeedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(seedColumns)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows []SeedRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), seedColumns[0]) {
			continue
		}
		row, err := parseSeedRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseSeedRecord(record []string) (SeedRow, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	table := schema.Table(strings.ToLower(record[0]))
	if _, ok := schema.ValidTables[table]; !ok {
		return SeedRow{}, fmt.Errorf("invalid table '%s'. must be segment, segment_summary", record[0])
	}
	if record[1] == "" || record[2] == "" {
		return SeedRow{}, errors.New("ifos and name cannot be empty")
	}
	version, err := strconv.Atoi(record[3])
	if err != nil || version <= 0 {
		return SeedRow{}, fmt.Errorf("invalid version '%s'", record[3])
	}
	start, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return SeedRow{}, fmt.Errorf("invalid start '%s': %w", record[4], err)
	}
	end, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return SeedRow{}, fmt.Errorf("invalid end '%s': %w", record[5], err)
	}
	if start > end {
		return SeedRow{}, fmt.Errorf("start %d is after end %d", start, end)
	}
	return SeedRow{
		Table:    table,
		IFOs:     record[1],
		Name:     record[2],
		Version:  version,
		Interval: schema.Interval{Start: start, End: end},
	}, nil
}

// Load inserts seed rows as raw intervals attributed to runID, creating definers as needed.
// All rows are written in one transaction.
func Load(ctx context.Context, store contract.SegmentStore, runID string, rows []SeedRow) (int, error) {
	type key struct {
		table   schema.Table
		ifos    string
		name    string
		version int
	}
	var order []key
	batches := make(map[key][]schema.Interval)
	groups := make(map[key]schema.Group)
	for _, row := range rows {
		k := key{row.Table, row.IFOs, row.Name, row.Version}
		if _, ok := batches[k]; !ok {
			order = append(order, k)
			g, err := store.EnsureDefiner(ctx, row.IFOs, row.Name, row.Version, runID)
			if err != nil {
				return 0, err
			}
			groups[k] = g
		}
		batches[k] = append(batches[k], row.Interval)
	}

	err := store.WithWindow(ctx, func(tx contract.SegmentTx) error {
		for _, k := range order {
			if err := tx.InsertIntervals(ctx, k.table, groups[k], runID, batches[k]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
