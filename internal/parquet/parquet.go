// Package parquet provides data structures and functions for exporting segment
// database tables to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/gwdetchar/segcoalesce/schema"
	"github.com/parquet-go/parquet-go"
)

// Process represents one run registered in the process table.
type Process struct {
	// ProcessID is the unique identifier of the run
	ProcessID string `parquet:"process_id,snappy"`

	// CreatorDB identifies the database instance that created the row
	CreatorDB int32 `parquet:"creator_db,snappy"`

	Program  string `parquet:"program,snappy"`
	Node     string `parquet:"node,snappy"`
	Username string `parquet:"username,snappy"`
	UnixPID  int32  `parquet:"unix_procid,snappy"`

	// StartTime and EndTime are GPS seconds; EndTime is null while the run is open
	StartTime int64  `parquet:"start_time,snappy"`
	EndTime   *int64 `parquet:"end_time,optional,snappy"`

	// StartUTC is StartTime converted to UTC for tools that do not speak GPS time
	StartUTC time.Time `parquet:"start_utc,snappy"`

	Domain string `parquet:"domain,snappy"`
}

// Interval represents one row of the segment or segment_summary table joined with its definer.
type Interval struct {
	Table     string `parquet:"table,dict,snappy"`
	RowID     string `parquet:"row_id,snappy"`
	DefID     string `parquet:"segment_def_id,dict,snappy"`
	IFOs      string `parquet:"ifos,dict,snappy"`
	Name      string `parquet:"name,dict,snappy"`
	Version   int32  `parquet:"version,snappy"`
	StartTime int64  `parquet:"start_time,snappy"`
	EndTime   int64  `parquet:"end_time,snappy"`

	// Duration is EndTime - StartTime in seconds
	Duration  int64  `parquet:"duration,snappy"`
	ProcessID string `parquet:"process_id,snappy"`
}

// WriteProcessesParquet writes a slice of Process structs to a Parquet file.
func WriteProcessesParquet(data []Process, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteIntervalsParquet writes a slice of Interval structs to a Parquet file.
func WriteIntervalsParquet(data []Interval, outputPath string) error {
	return writeParquet(data, outputPath)
}

func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRuns converts schema.Run to Process for Parquet export.
// toUTC maps GPS seconds to UTC.
func ConvertRuns(runs []schema.Run, toUTC func(int64) time.Time) []Process {
	result := make([]Process, len(runs))
	for i, run := range runs {
		result[i] = Process{
			ProcessID: run.ID,
			CreatorDB: int32(run.CreatorDB),
			Program:   run.Program,
			Node:      run.Node,
			Username:  run.Username,
			UnixPID:   int32(run.UnixPID),
			StartTime: run.StartTime,
			EndTime:   run.EndTime,
			StartUTC:  toUTC(run.StartTime),
			Domain:    run.Domain,
		}
	}
	return result
}

// ConvertSegmentRecords converts schema.SegmentRecord to Interval for Parquet export.
func ConvertSegmentRecords(records []schema.SegmentRecord) []Interval {
	result := make([]Interval, len(records))
	for i, rec := range records {
		result[i] = Interval{
			Table:     string(rec.Table),
			RowID:     rec.RowID,
			DefID:     rec.DefID,
			IFOs:      rec.IFOs,
			Name:      rec.Name,
			Version:   int32(rec.Version),
			StartTime: rec.StartTime,
			EndTime:   rec.EndTime,
			Duration:  rec.EndTime - rec.StartTime,
			ProcessID: rec.ProcessID,
		}
	}
	return result
}
