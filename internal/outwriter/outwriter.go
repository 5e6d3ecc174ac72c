// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints a coalescing report using the configured output format.
func (ow *OutWriter) WriteReport(report schema.Report, cfg *contract.Config) error {
	return WriteReport(report, cfg)
}

// WriteRuns prints the registered runs using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.Run, cfg *contract.Config) error {
	return WriteRuns(runs, cfg)
}

// WriteSegments prints stored interval rows using the configured output format.
func (ow *OutWriter) WriteSegments(records []schema.SegmentRecord, cfg *contract.Config) error {
	return WriteSegments(records, cfg)
}
