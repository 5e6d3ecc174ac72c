package schema

import "time"

// TableResult summarizes the work done on one interval collection of one group.
type TableResult struct {
	Table         Table `json:"table"`
	RawRows       int   `json:"raw_rows"`
	CoalescedRows int   `json:"coalesced_rows"`
	DeletedRows   int64 `json:"deleted_rows"`
	Coverage      int64 `json:"coverage_seconds"`
}

// GroupResult is the per-group line of a run report.
type GroupResult struct {
	Group   Group         `json:"group"`
	Outcome Outcome       `json:"outcome"`
	Tables  []TableResult `json:"tables,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Report is the outcome of one coalescing pass over a window.
type Report struct {
	RunID      string        `json:"run_id"`
	Window     Window        `json:"window"`
	Mode       TxMode        `json:"tx_mode"`
	DryRun     bool          `json:"dry_run"`
	Groups     []GroupResult `json:"groups"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Failed reports whether any group failed.
func (r Report) Failed() bool {
	return r.Count(FailedOutcome) > 0
}

// Count returns the number of groups with the given outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, g := range r.Groups {
		if g.Outcome == outcome {
			n++
		}
	}
	return n
}

// Duration returns how long the pass took.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
