package schema

// RunInfo describes the process registering a run.
type RunInfo struct {
	Program   string
	Node      string
	Username  string
	UnixPID   int
	StartTime int64 // GPS seconds
	JobID     int
	Domain    string
	CreatorDB int
	IsOnline  bool
}

// Run is one execution of a coalescing or loading pass, stored as a process row.
type Run struct {
	ID        string `json:"process_id"`
	CreatorDB int    `json:"creator_db"`
	Program   string `json:"program"`
	Node      string `json:"node"`
	Username  string `json:"username"`
	UnixPID   int    `json:"unix_procid"`
	StartTime int64  `json:"start_time"`
	EndTime   *int64 `json:"end_time,omitempty"`
	JobID     int    `json:"jobid"`
	Domain    string `json:"domain"`
}

// Open reports whether the run has not been closed yet.
func (r Run) Open() bool {
	return r.EndTime == nil
}

// SegmentRecord is a stored interval joined with its definer, used for exports and listings.
type SegmentRecord struct {
	Table     Table
	RowID     string
	DefID     string
	IFOs      string
	Name      string
	Version   int
	StartTime int64
	EndTime   int64
	ProcessID string
}
