package schema

// StoreStatus represents the status of the segment store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	OpenRuns      int              `json:"open_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunStart  int64            `json:"last_run_start"`
	TotalDefiners int              `json:"total_definers"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
