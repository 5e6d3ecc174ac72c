// Package schema holds the shared data types of segcoalesce.
package schema

import "fmt"

// Interval is a closed-open range [Start, End) of integer GPS seconds.
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of seconds covered by the interval.
func (iv Interval) Len() int64 {
	return iv.End - iv.Start
}

// String renders the interval as "[start, end)".
func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d)", iv.Start, iv.End)
}

// Group identifies a segment_definer row. Intervals are coalesced independently per group.
type Group struct {
	DefID   string `json:"segment_def_id"`
	IFOs    string `json:"ifos"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// String renders the group as "IFOS:NAME:VERSION".
func (g Group) String() string {
	return fmt.Sprintf("%s:%s:%d", g.IFOs, g.Name, g.Version)
}

// Window bounds the start time of the rows taken into a pass. Both ends are inclusive.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t int64) bool {
	return t >= w.Start && t <= w.End
}

// String renders the window as "[start, end]".
func (w Window) String() string {
	return fmt.Sprintf("[%d, %d]", w.Start, w.End)
}

// IntervalRow is one stored row of a segment or segment_summary table.
type IntervalRow struct {
	RowID    string
	Interval Interval
	RunID    string
}

// GroupFilter narrows which definers a pass looks at.
type GroupFilter struct {
	IFOs    []string // empty means all
	Names   []string // empty means all
	Version int
}
