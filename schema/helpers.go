package schema

import (
	"sort"
	"strings"
)

// SplitList splits a comma-separated flag value into trimmed, non-empty, de-duplicated parts.
// Order of first appearance is preserved.
func SplitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SortGroups orders groups by definer id so that locks are always taken in the same order.
func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].DefID < groups[j].DefID
	})
}

// Intervals extracts the intervals of the given rows.
func Intervals(rows []IntervalRow) []Interval {
	out := make([]Interval, len(rows))
	for i, r := range rows {
		out[i] = r.Interval
	}
	return out
}
