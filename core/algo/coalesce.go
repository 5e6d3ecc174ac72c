// Package algo holds the pure interval algorithms used by the coalescing pass.
package algo

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gwdetchar/segcoalesce/schema"
)

// AdjacencyTolerance is how far apart two intervals may be and still merge.
// With 0, [0,5) and [5,10) merge into [0,10) while [0,5) and [6,10) stay apart.
const AdjacencyTolerance = 0

// ErrInvalidInterval is returned by Validate for an interval with Start > End.
var ErrInvalidInterval = errors.New("invalid interval")

// IntervalSet is a sorted sequence of disjoint, non-adjacent, non-empty intervals.
// For consecutive elements a and b, a.End < b.Start. The zero value is the empty set.
// Sets are only built by Coalesce.
type IntervalSet struct {
	ivs []schema.Interval
}

// Coalesce merges overlapping and touching intervals into their minimal covering set.
// Empty intervals cover no points and never appear in the result.
// The input slice is not modified.
func Coalesce(intervals []schema.Interval) IntervalSet {
	if len(intervals) == 0 {
		return IntervalSet{}
	}

	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b schema.Interval) int {
		if a.Start != b.Start {
			return cmpInt64(a.Start, b.Start)
		}
		return cmpInt64(a.End, b.End)
	})

	out := make([]schema.Interval, 0, len(sorted))
	acc := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start <= acc.End+AdjacencyTolerance {
			acc.End = max(acc.End, next.End)
			continue
		}
		if acc.Len() > 0 {
			out = append(out, acc)
		}
		acc = next
	}
	if acc.Len() > 0 {
		out = append(out, acc)
	}
	return IntervalSet{ivs: out}
}

// Validate checks that every interval has Start <= End.
func Validate(intervals []schema.Interval) error {
	for i, iv := range intervals {
		if iv.Start > iv.End {
			return fmt.Errorf("%w at index %d: start %d is after end %d", ErrInvalidInterval, i, iv.Start, iv.End)
		}
	}
	return nil
}

// IsCanonical reports whether the intervals already form an IntervalSet.
func IsCanonical(intervals []schema.Interval) bool {
	for i, iv := range intervals {
		if iv.Len() <= 0 {
			return false
		}
		if i > 0 && intervals[i-1].End+AdjacencyTolerance >= iv.Start {
			return false
		}
	}
	return true
}

// Len returns the number of intervals in the set.
func (s IntervalSet) Len() int {
	return len(s.ivs)
}

// Intervals returns a copy of the set's intervals in order.
func (s IntervalSet) Intervals() []schema.Interval {
	return slices.Clone(s.ivs)
}

// Coverage returns the total number of seconds covered.
func (s IntervalSet) Coverage() int64 {
	var total int64
	for _, iv := range s.ivs {
		total += iv.Len()
	}
	return total
}

// Contains reports whether t is covered by the set.
func (s IntervalSet) Contains(t int64) bool {
	i, found := slices.BinarySearchFunc(s.ivs, t, func(iv schema.Interval, t int64) int {
		return cmpInt64(iv.Start, t)
	})
	if found {
		return true
	}
	return i > 0 && t < s.ivs[i-1].End
}

// Union returns the coalesced union of both sets.
func (s IntervalSet) Union(other IntervalSet) IntervalSet {
	return Coalesce(append(s.Intervals(), other.ivs...))
}

// Equal reports whether both sets cover exactly the same intervals.
func (s IntervalSet) Equal(other IntervalSet) bool {
	return slices.Equal(s.ivs, other.ivs)
}

// String renders the set as a bracketed list.
func (s IntervalSet) String() string {
	parts := make([]string, len(s.ivs))
	for i, iv := range s.ivs {
		parts[i] = iv.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
