package temporal

import (
	"sort"
	"time"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// ============================================================================
// DATE ALIGNMENT LAYER
// ============================================================================
// This package reconciles the date axes of two attribute tables so that a
// distance can be computed per comparison date. Two tables rarely share an
// axis exactly: enrollment snapshots land on different days, and some
// attributes carry a single reference date ("static" tables).
//
// The alignment policy is explicit and caller-selected; nothing is guessed.
// ============================================================================

// AlignedPair maps a shared comparison axis onto row positions in each table.
// RowsA[i] and RowsB[i] are the rows whose cumulative counts describe the two
// datasets as of Dates[i].
type AlignedPair struct {
	Dates []time.Time
	RowsA []int
	RowsB []int
}

// Len returns the number of comparison dates
func (p *AlignedPair) Len() int {
	return len(p.Dates)
}

// Align builds the comparison axis for two tables under the given policy.
//
//   - compare.AlignExact keeps the first table's dates that also appear in the
//     second table; unmatched dates are skipped, never interpolated.
//   - compare.AlignNearestPrior takes the union of both axes, drops dates
//     before the later of the two first dates (no row exists yet on one side),
//     and resolves every axis date to the nearest row at or before it.
//
// A static table (single reference date) follows the counterpart's axis under
// either policy: its one row answers for every comparison date. When both
// tables are static the first table's reference date is the axis.
//
// Returns core.ErrNoCommonDates when no comparison date survives.
func Align(a, b *dataset.AttributeTable, policy compare.DateAlignment) (*AlignedPair, error) {
	if policy == "" {
		policy = compare.AlignExact
	}

	// Step 1: static tables short-circuit the policy.
	if a.IsStatic() && b.IsStatic() {
		return &AlignedPair{Dates: []time.Time{a.FirstDate()}, RowsA: []int{0}, RowsB: []int{0}}, nil
	}
	if a.IsStatic() {
		pair := &AlignedPair{Dates: append([]time.Time(nil), b.Dates...)}
		pair.RowsA = repeatIndex(0, len(b.Dates))
		pair.RowsB = sequentialIndex(len(b.Dates))
		return pair, nil
	}
	if b.IsStatic() {
		pair := &AlignedPair{Dates: append([]time.Time(nil), a.Dates...)}
		pair.RowsA = sequentialIndex(len(a.Dates))
		pair.RowsB = repeatIndex(0, len(a.Dates))
		return pair, nil
	}

	switch policy {
	case compare.AlignNearestPrior:
		return alignNearestPrior(a, b)
	default:
		return alignExact(a, b)
	}
}

// alignExact intersects the axes, preserving the first table's date order
func alignExact(a, b *dataset.AttributeTable) (*AlignedPair, error) {
	pair := &AlignedPair{}
	for i, dt := range a.Dates {
		j, ok := exactIndex(b.Dates, dt)
		if !ok {
			continue
		}
		pair.Dates = append(pair.Dates, dt)
		pair.RowsA = append(pair.RowsA, i)
		pair.RowsB = append(pair.RowsB, j)
	}
	if len(pair.Dates) == 0 {
		return nil, core.ErrNoCommonDates
	}
	return pair, nil
}

// alignNearestPrior unions the axes and resolves each date to the latest row
// at or before it in each table
func alignNearestPrior(a, b *dataset.AttributeTable) (*AlignedPair, error) {
	// Step 1: union of both axes, sorted.
	union := unionDates(a.Dates, b.Dates)

	// Step 2: trim dates before the later first date. Neither table has an
	// observed row there, so a distance at those dates would be fabricated.
	cutoff := maxTime(a.FirstDate(), b.FirstDate())
	axis := union[:0:0]
	for _, dt := range union {
		if !dt.Before(cutoff) {
			axis = append(axis, dt)
		}
	}
	if len(axis) == 0 {
		return nil, core.ErrNoCommonDates
	}

	// Step 3: resolve every axis date against both tables.
	pair := &AlignedPair{Dates: axis}
	pair.RowsA = make([]int, len(axis))
	pair.RowsB = make([]int, len(axis))
	for i, dt := range axis {
		pair.RowsA[i] = nearestPriorIndex(a.Dates, dt)
		pair.RowsB[i] = nearestPriorIndex(b.Dates, dt)
	}
	return pair, nil
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// nearestPriorIndex finds the latest row at or before the date. The axis is
// pre-trimmed so at least row 0 always qualifies.
func nearestPriorIndex(dates []time.Time, at time.Time) int {
	// First index strictly after `at`; the answer sits one to its left.
	i := sort.Search(len(dates), func(k int) bool { return dates[k].After(at) })
	if i == 0 {
		return 0
	}
	return i - 1
}

func exactIndex(dates []time.Time, at time.Time) (int, bool) {
	for i, dt := range dates {
		if dt.Equal(at) {
			return i, true
		}
	}
	return 0, false
}

func unionDates(a, b []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(a)+len(b))
	union := make([]time.Time, 0, len(a)+len(b))
	for _, dt := range a {
		if !seen[dt] {
			seen[dt] = true
			union = append(union, dt)
		}
	}
	for _, dt := range b {
		if !seen[dt] {
			seen[dt] = true
			union = append(union, dt)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })
	return union
}

func repeatIndex(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sequentialIndex(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
