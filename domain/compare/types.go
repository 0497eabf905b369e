package compare

import (
	"time"

	"gojsd/domain/core"
	"gojsd/domain/matching"
)

// Mode selects how a comparison combines the requested attributes
type Mode string

const (
	// ModeSingle produces one distance series per matched attribute.
	ModeSingle Mode = "single"
	// ModeMulti combines the requested attributes into one distance series.
	ModeMulti Mode = "multi"
)

// Method tags how a multi-dimensional series was produced
type Method string

const (
	MethodAggregate Method = "aggregate"
	MethodFAMD      Method = "famd"
)

// Point is one dated distance observation
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DistanceSeries is an ordered sequence of (date, distance) pairs for one
// attribute comparison. Distances are symmetric and bounded to [0, 1].
type DistanceSeries struct {
	Attribute string  `json:"attribute"`
	Metric    string  `json:"metric"`
	Points    []Point `json:"points"`
}

// Len returns the number of points
func (s *DistanceSeries) Len() int {
	return len(s.Points)
}

// Dates returns the date column of the series
func (s *DistanceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Values returns the distance column of the series
func (s *DistanceSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// At returns the value at an exact date
func (s *DistanceSeries) At(date time.Time) (float64, bool) {
	want := core.Date(date)
	for _, p := range s.Points {
		if p.Date.Equal(want) {
			return p.Value, true
		}
	}
	return 0, false
}

// MultiDistanceResult is a combined distance series over several attributes,
// tagged with the method that produced it so consumers label it correctly
type MultiDistanceResult struct {
	Method     Method         `json:"method"`
	Attributes []string       `json:"attributes"`
	Series     DistanceSeries `json:"series"`
}

// AttributeError records one attribute's isolated failure during a
// multi-attribute comparison. The remaining attributes still complete.
type AttributeError struct {
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

// Entry is one ordered result of a comparison: either a per-attribute series
// (single mode) or a combined multi-dimensional result (multi mode)
type Entry struct {
	Attribute string               `json:"attribute"`
	Series    *DistanceSeries      `json:"series,omitempty"`
	Multi     *MultiDistanceResult `json:"multi,omitempty"`
}

// ComparisonResult is the complete outcome of one Compare call
type ComparisonResult struct {
	RunID core.RunID `json:"run_id"`

	DatasetA     core.DatasetID `json:"dataset_a"`
	DatasetB     core.DatasetID `json:"dataset_b"`
	DatasetAName string         `json:"dataset_a_name"`
	DatasetBName string         `json:"dataset_b_name"`

	Mode    Mode    `json:"mode"`
	Options Options `json:"options"`

	Entries  []Entry            `json:"entries"`
	Warnings []matching.Warning `json:"warnings,omitempty"`
	Errors   []AttributeError   `json:"errors,omitempty"`

	StartedAt time.Time `json:"started_at"`
	RuntimeMs int64     `json:"runtime_ms"`
}

// Succeeded reports whether at least one entry was produced
func (r *ComparisonResult) Succeeded() bool {
	return len(r.Entries) > 0
}

// NoComparableData reports the soft-failure outcome: nothing matched and
// nothing errored, the datasets simply share no attributes
func (r *ComparisonResult) NoComparableData() bool {
	return len(r.Entries) == 0 && len(r.Errors) == 0
}
