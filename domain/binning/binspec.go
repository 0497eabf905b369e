package binning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"gojsd/domain/core"
)

// DefaultBinCount is the number of equal-width bins generated when the caller
// does not override the count.
const DefaultBinCount = 10

// OutOfRangePolicy selects what happens to values outside the configured edges
type OutOfRangePolicy string

const (
	// PolicyClamp assigns out-of-range values to the nearest edge bin.
	PolicyClamp OutOfRangePolicy = "clamp"
	// PolicyStrict rejects out-of-range values with core.ErrOutOfRange.
	PolicyStrict OutOfRangePolicy = "strict"
)

// BinSpec is an ordered sequence of half-open intervals [Edges[i], Edges[i+1])
// with one label per interval. The final interval additionally includes its
// upper edge so the spec covers the full closed range it was built from.
// A spec is immutable once applied to a computation; editing edges means
// building a new spec.
type BinSpec struct {
	Edges  []float64
	Labels []string
	Policy OutOfRangePolicy
}

// NewSpec builds a spec from explicit edges with generated labels
func NewSpec(edges []float64, policy OutOfRangePolicy) (*BinSpec, error) {
	return NewSpecWithLabels(edges, defaultLabels(edges), policy)
}

// NewSpecWithLabels builds a spec from explicit edges and labels.
// Edges must be strictly increasing and labels must number len(edges)-1.
func NewSpecWithLabels(edges []float64, labels []string, policy OutOfRangePolicy) (*BinSpec, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("%w: need at least two edges, got %d", core.ErrInvalidSpec, len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("%w: edges not strictly increasing at index %d (%g >= %g)",
				core.ErrInvalidSpec, i, edges[i-1], edges[i])
		}
	}
	if len(labels) != len(edges)-1 {
		return nil, fmt.Errorf("%w: %d labels for %d bins", core.ErrInvalidSpec, len(labels), len(edges)-1)
	}
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("%w: blank label at index %d", core.ErrInvalidSpec, i)
		}
	}
	if policy == "" {
		policy = PolicyClamp
	}
	if policy != PolicyClamp && policy != PolicyStrict {
		return nil, fmt.Errorf("%w: unknown out-of-range policy %q", core.ErrInvalidSpec, policy)
	}
	e := make([]float64, len(edges))
	copy(e, edges)
	l := make([]string, len(labels))
	copy(l, labels)
	return &BinSpec{Edges: e, Labels: l, Policy: policy}, nil
}

// DefaultSpec partitions the observed [min, max] range of values into count
// equal-width bins. count <= 0 falls back to DefaultBinCount. A degenerate
// column (min == max) is widened by one unit so a single usable bin remains.
func DefaultSpec(values []float64, count int, policy OutOfRangePolicy) (*BinSpec, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no finite values to derive edges from", core.ErrInvalidSpec)
	}
	if count <= 0 {
		count = DefaultBinCount
	}
	lo, err := stats.Min(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSpec, err)
	}
	hi, err := stats.Max(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSpec, err)
	}
	if lo == hi {
		hi = lo + 1
	}
	edges := make([]float64, count+1)
	width := (hi - lo) / float64(count)
	for i := 0; i <= count; i++ {
		edges[i] = lo + float64(i)*width
	}
	// Guard against accumulated rounding pushing the last edge below max.
	edges[count] = hi
	return NewSpec(edges, policy)
}

// Bins returns the number of intervals
func (s *BinSpec) Bins() int {
	return len(s.Edges) - 1
}

// Min returns the lower bound of the covered range
func (s *BinSpec) Min() float64 {
	return s.Edges[0]
}

// Max returns the upper bound of the covered range
func (s *BinSpec) Max() float64 {
	return s.Edges[len(s.Edges)-1]
}

// Assign maps a value to its bin index. Values below Min or at/above Max are
// clamped into the edge bins under PolicyClamp and rejected under
// PolicyStrict, except that Max itself always belongs to the last bin.
func (s *BinSpec) Assign(v float64) (int, error) {
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: NaN cannot be binned", core.ErrOutOfRange)
	}
	n := s.Bins()
	if v < s.Min() {
		if s.Policy == PolicyStrict {
			return 0, core.NewOutOfRangeError(v, s.Min(), s.Max())
		}
		return 0, nil
	}
	if v >= s.Max() {
		if v == s.Max() {
			return n - 1, nil
		}
		if s.Policy == PolicyStrict {
			return 0, core.NewOutOfRangeError(v, s.Min(), s.Max())
		}
		return n - 1, nil
	}
	// sort.SearchFloat64s finds the first edge not below v. Landing exactly on
	// an edge opens that edge's bin; landing between edges takes the bin to
	// the left of the insertion point.
	i := sort.SearchFloat64s(s.Edges, v)
	if i < len(s.Edges) && s.Edges[i] == v {
		return i, nil
	}
	return i - 1, nil
}

// Label returns the label of bin i
func (s *BinSpec) Label(i int) string {
	return s.Labels[i]
}

// Apply bins a numeric column into category labels. Missing values (NaN) map
// to the empty string so downstream builders can drop those rows; any other
// failure aborts the whole column.
func (s *BinSpec) Apply(values []float64) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = ""
			continue
		}
		bin, err := s.Assign(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = s.Labels[bin]
	}
	return out, nil
}

// defaultLabels renders interval labels. Integral edges use the compact
// "lo-(hi-1)" form with ">=lo" for the final catch-all bin; fractional edges
// fall back to explicit interval notation.
func defaultLabels(edges []float64) []string {
	n := len(edges) - 1
	if n < 1 {
		return nil
	}
	labels := make([]string, n)
	if integralEdges(edges) {
		for i := 0; i < n-1; i++ {
			lo, hi := int64(edges[i]), int64(edges[i+1])
			if hi-lo == 1 {
				labels[i] = fmt.Sprintf("%d", lo)
			} else {
				labels[i] = fmt.Sprintf("%d-%d", lo, hi-1)
			}
		}
		labels[n-1] = fmt.Sprintf(">=%d", int64(edges[n-1]))
		return labels
	}
	for i := 0; i < n-1; i++ {
		labels[i] = fmt.Sprintf("[%g, %g)", edges[i], edges[i+1])
	}
	labels[n-1] = fmt.Sprintf(">=%g", edges[n-1])
	return labels
}

func integralEdges(edges []float64) bool {
	for _, e := range edges {
		if e != math.Trunc(e) {
			return false
		}
	}
	return true
}
