package metrics

import (
	"context"
	"fmt"
	"math"

	"gojsd/domain/binning"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/domain/distribution"

	"gojsd/adapters/stats/temporal"
)

// ============================================================================
// JENSEN–SHANNON DISTANCE
// ============================================================================
// The primary representativeness measure. Base-2 logarithms bound the
// divergence to [0, 1]; the distance is its square root, so the distance is
// also bounded by exactly 1, symmetric, and zero only for identical vectors.
// The 0·log(0) = 0 convention handles categories one or both sides never
// observed.
// ============================================================================

// Divergence returns the base-2 Jensen–Shannon divergence between two aligned
// probability vectors. The vectors must be index-aligned on the same category
// set; the matcher's union-and-zero-fill step guarantees that upstream.
func Divergence(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, fmt.Errorf("%w: %d vs %d entries", core.ErrCategoryMismatch, len(p), len(q))
	}
	if len(p) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", core.ErrCategoryMismatch)
	}
	var div float64
	for i := range p {
		m := (p[i] + q[i]) / 2
		div += 0.5*klTerm(p[i], m) + 0.5*klTerm(q[i], m)
	}
	// Floating error can push the sum a hair outside [0, 1].
	if div < 0 {
		div = 0
	}
	if div > 1 {
		div = 1
	}
	return div, nil
}

// Distance returns the Jensen–Shannon distance (square root of Divergence)
func Distance(p, q []float64) (float64, error) {
	div, err := Divergence(p, q)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(div), nil
}

// FromDistributions computes the distance between two built distributions,
// verifying they share a category key set
func FromDistributions(p, q *distribution.Distribution) (float64, error) {
	if !p.SharesCategories(q) {
		return 0, fmt.Errorf("%w: %v vs %v", core.ErrCategoryMismatch, p.Categories, q.Categories)
	}
	return Distance(p.Probs, q.Probs)
}

// klTerm is one contribution a·log2(a/m) with the 0·log(0) = 0 convention
func klTerm(a, m float64) float64 {
	if a == 0 || m == 0 {
		return 0
	}
	return a * math.Log2(a/m)
}

// Series computes the Jensen–Shannon distance per comparison date of two
// aligned attribute tables. The tables must already share a category set
// (matching.Pairs output). Dates are reconciled under the given alignment
// policy; a date whose distribution is empty on either side fails the whole
// series, because a partial series would silently misrepresent the trend.
func Series(a, b *dataset.AttributeTable, policy compare.DateAlignment) (*compare.DistanceSeries, error) {
	pair, err := temporal.Align(a, b, policy)
	if err != nil {
		return nil, err
	}
	series := &compare.DistanceSeries{
		Attribute: a.Name,
		Metric:    "jsd",
		Points:    make([]compare.Point, 0, pair.Len()),
	}
	for i := 0; i < pair.Len(); i++ {
		dp, err := distribution.BuildAt(a, pair.RowsA[i])
		if err != nil {
			return nil, err
		}
		dq, err := distribution.BuildAt(b, pair.RowsB[i])
		if err != nil {
			return nil, err
		}
		d, err := FromDistributions(dp, dq)
		if err != nil {
			return nil, err
		}
		series.Points = append(series.Points, compare.Point{Date: pair.Dates[i], Value: d})
	}
	return series, nil
}

// ============================================================================
// HISTOGRAM JSD SAMPLE METRIC
// ============================================================================
// Adapts the vector distance to continuous samples (embedding coordinates):
// both samples are histogrammed on shared equal-width bins over the pooled
// range, normalized, and compared.

// DefaultHistogramBins is the histogram resolution when none is configured.
const DefaultHistogramBins = 20

// HistogramJSD measures Jensen–Shannon distance between two continuous
// samples via shared-bin histograms
type HistogramJSD struct {
	bins int
}

// NewHistogramJSD creates the metric; bins <= 0 selects the default
func NewHistogramJSD(bins int) *HistogramJSD {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	return &HistogramJSD{bins: bins}
}

// Name identifies this metric
func (h *HistogramJSD) Name() string {
	return "jsd"
}

// Description explains what this metric measures
func (h *HistogramJSD) Description() string {
	return "Jensen-Shannon distance between shared-bin histograms of the two samples"
}

// Bounded reports the [0, 1] range
func (h *HistogramJSD) Bounded() bool {
	return true
}

// Distance histograms both samples over the pooled range and compares them
func (h *HistogramJSD) Distance(_ context.Context, x, y []float64) DistanceResult {
	px, py, err := sharedHistograms(x, y, h.bins)
	if err != nil {
		return errorResult(h.Name(), err)
	}
	d, err := Distance(px, py)
	if err != nil {
		return errorResult(h.Name(), err)
	}
	return DistanceResult{
		MetricName:  h.Name(),
		Distance:    d,
		PValue:      math.NaN(),
		Magnitude:   classifyMagnitude(d, math.NaN(), true),
		Description: fmt.Sprintf("JSD %.4f over %d shared bins", d, h.bins),
	}
}

// sharedHistograms bins both samples on one equal-width spec spanning the
// pooled range and normalizes the counts
func sharedHistograms(x, y []float64, bins int) ([]float64, []float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, nil, fmt.Errorf("both samples must be non-empty")
	}
	pooled := make([]float64, 0, len(x)+len(y))
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)
	spec, err := binning.DefaultSpec(pooled, bins, binning.PolicyClamp)
	if err != nil {
		return nil, nil, err
	}
	cx, err := binCounts(spec, x)
	if err != nil {
		return nil, nil, err
	}
	cy, err := binCounts(spec, y)
	if err != nil {
		return nil, nil, err
	}
	px, err := normalizeCounts(cx)
	if err != nil {
		return nil, nil, err
	}
	py, err := normalizeCounts(cy)
	if err != nil {
		return nil, nil, err
	}
	return px, py, nil
}

func binCounts(spec *binning.BinSpec, values []float64) ([]float64, error) {
	counts := make([]float64, spec.Bins())
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		i, err := spec.Assign(v)
		if err != nil {
			return nil, err
		}
		counts[i]++
	}
	return counts, nil
}

func normalizeCounts(counts []float64) ([]float64, error) {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return nil, core.ErrEmptyDistribution
	}
	probs := make([]float64, len(counts))
	for i, c := range counts {
		probs[i] = c / total
	}
	return probs, nil
}
