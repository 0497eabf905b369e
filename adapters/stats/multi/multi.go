package multi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gojsd/adapters/stats/famd"
	"gojsd/adapters/stats/metrics"
	"gojsd/domain/binning"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/domain/matching"
)

// ============================================================================
// MULTI-ATTRIBUTE DISTANCE LAYER
// ============================================================================
// Collapses several attributes into one distance series per date. Two
// methods:
//
//   aggregate  derives a cumulative table per attribute from the records,
//              computes each attribute's JSD series, and combines them as a
//              weighted mean per date
//   famd       refits a joint FAMD embedding per date over the rows observed
//              so far and applies a two-sample metric to the first embedding
//              coordinate
//
// Both methods need row-level records on both sides: cumulative tables alone
// cannot reconstruct the joint behavior of attributes.
// ============================================================================

// Calculator computes combined multi-attribute distance series
type Calculator struct {
	engine *metrics.MetricEngine
}

// NewCalculator wires the calculator to the metric engine that supplies
// embedding-space distances
func NewCalculator(engine *metrics.MetricEngine) *Calculator {
	return &Calculator{engine: engine}
}

// Outcome carries the combined result plus the non-fatal exclusions collected
// along the way
type Outcome struct {
	Result   *compare.MultiDistanceResult
	Warnings []matching.Warning
	Errors   []compare.AttributeError
}

// Compute produces one combined distance series over the requested canonical
// attributes. An empty attribute list selects every column the two record
// tables share. Fails with core.ErrInsufficientData when either side lacks
// row-level records or fewer than 2 usable attributes remain.
func (c *Calculator) Compute(ctx context.Context, a, b *dataset.Dataset, attrs []string, method compare.Method, opts compare.Options) (*Outcome, error) {
	if !a.HasRecords() || !b.HasRecords() {
		return nil, core.NewInsufficientDataError("multi-attribute comparison requires row-level records on both datasets")
	}
	matchOpts := matching.Options{StripTokens: opts.StripTokens}
	if len(attrs) == 0 {
		attrs = matching.MatchColumns(a.Records, b.Records, matchOpts)
	}
	if len(attrs) < 2 {
		return nil, core.NewInsufficientDataError(fmt.Sprintf("%d shared attribute(s), need at least 2", len(attrs)))
	}

	switch method {
	case compare.MethodAggregate, "":
		return c.aggregate(ctx, a, b, attrs, opts)
	case compare.MethodFAMD:
		return c.projectAndMeasure(ctx, a, b, attrs, opts)
	default:
		return nil, fmt.Errorf("unknown multi-attribute method %q", method)
	}
}

// ============================================================================
// AGGREGATE METHOD
// ============================================================================

// aggregate runs the per-attribute JSD series on tables derived from the
// records, then folds them into one series as a weighted mean per date.
// Attributes that fail to derive or compare are excluded and reported; the
// weights are renormalized over the survivors.
func (c *Calculator) aggregate(ctx context.Context, a, b *dataset.Dataset, attrs []string, opts compare.Options) (*Outcome, error) {
	out := &Outcome{}
	matchOpts := matching.Options{StripTokens: opts.StripTokens}

	// Step 1: one JSD series per attribute, failures isolated.
	var survivors []string
	perAttr := make(map[string]*compare.DistanceSeries, len(attrs))
	for _, attr := range attrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := c.attributeSeries(a, b, attr, matchOpts, opts)
		if err != nil {
			out.Errors = append(out.Errors, compare.AttributeError{Attribute: attr, Message: err.Error()})
			continue
		}
		survivors = append(survivors, attr)
		perAttr[attr] = series
	}
	if len(survivors) == 0 {
		return nil, core.NewInsufficientDataError("no attribute produced a distance series")
	}

	// Step 2: resolve the weights over the attributes that survived.
	weights, err := opts.NormalizedWeights(survivors)
	if err != nil {
		return nil, err
	}

	// Step 3: weighted mean per date. Derived tables share the record tables'
	// date axes, so every surviving series runs over the same dates.
	first := perAttr[survivors[0]]
	for _, attr := range survivors[1:] {
		if perAttr[attr].Len() != first.Len() {
			return nil, fmt.Errorf("attribute %q produced a diverging date axis", attr)
		}
	}
	points := make([]compare.Point, first.Len())
	for i := range points {
		var sum float64
		for _, attr := range survivors {
			sum += weights[attr] * perAttr[attr].Points[i].Value
		}
		points[i] = compare.Point{Date: first.Points[i].Date, Value: sum}
	}

	out.Result = &compare.MultiDistanceResult{
		Method:     compare.MethodAggregate,
		Attributes: survivors,
		Series: compare.DistanceSeries{
			Attribute: "aggregate",
			Metric:    "jsd",
			Points:    points,
		},
	}
	return out, nil
}

// attributeSeries derives one attribute's cumulative tables from both record
// tables and computes its JSD series. Numeric attributes are binned on shared
// edges pooled from both sides so the category sets line up; categorical
// attributes are aligned onto the union of observed categories.
func (c *Calculator) attributeSeries(a, b *dataset.Dataset, attr string, matchOpts matching.Options, opts compare.Options) (*compare.DistanceSeries, error) {
	rawA, ok := matching.ResolveColumn(a.Records, attr, matchOpts)
	if !ok {
		return nil, fmt.Errorf("%w: column %q in %s", core.ErrAttributeNotFound, attr, a.Name)
	}
	rawB, ok := matching.ResolveColumn(b.Records, attr, matchOpts)
	if !ok {
		return nil, fmt.Errorf("%w: column %q in %s", core.ErrAttributeNotFound, attr, b.Name)
	}
	kindA, _ := a.Records.Column(rawA)
	kindB, _ := b.Records.Column(rawB)
	if kindA != kindB {
		return nil, fmt.Errorf("column kind mismatch: %q is %s in %s but %s in %s", attr, kindA, a.Name, kindB, b.Name)
	}

	var spec *binning.BinSpec
	if kindA == dataset.ColumnNumeric {
		spec = opts.BinSpecs[attr]
		if spec == nil {
			va, _ := a.Records.NumericColumn(rawA)
			vb, _ := b.Records.NumericColumn(rawB)
			pooled := make([]float64, 0, len(va)+len(vb))
			pooled = append(pooled, va...)
			pooled = append(pooled, vb...)
			var err error
			spec, err = binning.DefaultSpec(pooled, opts.BinCount, opts.BinPolicy)
			if err != nil {
				return nil, err
			}
		}
	}

	ta, err := dataset.TableFromRecords(a.Records, rawA, spec)
	if err != nil {
		return nil, err
	}
	tb, err := dataset.TableFromRecords(b.Records, rawB, spec)
	if err != nil {
		return nil, err
	}
	ta, tb = matching.AlignTables(ta, tb)

	series, err := metrics.Series(ta, tb, opts.Alignment)
	if err != nil {
		return nil, err
	}
	series.Attribute = attr
	return series, nil
}

// ============================================================================
// FAMD METHOD
// ============================================================================

// projectAndMeasure walks the union date axis, refits the joint projection
// over rows observed through each date, and measures the configured
// two-sample distance between the first embedding coordinates. Early dates
// without enough rows on either side are skipped and reported once.
func (c *Calculator) projectAndMeasure(ctx context.Context, a, b *dataset.Dataset, attrs []string, opts compare.Options) (*Outcome, error) {
	out := &Outcome{}
	matchOpts := matching.Options{StripTokens: opts.StripTokens}

	// Step 1: resolve canonical attributes to raw column names. The joint
	// projection addresses both tables by one name, so sides whose raw
	// headers disagree are excluded with a warning.
	var usable []string
	var rawAttrs []string
	for _, attr := range attrs {
		rawA, okA := matching.ResolveColumn(a.Records, attr, matchOpts)
		rawB, okB := matching.ResolveColumn(b.Records, attr, matchOpts)
		if !okA || !okB {
			out.Warnings = append(out.Warnings, matching.Warning{Attribute: attr, Message: "column not present in both record tables"})
			continue
		}
		if rawA != rawB {
			out.Warnings = append(out.Warnings, matching.Warning{Attribute: attr, Message: fmt.Sprintf("raw column names diverge (%q vs %q)", rawA, rawB)})
			continue
		}
		kindA, _ := a.Records.Column(rawA)
		kindB, _ := b.Records.Column(rawB)
		if kindA != kindB {
			out.Warnings = append(out.Warnings, matching.Warning{Attribute: attr, Message: "column kind differs between record tables"})
			continue
		}
		usable = append(usable, attr)
		rawAttrs = append(rawAttrs, rawA)
	}
	if len(usable) < 2 {
		return nil, core.NewInsufficientDataError(fmt.Sprintf("%d usable attribute(s) after resolution, need at least 2", len(usable)))
	}

	metric, ok := c.engine.MetricFor(opts.FAMD.Metric)
	if !ok {
		return nil, fmt.Errorf("unknown embedding metric %q", opts.FAMD.Metric)
	}
	scale, err := famd.ParseScaleMethod(opts.FAMD.Scale)
	if err != nil {
		return nil, err
	}
	cfg := famd.Config{Components: opts.FAMD.Components, Scale: scale}

	// Step 2: per-date refit over the shared axis.
	axis := sharedAxis(a.Records.DateAxis(), b.Records.DateAxis())
	if len(axis) == 0 {
		return nil, core.ErrNoCommonDates
	}
	points := make([]compare.Point, 0, len(axis))
	skipped := 0
	for _, date := range axis {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		proj, err := famd.ProjectPairThrough(a.Records, b.Records, rawAttrs, cfg, date)
		if err != nil {
			if core.IsInsufficientDataError(err) {
				skipped++
				continue
			}
			return nil, err
		}
		res := metric.Distance(ctx, proj.FirstCoordinateA(), proj.FirstCoordinateB())
		if res.Failed() {
			skipped++
			continue
		}
		points = append(points, compare.Point{Date: date, Value: res.Distance})
	}
	if skipped > 0 {
		out.Warnings = append(out.Warnings, matching.Warning{
			Attribute: "famd",
			Message:   fmt.Sprintf("%d date(s) skipped: not enough rows observed yet", skipped),
		})
	}
	if len(points) == 0 {
		return nil, core.NewInsufficientDataError("no date produced an embedding distance")
	}

	out.Result = &compare.MultiDistanceResult{
		Method:     compare.MethodFAMD,
		Attributes: usable,
		Series: compare.DistanceSeries{
			Attribute: "famd",
			Metric:    metric.Name(),
			Points:    points,
		},
	}
	return out, nil
}

// sharedAxis is the sorted union of both date axes, trimmed to start at the
// later of the two first dates so no date precedes either table's history
func sharedAxis(a, b []time.Time) []time.Time {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(a)+len(b))
	union := make([]time.Time, 0, len(a)+len(b))
	for _, dt := range a {
		if !seen[dt.Unix()] {
			seen[dt.Unix()] = true
			union = append(union, dt)
		}
	}
	for _, dt := range b {
		if !seen[dt.Unix()] {
			seen[dt.Unix()] = true
			union = append(union, dt)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i].Before(union[j]) })

	start := a[0]
	if b[0].After(start) {
		start = b[0]
	}
	for i, dt := range union {
		if !dt.Before(start) {
			return union[i:]
		}
	}
	return nil
}
