package multi

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gojsd/adapters/stats/metrics"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/domain/matching"
)

func recordedDataset(t *testing.T, name string, dateStrs []string, genders []string, ages []float64) *dataset.Dataset {
	t.Helper()
	dates := make([]time.Time, len(dateStrs))
	for i, s := range dateStrs {
		d, err := core.ParseDate(s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		dates[i] = d
	}
	rt, err := dataset.NewRecordTable(dates,
		[]dataset.ColumnInfo{
			{Name: "age", Kind: dataset.ColumnNumeric},
			{Name: "gender", Kind: dataset.ColumnCategorical},
		},
		map[string][]float64{"age": ages},
		map[string][]string{"gender": genders},
	)
	if err != nil {
		t.Fatalf("record fixture: %v", err)
	}
	ds := dataset.NewDataset(name, nil)
	ds.Records = rt
	return ds
}

func newCalculator() *Calculator {
	return NewCalculator(metrics.NewMetricEngine(metrics.EngineConfig{}))
}

func TestCompute_RequiresRecords(t *testing.T) {
	a := dataset.NewDataset("a", nil)
	b := dataset.NewDataset("b", nil)

	_, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodAggregate, compare.Options{}.WithDefaults())
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("datasets without records should fail, got %v", err)
	}
}

func TestCompute_RequiresTwoAttributes(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-02"}
	a := recordedDataset(t, "a", days, []string{"F", "M"}, []float64{30, 40})
	b := recordedDataset(t, "b", days, []string{"F", "F"}, []float64{35, 45})

	_, err := newCalculator().Compute(context.Background(), a, b, []string{"gender"}, compare.MethodAggregate, compare.Options{}.WithDefaults())
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("a single attribute should fail, got %v", err)
	}
}

func TestCompute_UnknownMethod(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-02"}
	a := recordedDataset(t, "a", days, []string{"F", "M"}, []float64{30, 40})
	b := recordedDataset(t, "b", days, []string{"F", "F"}, []float64{35, 45})

	if _, err := newCalculator().Compute(context.Background(), a, b, nil, "pca", compare.Options{}.WithDefaults()); err == nil {
		t.Error("unknown method should be rejected")
	}
}

func TestCompute_AggregateWeightedMean(t *testing.T) {
	// Scenario: ages are identical on both sides, so the age series is zero
	// everywhere and the combined series is exactly half the gender series.
	days := []string{"2024-01-01", "2024-01-01", "2024-01-02", "2024-01-02"}
	ages := []float64{30, 50, 30, 50}
	a := recordedDataset(t, "a", days, []string{"F", "M", "F", "M"}, ages)
	b := recordedDataset(t, "b", days, []string{"F", "F", "F", "M"}, ages)

	opts := compare.Options{}.WithDefaults()
	out, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodAggregate, opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(out.Errors) != 0 {
		t.Fatalf("unexpected attribute errors: %v", out.Errors)
	}

	result := out.Result
	if result.Method != compare.MethodAggregate {
		t.Errorf("method tag wrong: %q", result.Method)
	}
	if result.Series.Attribute != "aggregate" || result.Series.Metric != "jsd" {
		t.Errorf("series labels wrong: %q %q", result.Series.Attribute, result.Series.Metric)
	}
	if len(result.Attributes) != 2 {
		t.Fatalf("expected both shared attributes, got %v", result.Attributes)
	}
	if result.Series.Len() != 2 {
		t.Fatalf("expected one point per record date, got %d", result.Series.Len())
	}

	// Derive the gender-only series the same way the aggregate does and
	// check the weighted fold against it.
	ta, err := dataset.TableFromRecords(a.Records, "gender", nil)
	if err != nil {
		t.Fatalf("deriving gender table: %v", err)
	}
	tb, err := dataset.TableFromRecords(b.Records, "gender", nil)
	if err != nil {
		t.Fatalf("deriving gender table: %v", err)
	}
	ta, tb = matching.AlignTables(ta, tb)
	genderOnly, err := metrics.Series(ta, tb, opts.Alignment)
	if err != nil {
		t.Fatalf("gender series: %v", err)
	}

	for i, pt := range result.Series.Points {
		want := 0.5 * genderOnly.Points[i].Value
		if math.Abs(pt.Value-want) > 1e-12 {
			t.Errorf("point %d: combined %g, want %g (half the gender distance)", i, pt.Value, want)
		}
	}
	// The gender distance is nonzero on both dates, so the combined series
	// must be as well.
	for i, pt := range result.Series.Points {
		if pt.Value <= 0 {
			t.Errorf("point %d should be positive, got %g", i, pt.Value)
		}
	}
}

func TestCompute_AggregateIsolatesBrokenAttribute(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-01", "2024-01-02", "2024-01-02"}
	ages := []float64{30, 50, 30, 50}
	blank := []string{"", "", "", ""}

	build := func(name string, genders []string) *dataset.Dataset {
		dates := make([]time.Time, len(days))
		for i, s := range days {
			d, _ := core.ParseDate(s)
			dates[i] = d
		}
		rt, err := dataset.NewRecordTable(dates,
			[]dataset.ColumnInfo{
				{Name: "age", Kind: dataset.ColumnNumeric},
				{Name: "gender", Kind: dataset.ColumnCategorical},
				{Name: "notes", Kind: dataset.ColumnCategorical},
			},
			map[string][]float64{"age": ages},
			map[string][]string{"gender": genders, "notes": blank},
		)
		if err != nil {
			t.Fatalf("record fixture: %v", err)
		}
		ds := dataset.NewDataset(name, nil)
		ds.Records = rt
		return ds
	}
	a := build("a", []string{"F", "M", "F", "M"})
	b := build("b", []string{"F", "F", "F", "M"})

	// Weights cover the broken attribute too; the survivors' weights must be
	// renormalized over just the two that completed.
	opts := compare.Options{Weights: map[string]float64{"age": 1, "gender": 1, "notes": 8}}.WithDefaults()
	out, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodAggregate, opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if len(out.Errors) != 1 || out.Errors[0].Attribute != "notes" {
		t.Fatalf("expected one isolated error for notes, got %v", out.Errors)
	}
	if len(out.Result.Attributes) != 2 {
		t.Errorf("survivors wrong: %v", out.Result.Attributes)
	}
	for _, attr := range out.Result.Attributes {
		if attr == "notes" {
			t.Error("the broken attribute must not appear among survivors")
		}
	}

	// Same check as the clean case: ages are identical, so the combined series
	// is half the gender series under the renormalized equal weights.
	ta, _ := dataset.TableFromRecords(a.Records, "gender", nil)
	tb, _ := dataset.TableFromRecords(b.Records, "gender", nil)
	ta, tb = matching.AlignTables(ta, tb)
	genderOnly, err := metrics.Series(ta, tb, opts.Alignment)
	if err != nil {
		t.Fatalf("gender series: %v", err)
	}
	for i, pt := range out.Result.Series.Points {
		want := 0.5 * genderOnly.Points[i].Value
		if math.Abs(pt.Value-want) > 1e-12 {
			t.Errorf("point %d: combined %g, want %g", i, pt.Value, want)
		}
	}
}

func TestCompute_FAMDSeries(t *testing.T) {
	// One row on the first day is not enough to project; that date is skipped
	// with a warning and the remaining dates produce bounded JSD values.
	days := []string{"2024-01-01", "2024-01-02", "2024-01-02", "2024-01-02"}
	a := recordedDataset(t, "a", days, []string{"F", "M", "F", "M"}, []float64{30, 40, 50, 60})
	b := recordedDataset(t, "b", days, []string{"M", "F", "M", "F"}, []float64{20, 35, 45, 55})

	opts := compare.Options{}.WithDefaults()
	out, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodFAMD, opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	result := out.Result
	if result.Method != compare.MethodFAMD {
		t.Errorf("method tag wrong: %q", result.Method)
	}
	if result.Series.Attribute != "famd" || result.Series.Metric != "jsd" {
		t.Errorf("series labels wrong: %q %q", result.Series.Attribute, result.Series.Metric)
	}
	if result.Series.Len() != 1 {
		t.Fatalf("expected the single-row date to be skipped, got %d points", result.Series.Len())
	}
	for _, pt := range result.Series.Points {
		if pt.Value < 0 || pt.Value > 1 {
			t.Errorf("JSD embedding distance must stay in [0,1], got %g", pt.Value)
		}
	}

	found := false
	for _, w := range out.Warnings {
		if w.Attribute == "famd" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a skipped-dates warning, got %v", out.Warnings)
	}
}

func TestCompute_FAMDDeterministic(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-01", "2024-01-02", "2024-01-02"}
	a := recordedDataset(t, "a", days, []string{"F", "M", "F", "M"}, []float64{30, 40, 50, 60})
	b := recordedDataset(t, "b", days, []string{"M", "F", "M", "F"}, []float64{20, 35, 45, 55})

	opts := compare.Options{}.WithDefaults()
	first, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodFAMD, opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	second, err := newCalculator().Compute(context.Background(), a, b, nil, compare.MethodFAMD, opts)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if first.Result.Series.Len() != second.Result.Series.Len() {
		t.Fatalf("runs diverged in length: %d vs %d", first.Result.Series.Len(), second.Result.Series.Len())
	}
	for i := range first.Result.Series.Points {
		if first.Result.Series.Points[i].Value != second.Result.Series.Points[i].Value {
			t.Errorf("point %d diverged between identical runs", i)
		}
	}
}
