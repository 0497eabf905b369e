package famd

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

func mixedRecords(t *testing.T, ages []float64, genders []string) *dataset.RecordTable {
	t.Helper()
	if len(ages) != len(genders) {
		t.Fatalf("fixture shape mismatch: %d ages, %d genders", len(ages), len(genders))
	}
	start, _ := core.ParseDate("2024-01-01")
	dates := make([]time.Time, len(ages))
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
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
	return rt
}

func TestParseScaleMethod_Aliases(t *testing.T) {
	cases := []struct {
		name string
		want ScaleMethod
	}{
		{"", ScaleStandard},
		{"std", ScaleStandard},
		{"standard", ScaleStandard},
		{"minmax", ScaleMinMax},
		{"min-max", ScaleMinMax},
		{"max-abs", ScaleMaxAbs},
		{"robust", ScaleRobust},
		{"none", ScaleNone},
	}
	for _, c := range cases {
		got, err := ParseScaleMethod(c.name)
		if err != nil || got != c.want {
			t.Errorf("ParseScaleMethod(%q) = %q, %v; want %q", c.name, got, err, c.want)
		}
	}
	if _, err := ParseScaleMethod("zscore"); err == nil {
		t.Error("unknown alias should be rejected")
	}
}

func TestScale_Standard(t *testing.T) {
	out, err := Scale([]float64{1, 2, 3}, ScaleStandard)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("standardized column should center on zero, sum = %g", sum)
	}
	if math.Abs(out[0]+out[2]) > 1e-9 || out[1] != 0 {
		t.Errorf("symmetric input should scale symmetrically: %v", out)
	}
}

func TestScale_MinMax(t *testing.T) {
	out, err := Scale([]float64{10, 20, 30}, ScaleMinMax)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("minmax scaled %v, want %v", out, want)
			break
		}
	}
}

func TestScale_MaxAbs(t *testing.T) {
	out, err := Scale([]float64{-4, 2}, ScaleMaxAbs)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if out[0] != -1 || out[1] != 0.5 {
		t.Errorf("maxabs scaled %v, want [-1 0.5]", out)
	}
}

func TestScale_RobustCentersOnMedian(t *testing.T) {
	out, err := Scale([]float64{1, 2, 3, 4, 5}, ScaleRobust)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	if out[2] != 0 {
		t.Errorf("median should map to zero, got %g", out[2])
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Errorf("scaling must preserve order: %v", out)
			break
		}
	}
}

func TestScale_DegenerateColumn(t *testing.T) {
	// A constant column carries no signal but must not abort the projection.
	for _, method := range []ScaleMethod{ScaleStandard, ScaleMinMax, ScaleMaxAbs, ScaleRobust} {
		out, err := Scale([]float64{5, 5, 5}, method)
		if err != nil {
			t.Errorf("%s on a constant column failed: %v", method, err)
			continue
		}
		for _, v := range out {
			if v != 0 {
				t.Errorf("%s should scale a constant column to zeros, got %v", method, out)
				break
			}
		}
	}

	out, err := Scale([]float64{5, 5}, ScaleNone)
	if err != nil || out[0] != 5 {
		t.Errorf("none should copy values through: %v %v", out, err)
	}
	if _, err := Scale(nil, ScaleStandard); err == nil {
		t.Error("empty column should be rejected")
	}
}

func TestProjectPair_RequiresTwoAttributes(t *testing.T) {
	a := mixedRecords(t, []float64{20, 30}, []string{"F", "M"})
	b := mixedRecords(t, []float64{25, 35}, []string{"F", "M"})

	_, err := ProjectPair(a, b, []string{"age"}, Config{})
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("single attribute should fail with ErrInsufficientData, got %v", err)
	}
	if _, err := ProjectPair(nil, b, []string{"age", "gender"}, Config{}); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("a nil table should fail with ErrInsufficientData, got %v", err)
	}
}

func TestProjectPair_RequiresCompleteRows(t *testing.T) {
	// One of a's two rows is missing its age, leaving a single complete row.
	a := mixedRecords(t, []float64{20, math.NaN()}, []string{"F", "M"})
	b := mixedRecords(t, []float64{25, 35}, []string{"F", "M"})

	_, err := ProjectPair(a, b, []string{"age", "gender"}, Config{})
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestProjectPair_UnknownAttribute(t *testing.T) {
	a := mixedRecords(t, []float64{20, 30}, []string{"F", "M"})
	b := mixedRecords(t, []float64{25, 35}, []string{"F", "M"})

	_, err := ProjectPair(a, b, []string{"age", "height"}, Config{})
	if !errors.Is(err, core.ErrAttributeNotFound) {
		t.Errorf("expected ErrAttributeNotFound, got %v", err)
	}
}

func TestProjectPair_Shapes(t *testing.T) {
	a := mixedRecords(t, []float64{20, 30, 40, 50}, []string{"F", "M", "F", "M"})
	b := mixedRecords(t, []float64{25, 35, 45}, []string{"M", "F", "M"})

	proj, err := ProjectPair(a, b, []string{"age", "gender"}, Config{Components: 2})
	if err != nil {
		t.Fatalf("ProjectPair failed: %v", err)
	}
	if len(proj.A) != 4 || len(proj.B) != 3 {
		t.Fatalf("row counts wrong: %d and %d", len(proj.A), len(proj.B))
	}
	for _, row := range append(append([][]float64(nil), proj.A...), proj.B...) {
		if len(row) != 2 {
			t.Fatalf("expected 2 components per row, got %d", len(row))
		}
	}
	if len(proj.Explained) != 2 {
		t.Fatalf("expected 2 explained shares, got %d", len(proj.Explained))
	}
	var total float64
	for _, e := range proj.Explained {
		if e < 0 || e > 1 {
			t.Errorf("explained share outside [0,1]: %v", proj.Explained)
		}
		total += e
	}
	if total > 1+1e-9 {
		t.Errorf("explained shares sum past 1: %g", total)
	}
	if len(proj.FirstCoordinateA()) != 4 || len(proj.FirstCoordinateB()) != 3 {
		t.Error("first-coordinate accessors should mirror the row counts")
	}
}

func TestProjectPair_DropsIncompleteRows(t *testing.T) {
	// Rows 1 (missing age) and 2 (missing gender) are dropped on the a side.
	a := mixedRecords(t, []float64{20, math.NaN(), 40, 50}, []string{"F", "M", "", "M"})
	b := mixedRecords(t, []float64{25, 35}, []string{"M", "F"})

	proj, err := ProjectPair(a, b, []string{"age", "gender"}, Config{})
	if err != nil {
		t.Fatalf("ProjectPair failed: %v", err)
	}
	if len(proj.A) != 2 {
		t.Errorf("expected 2 complete rows on the a side, got %d", len(proj.A))
	}
	if len(proj.B) != 2 {
		t.Errorf("b side should be untouched, got %d rows", len(proj.B))
	}
}

func TestProjectPair_Deterministic(t *testing.T) {
	a := mixedRecords(t, []float64{20, 30, 40, 50}, []string{"F", "M", "F", "M"})
	b := mixedRecords(t, []float64{25, 35, 45, 55}, []string{"M", "F", "M", "F"})

	first, err := ProjectPair(a, b, []string{"age", "gender"}, Config{})
	if err != nil {
		t.Fatalf("ProjectPair failed: %v", err)
	}
	second, err := ProjectPair(a, b, []string{"age", "gender"}, Config{})
	if err != nil {
		t.Fatalf("ProjectPair failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs should yield an identical projection")
	}
}

func TestProjectPair_SeparatesDistinctGroups(t *testing.T) {
	// Scenario: the two datasets differ on every selected attribute. Their
	// clouds should land far apart on the first embedding axis.
	a := mixedRecords(t, []float64{10, 11, 12, 13}, []string{"X", "X", "X", "X"})
	b := mixedRecords(t, []float64{50, 51, 52, 53}, []string{"Y", "Y", "Y", "Y"})

	proj, err := ProjectPair(a, b, []string{"age", "gender"}, Config{})
	if err != nil {
		t.Fatalf("ProjectPair failed: %v", err)
	}
	gap := math.Abs(mean(proj.FirstCoordinateA()) - mean(proj.FirstCoordinateB()))
	if gap < 1.0 {
		t.Errorf("expected a wide first-axis gap between the groups, got %g", gap)
	}
}

func TestProjectPairThrough_RestrictsByDate(t *testing.T) {
	a := mixedRecords(t, []float64{20, 30, 40, 50}, []string{"F", "M", "F", "M"})
	b := mixedRecords(t, []float64{25, 35, 45}, []string{"M", "F", "M"})

	cutoff, _ := core.ParseDate("2024-01-02")
	proj, err := ProjectPairThrough(a, b, []string{"age", "gender"}, Config{}, cutoff)
	if err != nil {
		t.Fatalf("ProjectPairThrough failed: %v", err)
	}
	// Fixture rows arrive one per day from Jan 1, so two rows fall within the
	// cutoff on each side.
	if len(proj.A) != 2 || len(proj.B) != 2 {
		t.Errorf("cutoff should keep 2 rows per side, got %d and %d", len(proj.A), len(proj.B))
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
