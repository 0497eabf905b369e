package temporal

import (
	"errors"
	"testing"
	"time"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

func axisTable(t *testing.T, name string, dateStrs ...string) *dataset.AttributeTable {
	t.Helper()
	dates := make([]time.Time, len(dateStrs))
	counts := make([][]float64, len(dateStrs))
	for i, s := range dateStrs {
		d, err := core.ParseDate(s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		dates[i] = d
		counts[i] = []float64{float64(i + 1)}
	}
	at, err := dataset.NewAttributeTable(name, dates, []string{"all"}, counts)
	if err != nil {
		t.Fatalf("fixture table: %v", err)
	}
	return at
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func TestAlign_ExactIntersection(t *testing.T) {
	// Scenario: a ships weekly snapshots, b started one week later and runs a
	// week longer. Only the overlapping dates are comparable.
	a := axisTable(t, "gender", "2024-01-01", "2024-01-08", "2024-01-15")
	b := axisTable(t, "gender", "2024-01-08", "2024-01-15", "2024-01-22")

	pair, err := Align(a, b, compare.AlignExact)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if pair.Len() != 2 {
		t.Fatalf("expected 2 shared dates, got %d", pair.Len())
	}
	if !pair.Dates[0].Equal(day(t, "2024-01-08")) || !pair.Dates[1].Equal(day(t, "2024-01-15")) {
		t.Errorf("axis wrong: %v", pair.Dates)
	}
	if pair.RowsA[0] != 1 || pair.RowsA[1] != 2 {
		t.Errorf("rows into a wrong: %v", pair.RowsA)
	}
	if pair.RowsB[0] != 0 || pair.RowsB[1] != 1 {
		t.Errorf("rows into b wrong: %v", pair.RowsB)
	}
}

func TestAlign_ExactNoOverlap(t *testing.T) {
	a := axisTable(t, "gender", "2024-01-01", "2024-01-02")
	b := axisTable(t, "gender", "2024-02-01", "2024-02-02")

	_, err := Align(a, b, compare.AlignExact)
	if !errors.Is(err, core.ErrNoCommonDates) {
		t.Errorf("expected ErrNoCommonDates, got %v", err)
	}
}

func TestAlign_NearestPriorUnion(t *testing.T) {
	// a reports on the 1st and 15th, b on the 8th and 20th. The union axis
	// starts at the later first date (the 8th) and each date resolves to the
	// latest row at or before it on each side.
	a := axisTable(t, "gender", "2024-01-01", "2024-01-15")
	b := axisTable(t, "gender", "2024-01-08", "2024-01-20")

	pair, err := Align(a, b, compare.AlignNearestPrior)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	wantDates := []string{"2024-01-08", "2024-01-15", "2024-01-20"}
	if pair.Len() != len(wantDates) {
		t.Fatalf("axis length wrong: got %v", pair.Dates)
	}
	for i, s := range wantDates {
		if !pair.Dates[i].Equal(day(t, s)) {
			t.Errorf("axis[%d] = %v, want %s", i, pair.Dates[i], s)
		}
	}
	if pair.RowsA[0] != 0 || pair.RowsA[1] != 1 || pair.RowsA[2] != 1 {
		t.Errorf("rows into a wrong: %v", pair.RowsA)
	}
	if pair.RowsB[0] != 0 || pair.RowsB[1] != 0 || pair.RowsB[2] != 1 {
		t.Errorf("rows into b wrong: %v", pair.RowsB)
	}
}

func TestAlign_NearestPriorTrimsLeadingDates(t *testing.T) {
	a := axisTable(t, "gender", "2024-01-01", "2024-01-05", "2024-01-10")
	b := axisTable(t, "gender", "2024-01-07", "2024-01-12")

	pair, err := Align(a, b, compare.AlignNearestPrior)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	// Dates before b's first observation carry no row on b's side.
	if !pair.Dates[0].Equal(day(t, "2024-01-07")) {
		t.Errorf("axis should start at the later first date, got %v", pair.Dates[0])
	}
	for _, dt := range pair.Dates {
		if dt.Before(day(t, "2024-01-07")) {
			t.Errorf("axis contains a date before the cutoff: %v", dt)
		}
	}
}

func TestAlign_StaticFollowsCounterpart(t *testing.T) {
	// Scenario: census reference distributions carry a single date; the
	// longitudinal side supplies the comparison axis and the static row
	// answers for every date.
	static := axisTable(t, "region", "2024-01-01")
	moving := axisTable(t, "region", "2024-01-08", "2024-01-15", "2024-01-22")

	pair, err := Align(static, moving, compare.AlignExact)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if pair.Len() != 3 {
		t.Fatalf("expected the counterpart's full axis, got %d dates", pair.Len())
	}
	for i := range pair.Dates {
		if pair.RowsA[i] != 0 {
			t.Errorf("static side should always answer with row 0, got %v", pair.RowsA)
			break
		}
		if pair.RowsB[i] != i {
			t.Errorf("moving side should walk its own rows, got %v", pair.RowsB)
			break
		}
	}

	// Mirrored orientation.
	pair, err = Align(moving, static, compare.AlignNearestPrior)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if pair.Len() != 3 || pair.RowsB[2] != 0 || pair.RowsA[2] != 2 {
		t.Errorf("mirrored static alignment wrong: %+v", pair)
	}
}

func TestAlign_BothStatic(t *testing.T) {
	a := axisTable(t, "region", "2024-01-01")
	b := axisTable(t, "region", "2024-03-01")

	pair, err := Align(a, b, compare.AlignExact)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if pair.Len() != 1 || !pair.Dates[0].Equal(day(t, "2024-01-01")) {
		t.Errorf("two static tables compare once at a's reference date, got %+v", pair)
	}
	if pair.RowsA[0] != 0 || pair.RowsB[0] != 0 {
		t.Errorf("both sides should answer with row 0: %+v", pair)
	}
}

func TestAlign_EmptyPolicyDefaultsToExact(t *testing.T) {
	a := axisTable(t, "gender", "2024-01-01", "2024-01-08")
	b := axisTable(t, "gender", "2024-01-08", "2024-01-09")

	pair, err := Align(a, b, "")
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if pair.Len() != 1 || !pair.Dates[0].Equal(day(t, "2024-01-08")) {
		t.Errorf("empty policy should intersect exactly, got %+v", pair)
	}
}
