package dataset

import (
	"math"
	"testing"
	"time"

	"gojsd/domain/core"
)

func sampleRecords(t *testing.T) *RecordTable {
	t.Helper()
	dates := make([]time.Time, 0, 5)
	for _, s := range []string{"2024-01-03", "2024-01-01", "2024-01-03", "2024-01-02", "2024-01-01"} {
		d, err := core.ParseDate(s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		dates = append(dates, d)
	}
	columns := []ColumnInfo{
		{Name: "gender", Kind: ColumnCategorical},
		{Name: "age", Kind: ColumnNumeric},
	}
	rt, err := NewRecordTable(dates, columns,
		map[string][]float64{"age": {34, 52, math.NaN(), 41, 29}},
		map[string][]string{"gender": {"Female", "Male", "Female", "", "Male"}})
	if err != nil {
		t.Fatalf("fixture records rejected: %v", err)
	}
	return rt
}

func TestNewRecordTable_ShapeValidation(t *testing.T) {
	d1, _ := core.ParseDate("2024-01-01")

	_, err := NewRecordTable(nil, nil, nil, nil)
	if err == nil {
		t.Error("expected error for empty table")
	}

	_, err = NewRecordTable([]time.Time{d1},
		[]ColumnInfo{{Name: "age", Kind: ColumnNumeric}}, nil, nil)
	if err == nil {
		t.Error("expected error for declared but missing column")
	}

	_, err = NewRecordTable([]time.Time{d1},
		[]ColumnInfo{{Name: "age", Kind: ColumnNumeric}},
		map[string][]float64{"age": {1, 2}}, nil)
	if err == nil {
		t.Error("expected error for column length mismatch")
	}

	_, err = NewRecordTable([]time.Time{d1},
		[]ColumnInfo{{Name: "age", Kind: "interval"}},
		map[string][]float64{"age": {1}}, nil)
	if err == nil {
		t.Error("expected error for unknown column kind")
	}
}

func TestRecordTable_ColumnAccess(t *testing.T) {
	rt := sampleRecords(t)

	if rt.Len() != 5 {
		t.Errorf("expected 5 rows, got %d", rt.Len())
	}
	kind, ok := rt.Column("gender")
	if !ok || kind != ColumnCategorical {
		t.Errorf("gender column lookup wrong: %v %v", kind, ok)
	}
	if _, ok := rt.Column("income"); ok {
		t.Error("unexpected income column")
	}

	ages, ok := rt.NumericColumn("age")
	if !ok || len(ages) != 5 {
		t.Fatalf("age column lookup wrong: %v %v", ages, ok)
	}
	if !IsMissingNumeric(ages[2]) {
		t.Error("NaN cell should read as missing")
	}
	genders, ok := rt.CategoricalColumn("gender")
	if !ok || !IsMissingCategory(genders[3]) {
		t.Error("empty cell should read as missing")
	}
}

func TestRecordTable_DateAxis(t *testing.T) {
	rt := sampleRecords(t)

	axis := rt.DateAxis()
	if len(axis) != 3 {
		t.Fatalf("expected 3 unique dates, got %d", len(axis))
	}
	for i := 1; i < len(axis); i++ {
		if !axis[i].After(axis[i-1]) {
			t.Errorf("axis not sorted at %d: %v", i, axis)
		}
	}
	if core.FormatDate(axis[0]) != "2024-01-01" || core.FormatDate(axis[2]) != "2024-01-03" {
		t.Errorf("unexpected axis bounds %v", axis)
	}
}

func TestRecordTable_RowsThrough(t *testing.T) {
	rt := sampleRecords(t)

	cut, _ := core.ParseDate("2024-01-02")
	idx := rt.RowsThrough(cut)
	// Rows 1, 3 and 4 are observed on or before Jan 2.
	if len(idx) != 3 {
		t.Fatalf("expected 3 rows through Jan 2, got %v", idx)
	}
	for _, i := range idx {
		if rt.Dates[i].After(cut) {
			t.Errorf("row %d observed after the cutoff", i)
		}
	}

	early, _ := core.ParseDate("2023-12-31")
	if got := rt.RowsThrough(early); len(got) != 0 {
		t.Errorf("expected no rows before the panel starts, got %v", got)
	}

	late, _ := core.ParseDate("2024-02-01")
	if got := rt.RowsThrough(late); len(got) != rt.Len() {
		t.Errorf("expected every row through a late cutoff, got %v", got)
	}
}
