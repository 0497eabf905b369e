package dataset

import (
	"testing"
	"time"

	"gojsd/domain/core"
)

func mustTable(t *testing.T, name string, dates []string, categories []string, counts [][]float64) *AttributeTable {
	t.Helper()
	axis := make([]time.Time, len(dates))
	for i, s := range dates {
		d, err := core.ParseDate(s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		axis[i] = d
	}
	table, err := NewAttributeTable(name, axis, categories, counts)
	if err != nil {
		t.Fatalf("fixture table %q rejected: %v", name, err)
	}
	return table
}

func TestNewAttributeTable_NormalizesDates(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	dates := []time.Time{
		time.Date(2024, 1, 1, 14, 30, 0, 0, loc),
		time.Date(2024, 1, 8, 9, 0, 0, 0, loc),
	}
	table, err := NewAttributeTable("gender", dates, []string{"Female", "Male"}, [][]float64{{10, 8}, {15, 12}})
	if err != nil {
		t.Fatalf("NewAttributeTable failed: %v", err)
	}

	for i, dt := range table.Dates {
		if dt.Hour() != 0 || dt.Location() != time.UTC {
			t.Errorf("date %d not normalized to midnight UTC: %v", i, dt)
		}
	}
	if table.IsStatic() {
		t.Error("two-date table reported as static")
	}
	if core.FormatDate(table.FirstDate()) != "2024-01-01" {
		t.Errorf("unexpected first date %s", core.FormatDate(table.FirstDate()))
	}
	if core.FormatDate(table.LastDate()) != "2024-01-08" {
		t.Errorf("unexpected last date %s", core.FormatDate(table.LastDate()))
	}
}

func TestNewAttributeTable_RejectsBadShapes(t *testing.T) {
	d1, _ := core.ParseDate("2024-01-01")
	d2, _ := core.ParseDate("2024-01-08")

	if _, err := NewAttributeTable("", []time.Time{d1}, []string{"a"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := NewAttributeTable("x", nil, []string{"a"}, nil); err == nil {
		t.Error("expected error for empty date axis")
	}
	if _, err := NewAttributeTable("x", []time.Time{d1}, nil, [][]float64{{}}); err == nil {
		t.Error("expected error for empty category set")
	}
	if _, err := NewAttributeTable("x", []time.Time{d1, d2}, []string{"a"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for row/date count mismatch")
	}
	if _, err := NewAttributeTable("x", []time.Time{d1, d2}, []string{"a", "b"}, [][]float64{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged count row")
	}
}

func TestNewAttributeTable_RejectsUnsortedDates(t *testing.T) {
	d1, _ := core.ParseDate("2024-01-08")
	d2, _ := core.ParseDate("2024-01-01")
	_, err := NewAttributeTable("x", []time.Time{d1, d2}, []string{"a"}, [][]float64{{1}, {2}})
	if err == nil {
		t.Error("expected error for dates out of order")
	}

	// Same calendar day twice is also rejected: the axis must be strict.
	d3, _ := core.ParseDate("2024-01-08")
	_, err = NewAttributeTable("x", []time.Time{d1, d3}, []string{"a"}, [][]float64{{1}, {2}})
	if err == nil {
		t.Error("expected error for duplicate dates")
	}
}

func TestNewAttributeTable_RejectsDecreasingCounts(t *testing.T) {
	d1, _ := core.ParseDate("2024-01-01")
	d2, _ := core.ParseDate("2024-01-08")
	_, err := NewAttributeTable("gender", []time.Time{d1, d2}, []string{"Female"}, [][]float64{{10}, {7}})
	if err == nil {
		t.Error("expected error: cumulative counts may never decrease")
	}
	_, err = NewAttributeTable("gender", []time.Time{d1}, []string{"Female"}, [][]float64{{-1}})
	if err == nil {
		t.Error("expected error for negative count")
	}
}

func TestAttributeTable_RowLookup(t *testing.T) {
	table := mustTable(t, "region",
		[]string{"2024-01-01", "2024-01-08"},
		[]string{"North", "South"},
		[][]float64{{5, 3}, {9, 7}})

	at, _ := core.ParseDate("2024-01-08")
	row, ok := table.Row(at)
	if !ok {
		t.Fatal("expected row at 2024-01-08")
	}
	if row[0] != 9 || row[1] != 7 {
		t.Errorf("unexpected row values %v", row)
	}

	// Row hands out copies; the table itself must stay untouched.
	row[0] = 99
	if table.Counts[1][0] != 9 {
		t.Error("mutating a returned row leaked into the table")
	}

	missing, _ := core.ParseDate("2024-02-01")
	if _, ok := table.Row(missing); ok {
		t.Error("expected no row for an off-axis date")
	}
	if !table.HasDate(at) || table.HasDate(missing) {
		t.Error("HasDate disagrees with Row")
	}
}

func TestAttributeTable_WithCategories(t *testing.T) {
	table := mustTable(t, "gender",
		[]string{"2024-01-01"},
		[]string{"Female", "Male"},
		[][]float64{{10, 8}})

	widened := table.WithCategories([]string{"Male", "Female", "Other"})
	if len(widened.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(widened.Categories))
	}
	if widened.Counts[0][0] != 8 || widened.Counts[0][1] != 10 || widened.Counts[0][2] != 0 {
		t.Errorf("reorder/zero-fill wrong: %v", widened.Counts[0])
	}
	// Original untouched.
	if table.Counts[0][0] != 10 || len(table.Categories) != 2 {
		t.Error("WithCategories mutated the receiver")
	}
	if widened.CategoryIndex("Other") != 2 || widened.CategoryIndex("missing") != -1 {
		t.Error("CategoryIndex wrong after widening")
	}
}

func TestDataset_Helpers(t *testing.T) {
	gender := mustTable(t, "gender", []string{"2024-01-01"}, []string{"Female", "Male"}, [][]float64{{10, 8}})
	region := mustTable(t, "region", []string{"2024-01-01"}, []string{"North"}, [][]float64{{18}})

	ds := NewDataset("panel_a", []*AttributeTable{gender, region})
	if ds.GetDisplayName() != "panel_a" {
		t.Errorf("display name fallback broken: %s", ds.GetDisplayName())
	}
	ds.DisplayName = "Panel A"
	if ds.GetDisplayName() != "Panel A" {
		t.Errorf("display name override broken: %s", ds.GetDisplayName())
	}

	if _, ok := ds.Attribute("gender"); !ok {
		t.Error("expected gender attribute")
	}
	if _, ok := ds.Attribute("income"); ok {
		t.Error("unexpected income attribute")
	}
	names := ds.AttributeNames()
	if len(names) != 2 || names[0] != "gender" || names[1] != "region" {
		t.Errorf("unexpected attribute names %v", names)
	}

	if !ds.IsReady() {
		t.Error("dataset with tables and ready status should be ready")
	}
	if ds.HasRecords() {
		t.Error("dataset without records claims to have them")
	}
	if ds.Fingerprint.IsEmpty() {
		t.Error("expected a content fingerprint")
	}
}

func TestDataset_FingerprintTracksContent(t *testing.T) {
	build := func(count float64) *Dataset {
		d1, _ := core.ParseDate("2024-01-01")
		table, err := NewAttributeTable("gender", []time.Time{d1}, []string{"Female"}, [][]float64{{count}})
		if err != nil {
			t.Fatalf("fixture: %v", err)
		}
		return NewDataset("p", []*AttributeTable{table})
	}
	a := build(10)
	b := build(10)
	c := build(11)
	if !a.Fingerprint.Equals(b.Fingerprint) {
		t.Error("identical content must fingerprint identically")
	}
	if a.Fingerprint.Equals(c.Fingerprint) {
		t.Error("different counts must change the fingerprint")
	}
}
