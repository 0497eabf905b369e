package dataset

import (
	"math"
	"testing"
)

func TestMerge_SumsSharedAxis(t *testing.T) {
	a := NewDataset("site_a", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-01", "2024-01-08"},
		[]string{"Female", "Male"},
		[][]float64{{10, 8}, {20, 16}})})
	b := NewDataset("site_b", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-01", "2024-01-08"},
		[]string{"Female", "Male"},
		[][]float64{{5, 5}, {9, 11}})})

	pooled, err := Merge("All Sites", []*Dataset{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	table, ok := pooled.Attribute("gender")
	if !ok {
		t.Fatal("merged dataset lost the gender attribute")
	}
	if table.Counts[0][0] != 15 || table.Counts[0][1] != 13 {
		t.Errorf("day 1 sums wrong: %v", table.Counts[0])
	}
	if table.Counts[1][0] != 29 || table.Counts[1][1] != 27 {
		t.Errorf("day 2 sums wrong: %v", table.Counts[1])
	}
	if pooled.Name != "All Sites" || !pooled.IsReady() {
		t.Error("merged dataset not ready under the requested name")
	}
}

func TestMerge_UnionAxisNearestPrior(t *testing.T) {
	// Site B starts a week later; before that only site A contributes.
	a := NewDataset("site_a", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-01", "2024-01-15"},
		[]string{"Female"},
		[][]float64{{10}, {30}})})
	b := NewDataset("site_b", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-08"},
		[]string{"Female"},
		[][]float64{{100}})})

	pooled, err := Merge("pool", []*Dataset{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	table, _ := pooled.Attribute("gender")
	if len(table.Dates) != 3 {
		t.Fatalf("expected the 3-date union axis, got %d", len(table.Dates))
	}
	// Jan 1: A=10, B not yet started. Jan 8: A carries 10 forward, B=100.
	// Jan 15: A=30, B carries 100 forward.
	want := []float64{10, 110, 130}
	for i, v := range want {
		if table.Counts[i][0] != v {
			t.Errorf("pooled count at date %d = %g, want %g", i, table.Counts[i][0], v)
		}
	}
}

func TestMerge_UnionCategories(t *testing.T) {
	a := NewDataset("site_a", []*AttributeTable{mustTable(t, "region",
		[]string{"2024-01-01"}, []string{"North", "South"}, [][]float64{{4, 6}})})
	b := NewDataset("site_b", []*AttributeTable{mustTable(t, "region",
		[]string{"2024-01-01"}, []string{"South", "East"}, [][]float64{{2, 8}})})

	pooled, err := Merge("pool", []*Dataset{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	table, _ := pooled.Attribute("region")
	if len(table.Categories) != 3 {
		t.Fatalf("expected the 3-category union, got %v", table.Categories)
	}
	byName := make(map[string]float64)
	for j, c := range table.Categories {
		byName[c] = table.Counts[0][j]
	}
	if byName["North"] != 4 || byName["South"] != 8 || byName["East"] != 8 {
		t.Errorf("unioned counts wrong: %v", byName)
	}
}

func TestMerge_ConcatenatesRecords(t *testing.T) {
	mk := func(name string, ages []float64) *Dataset {
		dates := datesFrom(t, "2024-01-01", "2024-01-02")
		rt, err := NewRecordTable(dates,
			[]ColumnInfo{{Name: "age", Kind: ColumnNumeric}},
			map[string][]float64{"age": ages}, nil)
		if err != nil {
			t.Fatalf("fixture: %v", err)
		}
		ds := NewDataset(name, []*AttributeTable{mustTable(t, "gender",
			[]string{"2024-01-01"}, []string{"Female"}, [][]float64{{2}})})
		ds.Records = rt
		return ds
	}
	a := mk("a", []float64{30, 40})
	b := mk("b", []float64{50, 60})

	pooled, err := Merge("pool", []*Dataset{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !pooled.HasRecords() {
		t.Fatal("both inputs carry records, the pool should too")
	}
	if pooled.Records.Len() != 4 {
		t.Errorf("expected 4 pooled rows, got %d", pooled.Records.Len())
	}
	ages, _ := pooled.Records.NumericColumn("age")
	var sum float64
	for _, v := range ages {
		sum += v
	}
	if sum != 180 {
		t.Errorf("pooled ages lost values: sum %g", sum)
	}
}

func TestMerge_RecordsSkippedWhenOneSideLacksThem(t *testing.T) {
	a := NewDataset("a", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-01"}, []string{"Female"}, [][]float64{{2}})})

	dates := datesFrom(t, "2024-01-01")
	rt, err := NewRecordTable(dates,
		[]ColumnInfo{{Name: "age", Kind: ColumnNumeric}},
		map[string][]float64{"age": {30}}, nil)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	b := NewDataset("b", []*AttributeTable{mustTable(t, "gender",
		[]string{"2024-01-01"}, []string{"Female"}, [][]float64{{3}})})
	b.Records = rt

	pooled, err := Merge("pool", []*Dataset{a, b})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if pooled.HasRecords() {
		t.Error("pool must not fabricate records when an input lacks them")
	}
}

func TestMerge_ConflictingColumnKindsDropped(t *testing.T) {
	dates := datesFrom(t, "2024-01-01")
	rtNum, err := NewRecordTable(dates,
		[]ColumnInfo{{Name: "code", Kind: ColumnNumeric}, {Name: "age", Kind: ColumnNumeric}},
		map[string][]float64{"code": {7}, "age": {30}}, nil)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	rtCat, err := NewRecordTable(dates,
		[]ColumnInfo{{Name: "code", Kind: ColumnCategorical}, {Name: "age", Kind: ColumnNumeric}},
		map[string][]float64{"age": {40}},
		map[string][]string{"code": {"A7"}})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}

	mk := func(name string, rt *RecordTable) *Dataset {
		ds := NewDataset(name, []*AttributeTable{mustTable(t, "gender",
			[]string{"2024-01-01"}, []string{"Female"}, [][]float64{{1}})})
		ds.Records = rt
		return ds
	}

	pooled, err := Merge("pool", []*Dataset{mk("a", rtNum), mk("b", rtCat)})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if _, ok := pooled.Records.Column("code"); ok {
		t.Error("column with conflicting kinds should be dropped")
	}
	ages, ok := pooled.Records.NumericColumn("age")
	if !ok || len(ages) != 2 || math.IsNaN(ages[0]) || math.IsNaN(ages[1]) {
		t.Errorf("consistent column should survive intact: %v", ages)
	}
}

func TestMerge_RejectsEmptyInput(t *testing.T) {
	if _, err := Merge("pool", nil); err == nil {
		t.Error("expected error for an empty merge")
	}
}
