package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gojsd/domain/core"
)

// Merge pools several datasets into one synthetic dataset, the baseline used
// by "one versus all others" sweeps. Attribute tables sharing a name are
// summed on the union of their date axes, each table contributing its
// nearest-prior cumulative row and zeros before its first date. Row-level
// records are concatenated when every input carries them, with missing fills
// for columns an input lacks.
func Merge(name string, inputs []*Dataset) (*Dataset, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: merge requires at least one dataset", core.ErrInvalidSpec)
	}

	var tableNames []string
	grouped := make(map[string][]*AttributeTable)
	for _, in := range inputs {
		for _, at := range in.Attributes {
			if _, seen := grouped[at.Name]; !seen {
				tableNames = append(tableNames, at.Name)
			}
			grouped[at.Name] = append(grouped[at.Name], at)
		}
	}

	var merged []*AttributeTable
	for _, tn := range tableNames {
		mt, err := mergeTables(tn, grouped[tn])
		if err != nil {
			return nil, fmt.Errorf("merging attribute %q: %w", tn, err)
		}
		merged = append(merged, mt)
	}

	ds := NewDataset(name, merged)
	ds.DisplayName = name

	pooledRecords := true
	for _, in := range inputs {
		if !in.HasRecords() {
			pooledRecords = false
			break
		}
	}
	if pooledRecords {
		rt, err := mergeRecords(inputs)
		if err != nil {
			return nil, fmt.Errorf("merging records: %w", err)
		}
		ds.Records = rt
	}
	return ds, nil
}

// mergeTables sums cumulative counts across tables on the union date axis.
// Each table contributes its nearest-prior row per axis date, so the merged
// counts stay non-decreasing.
func mergeTables(name string, tables []*AttributeTable) (*AttributeTable, error) {
	if len(tables) == 1 {
		return tables[0].WithCategories(tables[0].Categories), nil
	}

	var categories []string
	seenCat := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Categories {
			if !seenCat[c] {
				seenCat[c] = true
				categories = append(categories, c)
			}
		}
	}

	var axis []time.Time
	seenDate := make(map[int64]bool)
	for _, t := range tables {
		for _, dt := range t.Dates {
			if !seenDate[dt.Unix()] {
				seenDate[dt.Unix()] = true
				axis = append(axis, dt)
			}
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })

	aligned := make([]*AttributeTable, len(tables))
	for i, t := range tables {
		aligned[i] = t.WithCategories(categories)
	}

	counts := make([][]float64, len(axis))
	cursors := make([]int, len(tables))
	for i, date := range axis {
		row := make([]float64, len(categories))
		for k, t := range aligned {
			for cursors[k] < len(t.Dates) && !t.Dates[cursors[k]].After(date) {
				cursors[k]++
			}
			prior := cursors[k] - 1
			if prior < 0 {
				continue
			}
			for j := range categories {
				row[j] += t.Counts[prior][j]
			}
		}
		counts[i] = row
	}
	return NewAttributeTable(name, axis, categories, counts)
}

// mergeRecords concatenates rows across inputs over the union of their
// columns. Columns whose kind differs between inputs are dropped entirely;
// an input missing a column contributes missing values for it.
func mergeRecords(inputs []*Dataset) (*RecordTable, error) {
	var columns []ColumnInfo
	kinds := make(map[string]ColumnKind)
	dropped := make(map[string]bool)
	for _, in := range inputs {
		for _, col := range in.Records.Columns {
			prev, seen := kinds[col.Name]
			if !seen {
				kinds[col.Name] = col.Kind
				columns = append(columns, col)
				continue
			}
			if prev != col.Kind {
				dropped[col.Name] = true
			}
		}
	}
	if len(dropped) > 0 {
		kept := columns[:0]
		for _, col := range columns {
			if !dropped[col.Name] {
				kept = append(kept, col)
			}
		}
		columns = kept
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no column is shared with a consistent kind")
	}

	total := 0
	for _, in := range inputs {
		total += in.Records.Len()
	}
	dates := make([]time.Time, 0, total)
	numeric := make(map[string][]float64)
	categorical := make(map[string][]string)
	for _, col := range columns {
		switch col.Kind {
		case ColumnNumeric:
			numeric[col.Name] = make([]float64, 0, total)
		case ColumnCategorical:
			categorical[col.Name] = make([]string, 0, total)
		}
	}

	for _, in := range inputs {
		rt := in.Records
		n := rt.Len()
		dates = append(dates, rt.Dates...)
		for _, col := range columns {
			switch col.Kind {
			case ColumnNumeric:
				if vals, ok := rt.NumericColumn(col.Name); ok {
					numeric[col.Name] = append(numeric[col.Name], vals...)
				} else {
					numeric[col.Name] = append(numeric[col.Name], nanFill(n)...)
				}
			case ColumnCategorical:
				if vals, ok := rt.CategoricalColumn(col.Name); ok {
					categorical[col.Name] = append(categorical[col.Name], vals...)
				} else {
					categorical[col.Name] = append(categorical[col.Name], make([]string, n)...)
				}
			}
		}
	}
	return NewRecordTable(dates, columns, numeric, categorical)
}

func nanFill(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
