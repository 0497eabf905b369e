package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gojsd/domain/core"
)

// ColumnKind classifies a record column
type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnCategorical ColumnKind = "categorical"
)

// ColumnInfo describes one record column in source order
type ColumnInfo struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// RecordTable holds row-level data in columnar form: one observation date per
// row plus named numeric and categorical columns of equal length. Missing
// values are NaN for numeric columns and the empty string for categorical
// ones; consumers that cannot tolerate gaps drop those rows.
type RecordTable struct {
	Columns     []ColumnInfo         `json:"columns"`
	Dates       []time.Time          `json:"dates"`
	Numeric     map[string][]float64 `json:"numeric,omitempty"`
	Categorical map[string][]string  `json:"categorical,omitempty"`
}

// NewRecordTable validates column shapes against the date axis
func NewRecordTable(dates []time.Time, columns []ColumnInfo, numeric map[string][]float64, categorical map[string][]string) (*RecordTable, error) {
	n := len(dates)
	if n == 0 {
		return nil, fmt.Errorf("record table requires at least one row")
	}
	norm := make([]time.Time, n)
	for i, dt := range dates {
		norm[i] = core.Date(dt)
	}
	for _, col := range columns {
		switch col.Kind {
		case ColumnNumeric:
			vals, ok := numeric[col.Name]
			if !ok {
				return nil, fmt.Errorf("numeric column %q declared but missing", col.Name)
			}
			if len(vals) != n {
				return nil, fmt.Errorf("numeric column %q has %d values for %d rows", col.Name, len(vals), n)
			}
		case ColumnCategorical:
			vals, ok := categorical[col.Name]
			if !ok {
				return nil, fmt.Errorf("categorical column %q declared but missing", col.Name)
			}
			if len(vals) != n {
				return nil, fmt.Errorf("categorical column %q has %d values for %d rows", col.Name, len(vals), n)
			}
		default:
			return nil, fmt.Errorf("column %q has unknown kind %q", col.Name, col.Kind)
		}
	}
	return &RecordTable{Columns: columns, Dates: norm, Numeric: numeric, Categorical: categorical}, nil
}

// Len returns the number of rows
func (rt *RecordTable) Len() int {
	return len(rt.Dates)
}

// Column reports the kind of a named column
func (rt *RecordTable) Column(name string) (ColumnKind, bool) {
	for _, col := range rt.Columns {
		if col.Name == name {
			return col.Kind, true
		}
	}
	return "", false
}

// NumericColumn returns the values of a numeric column
func (rt *RecordTable) NumericColumn(name string) ([]float64, bool) {
	vals, ok := rt.Numeric[name]
	return vals, ok
}

// CategoricalColumn returns the values of a categorical column
func (rt *RecordTable) CategoricalColumn(name string) ([]string, bool) {
	vals, ok := rt.Categorical[name]
	return vals, ok
}

// DateAxis returns the sorted unique observation dates of the table
func (rt *RecordTable) DateAxis() []time.Time {
	seen := make(map[time.Time]bool, len(rt.Dates))
	var axis []time.Time
	for _, dt := range rt.Dates {
		if !seen[dt] {
			seen[dt] = true
			axis = append(axis, dt)
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })
	return axis
}

// RowsThrough returns the indices of rows observed at or before the date
func (rt *RecordTable) RowsThrough(date time.Time) []int {
	cut := core.Date(date)
	var idx []int
	for i, dt := range rt.Dates {
		if !dt.After(cut) {
			idx = append(idx, i)
		}
	}
	return idx
}

// IsMissingNumeric reports whether a numeric cell is a gap
func IsMissingNumeric(v float64) bool {
	return math.IsNaN(v)
}

// IsMissingCategory reports whether a categorical cell is a gap
func IsMissingCategory(s string) bool {
	return s == ""
}
