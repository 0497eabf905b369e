package dataset

import (
	"fmt"
	"sort"

	"gojsd/domain/binning"
	"gojsd/domain/core"
)

// TableFromRecords derives a cumulative attribute table from row-level
// records. Categorical columns use their observed values as categories;
// numeric columns are discretized through the supplied bin spec first, with
// the spec's labels becoming the category set. Rows with a missing value in
// the column are dropped. The resulting counts are running totals over the
// record table's date axis, so single-mode and multi-mode comparisons see the
// same cumulative view of the data.
func TableFromRecords(rt *RecordTable, attr string, spec *binning.BinSpec) (*AttributeTable, error) {
	kind, ok := rt.Column(attr)
	if !ok {
		return nil, fmt.Errorf("%w: column %q", core.ErrAttributeNotFound, attr)
	}

	var labels []string
	var categories []string
	switch kind {
	case ColumnNumeric:
		if spec == nil {
			return nil, fmt.Errorf("numeric column %q requires a bin spec", attr)
		}
		values, _ := rt.NumericColumn(attr)
		binned, err := spec.Apply(values)
		if err != nil {
			return nil, fmt.Errorf("binning column %q: %w", attr, err)
		}
		labels = binned
		categories = make([]string, spec.Bins())
		copy(categories, spec.Labels)
	case ColumnCategorical:
		values, _ := rt.CategoricalColumn(attr)
		labels = values
		categories = observedCategories(values)
		if len(categories) == 0 {
			return nil, fmt.Errorf("column %q has no observed categories", attr)
		}
	default:
		return nil, fmt.Errorf("column %q has unsupported kind %q", attr, kind)
	}

	axis := rt.DateAxis()
	index := make(map[string]int, len(categories))
	for j, c := range categories {
		index[c] = j
	}

	// Per-date increments first, then a prefix sum down each category column.
	increments := make([][]float64, len(axis))
	for i := range increments {
		increments[i] = make([]float64, len(categories))
	}
	pos := make(map[int64]int, len(axis))
	for i, dt := range axis {
		pos[dt.Unix()] = i
	}
	for row, label := range labels {
		if IsMissingCategory(label) {
			continue
		}
		j, ok := index[label]
		if !ok {
			continue
		}
		increments[pos[rt.Dates[row].Unix()]][j]++
	}

	counts := make([][]float64, len(axis))
	for i := range axis {
		counts[i] = make([]float64, len(categories))
		for j := range categories {
			counts[i][j] = increments[i][j]
			if i > 0 {
				counts[i][j] += counts[i-1][j]
			}
		}
	}
	return NewAttributeTable(attr, axis, categories, counts)
}

func observedCategories(values []string) []string {
	seen := make(map[string]bool, len(values))
	var cats []string
	for _, v := range values {
		if IsMissingCategory(v) || seen[v] {
			continue
		}
		seen[v] = true
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return cats
}
