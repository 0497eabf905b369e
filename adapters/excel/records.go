package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gojsd/domain/binning"
	"gojsd/domain/dataset"
)

// Type inference thresholds: a column is numeric when at least this share of
// its non-missing values parses, unless it looks like low-cardinality integer
// codes, which compare better as categories.
const (
	numericThreshold   = 0.9
	codeUniqueRatio    = 0.1
	codeMaxCardinality = 20
)

// recordsFromGrid builds a record table from a raw cell grid. The date column
// is located by header; every other non-blank header becomes a typed column.
// Rows without a parseable date are skipped.
func recordsFromGrid(rows [][]string, dateCol string, forceNumeric []string) (*dataset.RecordTable, error) {
	header := rows[0]
	dateIdx := -1
	type rawCol struct {
		name string
		idx  int
	}
	var rawCols []rawCol
	for j, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if dateIdx < 0 && strings.EqualFold(h, dateCol) {
			dateIdx = j
			continue
		}
		rawCols = append(rawCols, rawCol{name: h, idx: j})
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("date column %q not found", dateCol)
	}
	if len(rawCols) == 0 {
		return nil, fmt.Errorf("no attribute columns besides the date column")
	}

	var dates []time.Time
	cells := make([][]string, len(rawCols))
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		date, ok := parseDateCell(cellAt(row, dateIdx))
		if !ok {
			continue
		}
		dates = append(dates, date)
		for k, rc := range rawCols {
			cells[k] = append(cells[k], strings.TrimSpace(cellAt(row, rc.idx)))
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no row carries a parseable date")
	}

	forced := make(map[string]bool, len(forceNumeric))
	for _, name := range forceNumeric {
		forced[name] = true
	}

	var columns []dataset.ColumnInfo
	numeric := make(map[string][]float64)
	categorical := make(map[string][]string)
	for k, rc := range rawCols {
		kind := inferKind(cells[k])
		if forced[rc.name] {
			kind = dataset.ColumnNumeric
		}
		switch kind {
		case dataset.ColumnNumeric:
			vals := make([]float64, len(cells[k]))
			for i, cell := range cells[k] {
				vals[i] = parseNumericCell(cell)
			}
			numeric[rc.name] = vals
		case dataset.ColumnCategorical:
			categorical[rc.name] = cells[k]
		}
		columns = append(columns, dataset.ColumnInfo{Name: rc.name, Kind: kind})
	}
	return dataset.NewRecordTable(dates, columns, numeric, categorical)
}

// inferKind classifies a column from its raw values
func inferKind(values []string) dataset.ColumnKind {
	nonMissing := 0
	parseable := 0
	integers := true
	unique := make(map[string]bool)
	for _, v := range values {
		if v == "" {
			continue
		}
		nonMissing++
		unique[v] = true
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			continue
		}
		parseable++
		if f != math.Trunc(f) {
			integers = false
		}
	}
	if nonMissing == 0 {
		return dataset.ColumnCategorical
	}
	if float64(parseable)/float64(nonMissing) < numericThreshold {
		return dataset.ColumnCategorical
	}
	// Integer codes with few distinct values act as category labels.
	uniqueRatio := float64(len(unique)) / float64(nonMissing)
	if integers && len(unique) <= codeMaxCardinality && uniqueRatio < codeUniqueRatio {
		return dataset.ColumnCategorical
	}
	return dataset.ColumnNumeric
}

func parseNumericCell(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// deriveTable builds the cumulative table of one record column. Numeric
// columns bin on the default equal-width spec over their own values.
func deriveTable(rt *dataset.RecordTable, col dataset.ColumnInfo) (*dataset.AttributeTable, error) {
	var spec *binning.BinSpec
	if col.Kind == dataset.ColumnNumeric {
		vals, _ := rt.NumericColumn(col.Name)
		var err error
		spec, err = binning.DefaultSpec(vals, binning.DefaultBinCount, binning.PolicyClamp)
		if err != nil {
			return nil, err
		}
	}
	return dataset.TableFromRecords(rt, col.Name, spec)
}
