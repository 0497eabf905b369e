package excel

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gojsd/domain/dataset"
	"gojsd/domain/matching"
	"gojsd/ports"
)

// parseSheet turns one workbook sheet into an attribute table. The first
// column must be the date column; the remaining headers are category columns,
// excluding percentage columns and blank headers. Rows are sorted by date,
// duplicate dates keep the last row, and blank count cells carry the previous
// row's value forward.
func (l *Loader) parseSheet(sheet string, rows [][]string, dateCol string, opts ports.WorkbookOptions) (*dataset.AttributeTable, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("needs a header row and at least one data row")
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("needs a date column and at least one category column")
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), dateCol) {
		return nil, fmt.Errorf("first column %q is not the date column %q", strings.TrimSpace(header[0]), dateCol)
	}

	var colIdx []int
	var rawCats []string
	for j := 1; j < len(header); j++ {
		h := strings.TrimSpace(header[j])
		if h == "" || strings.Contains(h, "(%)") {
			continue
		}
		colIdx = append(colIdx, j)
		rawCats = append(rawCats, h)
	}
	if len(rawCats) == 0 {
		return nil, fmt.Errorf("no category columns after excluding blanks and percentages")
	}

	// Step 1: parse rows, gaps as NaN for the carry-forward pass after sorting.
	type parsedRow struct {
		date time.Time
		vals []float64
	}
	var parsed []parsedRow
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		date, ok := parseDateCell(cellAt(row, 0))
		if !ok {
			continue
		}
		vals := make([]float64, len(colIdx))
		for k, j := range colIdx {
			vals[k] = parseCountCell(cellAt(row, j))
		}
		parsed = append(parsed, parsedRow{date: date, vals: vals})
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("no row carries a parseable date")
	}

	// Step 2: chronological order, last row wins on duplicate dates.
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].date.Before(parsed[j].date) })
	deduped := parsed[:0]
	for _, pr := range parsed {
		if len(deduped) > 0 && deduped[len(deduped)-1].date.Equal(pr.date) {
			deduped[len(deduped)-1] = pr
			continue
		}
		deduped = append(deduped, pr)
	}

	// Step 3: carry blank cells forward down each column, zero before the
	// first reported value.
	dates := make([]time.Time, len(deduped))
	counts := make([][]float64, len(deduped))
	for i, pr := range deduped {
		dates[i] = pr.date
		row := make([]float64, len(colIdx))
		for k := range colIdx {
			v := pr.vals[k]
			if math.IsNaN(v) {
				if i > 0 {
					v = counts[i-1][k]
				} else {
					v = 0
				}
			}
			row[k] = v
		}
		counts[i] = row
	}

	cats, counts := l.applyRemap(sheet, rawCats, counts, opts)
	cats, counts = ensureCategories(cats, counts, opts.EnsureCategories)

	attrName := matching.CanonicalName(sheet, matching.DefaultStripTokens)
	if attrName == "" {
		attrName = sheet
	}
	return dataset.NewAttributeTable(attrName, dates, cats, counts)
}

// applyRemap consolidates source category columns into configured target
// categories by summing their counts. Source columns the remap does not
// mention are dropped with a warning: a configured remap defines the full
// target scheme for its attribute.
func (l *Loader) applyRemap(sheet string, cats []string, counts [][]float64, opts ports.WorkbookOptions) ([]string, [][]float64) {
	remap := lookupRemap(opts.CategoryRemap, sheet)
	if len(remap) == 0 {
		return cats, counts
	}

	var targets []string
	targetIdx := make(map[string]int)
	srcTarget := make([]int, len(cats))
	for k, c := range cats {
		t, ok := remap[c]
		if !ok {
			l.logger.Warn("sheet %q: column %q not covered by the category remap, dropped", sheet, c)
			srcTarget[k] = -1
			continue
		}
		j, seen := targetIdx[t]
		if !seen {
			j = len(targets)
			targetIdx[t] = j
			targets = append(targets, t)
		}
		srcTarget[k] = j
	}
	if len(targets) == 0 {
		return cats, counts
	}

	remapped := make([][]float64, len(counts))
	for i, row := range counts {
		out := make([]float64, len(targets))
		for k, j := range srcTarget {
			if j >= 0 {
				out[j] += row[k]
			}
		}
		remapped[i] = out
	}
	return targets, remapped
}

// lookupRemap resolves the remap for a sheet under its raw name first, then
// its canonical name
func lookupRemap(remaps map[string]map[string]string, sheet string) map[string]string {
	if len(remaps) == 0 {
		return nil
	}
	if m, ok := remaps[sheet]; ok {
		return m
	}
	canonical := matching.CanonicalName(sheet, matching.DefaultStripTokens)
	return remaps[canonical]
}

// ensureCategories zero-fills any listed category the table lacks
func ensureCategories(cats []string, counts [][]float64, ensure []string) ([]string, [][]float64) {
	for _, want := range ensure {
		found := false
		for _, c := range cats {
			if c == want {
				found = true
				break
			}
		}
		if found {
			continue
		}
		cats = append(cats, want)
		for i := range counts {
			counts[i] = append(counts[i], 0)
		}
	}
	return cats, counts
}

func cellAt(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

// parseCountCell reads a count cell, NaN marking a gap. Thousands separators
// are tolerated.
func parseCountCell(cell string) float64 {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
