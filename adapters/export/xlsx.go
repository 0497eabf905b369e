package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gojsd/domain/compare"
	"gojsd/domain/core"
)

// BuildResultXLSX builds one workbook per comparison result: a summary sheet
// plus one sheet per entry holding its (date, distance) series.
func BuildResultXLSX(r *compare.ComparisonResult) (*excelize.File, error) {
	f := excelize.NewFile()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, summary, r); err != nil {
		return nil, err
	}

	for _, entry := range r.Entries {
		series := entrySeries(entry)
		if series == nil {
			continue
		}
		sheet := sheetName(entry.Attribute)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		if err := writeSeriesSheet(f, sheet, series); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteResultXLSX builds the workbook and saves it to disk
func WriteResultXLSX(path string, r *compare.ComparisonResult) error {
	f, err := BuildResultXLSX(r)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, r *compare.ComparisonResult) error {
	meta := [][]interface{}{
		{"Run", string(r.RunID)},
		{"Dataset A", r.DatasetAName},
		{"Dataset B", r.DatasetBName},
		{"Mode", string(r.Mode)},
		{"Started", r.StartedAt.Format("2006-01-02 15:04:05")},
		{"Runtime (ms)", r.RuntimeMs},
	}
	row := 1
	for _, pair := range meta {
		for c, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	row++
	headers := []string{"Attribute", "Metric", "Points", "Mean", "Final"}
	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, row)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for _, entry := range r.Entries {
		series := entrySeries(entry)
		if series == nil {
			continue
		}
		row++
		stats := summarize(series)
		vals := []interface{}{entry.Attribute, series.Metric, series.Len(), stats.Mean, stats.Final}
		for c, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSeriesSheet(f *excelize.File, sheet string, s *compare.DistanceSeries) error {
	headers := []string{"Date", "Distance"}
	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, p := range s.Points {
		rowIdx := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(sheet, cell, core.FormatDate(p.Date)); err != nil {
			return err
		}
		cell, _ = excelize.CoordinatesToCellName(2, rowIdx)
		if err := f.SetCellValue(sheet, cell, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// sheetName fits an attribute name into the 31-character sheet name limit and
// strips the characters the format forbids
func sheetName(attr string) string {
	replacer := []rune(attr)
	for i, r := range replacer {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			replacer[i] = '_'
		}
	}
	name := string(replacer)
	if len(name) > 31 {
		name = name[:31]
	}
	if name == "" {
		name = "Series"
	}
	return name
}
