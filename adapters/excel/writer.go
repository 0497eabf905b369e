package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// WriteWorkbook writes a dataset's attribute tables as an attribute workbook:
// one sheet per attribute, a date column, one cumulative count column per
// category. The output round-trips through LoadWorkbook.
func WriteWorkbook(path string, ds *dataset.Dataset) error {
	if len(ds.Attributes) == 0 {
		return fmt.Errorf("dataset %q has no attribute tables to write", ds.Name)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range ds.Attributes {
		sheet := sheetNameFor(table.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}
		if err := writeAttributeSheet(f, sheet, table); err != nil {
			return fmt.Errorf("writing sheet %q: %w", sheet, err)
		}
	}

	return f.SaveAs(path)
}

// WriteRecords writes a dataset's row-level records as a single-sheet
// workbook that round-trips through LoadRecords
func WriteRecords(path string, ds *dataset.Dataset) error {
	rt := ds.Records
	if rt == nil {
		return fmt.Errorf("dataset %q has no row-level records to write", ds.Name)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Records"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headers := []interface{}{DefaultDateColumn}
	for _, col := range rt.Columns {
		headers = append(headers, col.Name)
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i := 0; i < rt.Len(); i++ {
		row := []interface{}{core.FormatDate(rt.Dates[i])}
		for _, col := range rt.Columns {
			switch col.Kind {
			case dataset.ColumnNumeric:
				row = append(row, rt.Numeric[col.Name][i])
			default:
				row = append(row, rt.Categorical[col.Name][i])
			}
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeAttributeSheet(f *excelize.File, sheet string, table *dataset.AttributeTable) error {
	headers := []interface{}{DefaultDateColumn}
	for _, cat := range table.Categories {
		headers = append(headers, cat)
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i, date := range table.Dates {
		row := []interface{}{core.FormatDate(date)}
		for _, v := range table.Counts[i] {
			row = append(row, v)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for c, v := range values {
		cell, _ := excelize.CoordinatesToCellName(c+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// sheetNameFor fits an attribute name into the 31-character sheet name limit
// and strips the characters the format forbids
func sheetNameFor(attr string) string {
	out := []rune(attr)
	for i, r := range out {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			out[i] = '_'
		}
	}
	name := string(out)
	if len(name) > 31 {
		name = name[:31]
	}
	if name == "" {
		name = "Attribute"
	}
	return name
}
