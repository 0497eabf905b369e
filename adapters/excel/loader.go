package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/internal"
	"gojsd/ports"
)

// DefaultDateColumn is the header of the observation-date column
const DefaultDateColumn = "Date"

// Loader reads attribute workbooks and row-level record files into datasets.
// It handles XLSX through excelize and CSV/TSV through encoding/csv.
type Loader struct {
	logger *internal.Logger
}

// NewLoader creates a dataset loader
func NewLoader(logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{logger: logger.WithComponent("loader")}
}

var _ ports.DatasetLoader = (*Loader)(nil)

// LoadWorkbook reads an attribute workbook: one sheet per attribute, a date
// column, cumulative per-category counts. Sheets that cannot be parsed are
// skipped with a warning; a workbook where no sheet parses is an error.
func (l *Loader) LoadWorkbook(ctx context.Context, path string, opts ports.WorkbookOptions) (*dataset.Dataset, error) {
	startTime := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("workbook not found: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	dateCol := opts.DateColumn
	if dateCol == "" {
		dateCol = DefaultDateColumn
	}

	var tables []*dataset.AttributeTable
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		table, err := l.parseSheet(sheet, rows, dateCol, opts)
		if err != nil {
			l.logger.Warn("sheet %q skipped: %v", sheet, err)
			continue
		}
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no sheet in %s parsed as an attribute table", path)
	}

	name := opts.Name
	if name == "" {
		name = baseName(path)
	}
	ds := dataset.NewDataset(name, tables)
	ds.DisplayName = name
	ds.Source = dataset.SourceInfo{Kind: dataset.SourceWorkbook, Path: path, FileSize: info.Size()}

	l.logger.Info("loaded workbook %s: %d attribute(s) in %.2fms",
		path, len(tables), float64(time.Since(startTime).Nanoseconds())/1e6)
	return ds, nil
}

// LoadRecords reads a row-level record file. XLSX uses the first sheet;
// CSV and TSV are read whole. Column types are inferred from the values
// unless forced through the options, and per-attribute cumulative tables are
// derived immediately so the dataset also serves single-mode comparisons.
func (l *Loader) LoadRecords(ctx context.Context, path string, opts ports.RecordOptions) (*dataset.Dataset, error) {
	startTime := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("record file not found: %s", path)
	}

	rows, err := l.readGrid(path, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("record file %s needs a header row and at least one data row", path)
	}

	dateCol := opts.DateColumn
	if dateCol == "" {
		dateCol = DefaultDateColumn
	}
	rt, err := recordsFromGrid(rows, dateCol, opts.NumericColumns)
	if err != nil {
		return nil, fmt.Errorf("parsing records from %s: %w", path, err)
	}

	tables, err := l.deriveTables(rt)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = baseName(path)
	}
	ds := dataset.NewDataset(name, tables)
	ds.DisplayName = name
	ds.Records = rt
	ds.Source = dataset.SourceInfo{Kind: dataset.SourceRecords, Path: path, FileSize: info.Size()}

	l.logger.Info("loaded records %s: %d row(s), %d column(s) in %.2fms",
		path, rt.Len(), len(rt.Columns), float64(time.Since(startTime).Nanoseconds())/1e6)
	return ds, nil
}

// readGrid returns the raw cell grid of the file. delimiter 0 infers from
// the extension: tab for .tsv, comma otherwise; .xlsx reads the first sheet.
func (l *Loader) readGrid(path string, delimiter rune) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open record workbook: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("record workbook %s has no sheets", path)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if delimiter != 0 {
		reader.Comma = delimiter
	} else if ext == ".tsv" {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	return rows, nil
}

// deriveTables builds one cumulative table per record column so record
// datasets also answer single-mode comparisons. Numeric columns are binned
// with the default equal-width spec over their own values.
func (l *Loader) deriveTables(rt *dataset.RecordTable) ([]*dataset.AttributeTable, error) {
	var tables []*dataset.AttributeTable
	for _, col := range rt.Columns {
		table, err := deriveTable(rt, col)
		if err != nil {
			l.logger.Warn("column %q not derivable: %v", col.Name, err)
			continue
		}
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no record column produced an attribute table")
	}
	return tables, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseDateCell accepts the date formats spreadsheet exports commonly carry
func parseDateCell(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	layouts := []string{
		core.DateLayout,
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"01-02-06",
		"1/2/06",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return core.Date(t), true
		}
	}
	return time.Time{}, false
}
