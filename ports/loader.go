package ports

import (
	"context"

	"gojsd/domain/dataset"
)

// DatasetLoader ingests external files into datasets
type DatasetLoader interface {
	// LoadWorkbook reads an attribute workbook where each sheet holds the
	// cumulative category counts of one attribute over time.
	LoadWorkbook(ctx context.Context, path string, opts WorkbookOptions) (*dataset.Dataset, error)

	// LoadRecords reads a delimited file of row-level records.
	LoadRecords(ctx context.Context, path string, opts RecordOptions) (*dataset.Dataset, error)
}

// WorkbookOptions control attribute workbook ingestion
type WorkbookOptions struct {
	Name          string                       // dataset name; defaults to the file base name
	DateColumn    string                       // defaults to "Date"
	CategoryRemap map[string]map[string]string // attribute -> raw header -> target category
	// EnsureCategories are zero-filled into every attribute that lacks them,
	// keeping category sets aligned across sources that omit a bucket such as
	// "Not reported".
	EnsureCategories []string
}

// RecordOptions control row-level record ingestion
type RecordOptions struct {
	Name           string   // dataset name; defaults to the file base name
	DateColumn     string   // defaults to "Date"
	Delimiter      rune     // 0 infers from the file extension
	NumericColumns []string // force these columns numeric; empty infers per column
}
