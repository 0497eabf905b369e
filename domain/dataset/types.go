package dataset

import (
	"fmt"
	"strings"
	"time"

	"gojsd/domain/core"
)

// DatasetStatus represents the processing state of a dataset
type DatasetStatus string

const (
	StatusProcessing DatasetStatus = "processing"
	StatusReady      DatasetStatus = "ready"
	StatusFailed     DatasetStatus = "failed"
)

// SourceKind identifies the upstream representation a dataset was built from
type SourceKind string

const (
	// SourceWorkbook is an attribute workbook: one sheet per attribute,
	// a sorted Date column, cumulative per-category counts.
	SourceWorkbook SourceKind = "workbook"
	// SourceRecords is row-level delimited data (CSV/TSV), one row per
	// subject with a date column plus typed attribute columns.
	SourceRecords SourceKind = "records"
	// SourceSynthetic marks fixtures assembled in memory.
	SourceSynthetic SourceKind = "synthetic"
)

// SourceInfo describes where a dataset came from
type SourceInfo struct {
	Kind     SourceKind `json:"kind"`
	Path     string     `json:"path,omitempty"`
	FileSize int64      `json:"file_size,omitempty"`
}

// Dataset is a named collection of attribute tables, optionally backed by
// row-level records. The comparison engine only ever reads it; all derived
// artifacts (distributions, binned columns, aligned tables) are copies.
type Dataset struct {
	ID          core.DatasetID `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`

	Attributes []*AttributeTable `json:"attributes"`
	Records    *RecordTable      `json:"records,omitempty"`

	Source      SourceInfo    `json:"source"`
	Status      DatasetStatus `json:"status"`
	Fingerprint core.Hash     `json:"fingerprint,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDataset creates a ready dataset from already-built attribute tables
func NewDataset(name string, attrs []*AttributeTable) *Dataset {
	now := time.Now()
	ds := &Dataset{
		ID:         core.DatasetID(core.NewID()),
		Name:       name,
		Attributes: attrs,
		Source:     SourceInfo{Kind: SourceSynthetic},
		Status:     StatusReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	ds.Fingerprint = ds.computeFingerprint()
	return ds
}

// GetDisplayName returns the display name with fallback to the machine name
func (d *Dataset) GetDisplayName() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Attribute looks up a table by canonical attribute name
func (d *Dataset) Attribute(name string) (*AttributeTable, bool) {
	for _, at := range d.Attributes {
		if at.Name == name {
			return at, true
		}
	}
	return nil, false
}

// AttributeNames returns the canonical attribute names in table order
func (d *Dataset) AttributeNames() []string {
	names := make([]string, len(d.Attributes))
	for i, at := range d.Attributes {
		names[i] = at.Name
	}
	return names
}

// HasRecords reports whether row-level data is available for multi-dimensional
// comparison methods
func (d *Dataset) HasRecords() bool {
	return d.Records != nil && d.Records.Len() > 0
}

// IsReady reports whether the dataset can participate in comparisons
func (d *Dataset) IsReady() bool {
	return d.Status == StatusReady && len(d.Attributes) > 0
}

func (d *Dataset) computeFingerprint() core.Hash {
	parts := make(map[string][]byte, len(d.Attributes))
	for _, at := range d.Attributes {
		parts[at.Name] = at.contentBytes()
	}
	return core.ContentFingerprint(parts)
}

// AttributeTable holds one attribute's cumulative category counts over an
// ordered date axis. Counts[i][j] is the running total for Categories[j] as
// of Dates[i]. A single-date table is legal and treated as static by the
// matcher (one distribution reused across the counterpart's dates).
type AttributeTable struct {
	Name       string      `json:"name"`
	Dates      []time.Time `json:"dates"`
	Categories []string    `json:"categories"`
	Counts     [][]float64 `json:"counts"`
}

// NewAttributeTable validates and constructs an attribute table.
// Dates must be strictly increasing; counts must be non-negative and
// non-decreasing down each category column (they are running totals).
func NewAttributeTable(name string, dates []time.Time, categories []string, counts [][]float64) (*AttributeTable, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("attribute table requires a name")
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("attribute %q: %w", name, core.ErrNoDateAxis)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("attribute %q has no categories", name)
	}
	if len(counts) != len(dates) {
		return nil, fmt.Errorf("attribute %q: %d count rows for %d dates", name, len(counts), len(dates))
	}
	norm := make([]time.Time, len(dates))
	for i, dt := range dates {
		norm[i] = core.Date(dt)
		if i > 0 && !norm[i].After(norm[i-1]) {
			return nil, fmt.Errorf("attribute %q: dates not strictly increasing at index %d", name, i)
		}
	}
	for i, row := range counts {
		if len(row) != len(categories) {
			return nil, fmt.Errorf("attribute %q: row %d has %d values for %d categories", name, i, len(row), len(categories))
		}
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("attribute %q: negative count %g at (%d,%d)", name, v, i, j)
			}
			if i > 0 && v < counts[i-1][j] {
				return nil, fmt.Errorf("attribute %q: cumulative count decreases for %q at date %s",
					name, categories[j], core.FormatDate(norm[i]))
			}
		}
	}
	return &AttributeTable{Name: name, Dates: norm, Categories: categories, Counts: counts}, nil
}

// IsStatic reports whether the table carries a single reference date
func (t *AttributeTable) IsStatic() bool {
	return len(t.Dates) == 1
}

// FirstDate returns the earliest date of the axis
func (t *AttributeTable) FirstDate() time.Time {
	return t.Dates[0]
}

// LastDate returns the latest date of the axis
func (t *AttributeTable) LastDate() time.Time {
	return t.Dates[len(t.Dates)-1]
}

// HasDate reports whether the exact date is on the axis
func (t *AttributeTable) HasDate(date time.Time) bool {
	_, ok := t.dateIndex(date)
	return ok
}

// Row returns a copy of the counts at the exact date
func (t *AttributeTable) Row(date time.Time) ([]float64, bool) {
	i, ok := t.dateIndex(date)
	if !ok {
		return nil, false
	}
	row := make([]float64, len(t.Counts[i]))
	copy(row, t.Counts[i])
	return row, true
}

// RowAt returns a copy of the counts at axis position i
func (t *AttributeTable) RowAt(i int) []float64 {
	row := make([]float64, len(t.Counts[i]))
	copy(row, t.Counts[i])
	return row
}

func (t *AttributeTable) dateIndex(date time.Time) (int, bool) {
	want := core.Date(date)
	for i, dt := range t.Dates {
		if dt.Equal(want) {
			return i, true
		}
	}
	return 0, false
}

// CategoryIndex returns the column position of a category label, or -1
func (t *AttributeTable) CategoryIndex(label string) int {
	for j, c := range t.Categories {
		if c == label {
			return j
		}
	}
	return -1
}

// WithCategories returns a new table whose columns follow the given category
// order, zero-filling categories the receiver does not track. The receiver is
// left untouched; comparison alignment must never write into caller data.
func (t *AttributeTable) WithCategories(categories []string) *AttributeTable {
	counts := make([][]float64, len(t.Dates))
	for i := range t.Dates {
		row := make([]float64, len(categories))
		for j, label := range categories {
			if k := t.CategoryIndex(label); k >= 0 {
				row[j] = t.Counts[i][k]
			}
		}
		counts[i] = row
	}
	dates := make([]time.Time, len(t.Dates))
	copy(dates, t.Dates)
	labels := make([]string, len(categories))
	copy(labels, categories)
	return &AttributeTable{Name: t.Name, Dates: dates, Categories: labels, Counts: counts}
}

// contentBytes serializes the table for fingerprinting
func (t *AttributeTable) contentBytes() []byte {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('\n')
	for _, c := range t.Categories {
		b.WriteString(c)
		b.WriteByte('\t')
	}
	b.WriteByte('\n')
	for i, dt := range t.Dates {
		b.WriteString(core.FormatDate(dt))
		for _, v := range t.Counts[i] {
			fmt.Fprintf(&b, "\t%g", v)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
