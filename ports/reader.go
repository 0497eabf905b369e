package ports

import (
	"context"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// ReaderPort provides read-only access to system data for UI/API
// This ensures UI cannot modify stored datasets or runs
type ReaderPort interface {
	// Dataset queries (read-only)
	ListDatasets(ctx context.Context, filters DatasetFilters) ([]DatasetSummary, error)
	GetDataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error)

	// Run queries (read-only)
	ListRuns(ctx context.Context, filters RunFilters) ([]RunSummary, error)
	GetRun(ctx context.Context, runID core.RunID) (*compare.ComparisonResult, error)
}

// DatasetFilters for querying datasets
type DatasetFilters struct {
	Status *dataset.DatasetStatus
	Limit  int
	Offset int
}

// DatasetSummary is the lightweight listing view of a stored dataset
type DatasetSummary struct {
	ID          core.DatasetID
	Name        string
	DisplayName string
	Status      dataset.DatasetStatus
	Attributes  []string
	HasRecords  bool
	FirstDate   *core.Timestamp
	LastDate    *core.Timestamp
	CreatedAt   core.Timestamp
}

// SummarizeDataset reduces a dataset to its listing view. The date span
// covers all attribute tables combined.
func SummarizeDataset(ds *dataset.Dataset) DatasetSummary {
	s := DatasetSummary{
		ID:          ds.ID,
		Name:        ds.Name,
		DisplayName: ds.GetDisplayName(),
		Status:      ds.Status,
		Attributes:  ds.AttributeNames(),
		HasRecords:  ds.HasRecords(),
		CreatedAt:   core.NewTimestamp(ds.CreatedAt),
	}
	for _, table := range ds.Attributes {
		if len(table.Dates) == 0 {
			continue
		}
		first := core.NewTimestamp(table.FirstDate())
		last := core.NewTimestamp(table.LastDate())
		if s.FirstDate == nil || first.Before(*s.FirstDate) {
			s.FirstDate = &first
		}
		if s.LastDate == nil || last.After(*s.LastDate) {
			s.LastDate = &last
		}
	}
	return s
}
