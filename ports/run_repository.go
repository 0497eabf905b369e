package ports

import (
	"context"

	"gojsd/domain/compare"
	"gojsd/domain/core"
)

// RunRepository defines the interface for comparison run persistence
type RunRepository interface {
	SaveRun(ctx context.Context, result *compare.ComparisonResult) error
	GetRun(ctx context.Context, id core.RunID) (*compare.ComparisonResult, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]RunSummary, error)
	DeleteRun(ctx context.Context, id core.RunID) error
}

// RunFilters for querying comparison runs
type RunFilters struct {
	Mode    *compare.Mode
	Dataset string // matches either side when set
	Limit   int
	Offset  int
}

// RunSummary is the lightweight listing view of a stored run
type RunSummary struct {
	ID         core.RunID
	DatasetA   string
	DatasetB   string
	Mode       compare.Mode
	Attributes int
	Succeeded  bool
	StartedAt  core.Timestamp
	RuntimeMs  int64
}
