package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/ports"
)

// readerAdapter serves the read-only UI/API surface by composing the
// dataset and run repositories over one connection
type readerAdapter struct {
	datasets ports.DatasetRepository
	runs     ports.RunRepository
}

// NewReader creates a read-only adapter over stored datasets and runs
func NewReader(db *sqlx.DB) ports.ReaderPort {
	return &readerAdapter{
		datasets: NewDatasetRepository(db),
		runs:     NewRunRepository(db),
	}
}

func (r *readerAdapter) ListDatasets(ctx context.Context, filters ports.DatasetFilters) ([]ports.DatasetSummary, error) {
	var (
		stored []*dataset.Dataset
		err    error
	)
	if filters.Status != nil {
		stored, err = r.datasets.ListByStatus(ctx, *filters.Status)
	} else {
		stored, err = r.datasets.List(ctx, filters.Limit, filters.Offset)
	}
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.DatasetSummary, 0, len(stored))
	for _, ds := range stored {
		summaries = append(summaries, ports.SummarizeDataset(ds))
	}
	return summaries, nil
}

func (r *readerAdapter) GetDataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	return r.datasets.GetByID(ctx, id)
}

func (r *readerAdapter) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	return r.runs.ListRuns(ctx, filters)
}

func (r *readerAdapter) GetRun(ctx context.Context, runID core.RunID) (*compare.ComparisonResult, error) {
	return r.runs.GetRun(ctx, runID)
}
