package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/ports"
)

// TestKit provides in-memory adapters and synthetic fixtures
type TestKit struct {
	datasets *InMemoryDatasetRepository
	runs     *InMemoryRunRepository
}

// NewTestKit creates a new test kit instance
func NewTestKit() (*TestKit, error) {
	return &TestKit{
		datasets: NewInMemoryDatasetRepository(),
		runs:     NewInMemoryRunRepository(),
	}, nil
}

// DatasetRepository returns the shared in-memory dataset repository
func (t *TestKit) DatasetRepository() ports.DatasetRepository {
	return t.datasets
}

// RunRepository returns the shared in-memory run repository
func (t *TestKit) RunRepository() ports.RunRepository {
	return t.runs
}

// Reader returns a read-only view over the shared storage
func (t *TestKit) Reader() ports.ReaderPort {
	return &inMemoryReader{datasets: t.datasets, runs: t.runs}
}

// GenerateDataset generates a synthetic panel dataset with the default
// demographic mix and the given seed
func (t *TestKit) GenerateDataset(name string, seed int64) (*dataset.Dataset, error) {
	cfg := DefaultPanelConfig()
	cfg.Seed = seed
	return NewPanelGenerator(cfg).GenerateDataset(name)
}

// GenerateSkewedDataset generates a panel whose category weight for the
// given attribute/category pair is scaled by factor, for producing pairs
// of datasets with a known divergence
func (t *TestKit) GenerateSkewedDataset(name string, seed int64, attribute, category string, factor float64) (*dataset.Dataset, error) {
	cfg := DefaultPanelConfig().Skewed(attribute, category, factor)
	cfg.Seed = seed
	return NewPanelGenerator(cfg).GenerateDataset(name)
}

// InMemoryDatasetRepository implements DatasetRepository with in-memory storage
type InMemoryDatasetRepository struct {
	datasets map[core.DatasetID]*dataset.Dataset
	mu       sync.RWMutex
}

// NewInMemoryDatasetRepository creates an empty in-memory dataset repository
func NewInMemoryDatasetRepository() *InMemoryDatasetRepository {
	return &InMemoryDatasetRepository{
		datasets: make(map[core.DatasetID]*dataset.Dataset),
	}
}

func (r *InMemoryDatasetRepository) Create(ctx context.Context, ds *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.datasets {
		if existing.Name == ds.Name {
			return fmt.Errorf("dataset name %q already exists", ds.Name)
		}
	}
	r.datasets[ds.ID] = ds
	return nil
}

func (r *InMemoryDatasetRepository) GetByID(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return ds, nil
}

func (r *InMemoryDatasetRepository) GetByName(ctx context.Context, name string) (*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ds := range r.datasets {
		if ds.Name == name {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, name)
}

func (r *InMemoryDatasetRepository) List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error) {
	r.mu.RLock()
	all := make([]*dataset.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		all = append(all, ds)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (r *InMemoryDatasetRepository) Update(ctx context.Context, ds *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[ds.ID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, ds.ID)
	}
	r.datasets[ds.ID] = ds
	return nil
}

func (r *InMemoryDatasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	delete(r.datasets, id)
	return nil
}

func (r *InMemoryDatasetRepository) ListByStatus(ctx context.Context, status dataset.DatasetStatus) ([]*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*dataset.Dataset
	for _, ds := range r.datasets {
		if ds.Status == status {
			out = append(out, ds)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryDatasetRepository) UpdateStatus(ctx context.Context, id core.DatasetID, status dataset.DatasetStatus, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, ok := r.datasets[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	ds.Status = status
	return nil
}

// InMemoryRunRepository implements RunRepository with in-memory storage
type InMemoryRunRepository struct {
	runs map[core.RunID]*compare.ComparisonResult
	mu   sync.RWMutex
}

// NewInMemoryRunRepository creates an empty in-memory run repository
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs: make(map[core.RunID]*compare.ComparisonResult),
	}
}

func (r *InMemoryRunRepository) SaveRun(ctx context.Context, result *compare.ComparisonResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[result.RunID] = result
	return nil
}

func (r *InMemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*compare.ComparisonResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return result, nil
}

func (r *InMemoryRunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	r.mu.RLock()
	all := make([]*compare.ComparisonResult, 0, len(r.runs))
	for _, result := range r.runs {
		all = append(all, result)
	}
	r.mu.RUnlock()

	var filtered []*compare.ComparisonResult
	for _, result := range all {
		if filters.Mode != nil && result.Mode != *filters.Mode {
			continue
		}
		if filters.Dataset != "" && result.DatasetAName != filters.Dataset && result.DatasetBName != filters.Dataset {
			continue
		}
		filtered = append(filtered, result)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].StartedAt.After(filtered[j].StartedAt) })

	page := paginate(filtered, filters.Limit, filters.Offset)
	summaries := make([]ports.RunSummary, 0, len(page))
	for _, result := range page {
		summaries = append(summaries, ports.RunSummary{
			ID:         result.RunID,
			DatasetA:   result.DatasetAName,
			DatasetB:   result.DatasetBName,
			Mode:       result.Mode,
			Attributes: len(result.Entries),
			Succeeded:  result.Succeeded(),
			StartedAt:  core.NewTimestamp(result.StartedAt),
			RuntimeMs:  result.RuntimeMs,
		})
	}
	return summaries, nil
}

func (r *InMemoryRunRepository) DeleteRun(ctx context.Context, id core.RunID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	delete(r.runs, id)
	return nil
}

// inMemoryReader serves the read-only port over the shared storage
type inMemoryReader struct {
	datasets *InMemoryDatasetRepository
	runs     *InMemoryRunRepository
}

func (r *inMemoryReader) ListDatasets(ctx context.Context, filters ports.DatasetFilters) ([]ports.DatasetSummary, error) {
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

func (r *inMemoryReader) GetDataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	return r.datasets.GetByID(ctx, id)
}

func (r *inMemoryReader) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	return r.runs.ListRuns(ctx, filters)
}

func (r *inMemoryReader) GetRun(ctx context.Context, runID core.RunID) (*compare.ComparisonResult, error) {
	return r.runs.GetRun(ctx, runID)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
