package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gojsd/domain/dataset"
	"gojsd/internal"
	"gojsd/ports"
)

// CatalogService manages the working set of datasets. Loaded datasets
// live in memory; when a repository is configured they are persisted as
// well so later sessions can reuse them without re-reading the files.
type CatalogService struct {
	loader ports.DatasetLoader
	repo   ports.DatasetRepository
	logger *internal.Logger

	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
}

// NewCatalogService creates a catalog over the given loader. The
// repository may be nil for file-only operation.
func NewCatalogService(loader ports.DatasetLoader, repo ports.DatasetRepository, logger *internal.Logger) *CatalogService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CatalogService{
		loader:   loader,
		repo:     repo,
		logger:   logger.WithComponent("catalog"),
		datasets: make(map[string]*dataset.Dataset),
	}
}

// LoadWorkbook loads a sheet-per-attribute workbook and registers it
func (s *CatalogService) LoadWorkbook(ctx context.Context, path string, opts ports.WorkbookOptions) (*dataset.Dataset, error) {
	ds, err := s.loader.LoadWorkbook(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	s.Register(ctx, ds)
	return ds, nil
}

// LoadRecords loads a row-per-observation file and registers it
func (s *CatalogService) LoadRecords(ctx context.Context, path string, opts ports.RecordOptions) (*dataset.Dataset, error) {
	ds, err := s.loader.LoadRecords(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	s.Register(ctx, ds)
	return ds, nil
}

// Register adds a dataset to the catalog, replacing any previous entry
// with the same name. Persistence failures are logged, not fatal.
func (s *CatalogService) Register(ctx context.Context, ds *dataset.Dataset) {
	s.mu.Lock()
	s.datasets[ds.Name] = ds
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if _, err := s.repo.GetByName(ctx, ds.Name); err == nil {
		s.logger.Debug("Dataset %s already persisted, skipping", ds.Name)
		return
	}
	if err := s.repo.Create(ctx, ds); err != nil {
		s.logger.Warn("Failed to persist dataset %s: %v", ds.Name, err)
	}
}

// Get returns a dataset by name, falling back to the repository when
// the catalog does not hold it in memory
func (s *CatalogService) Get(ctx context.Context, name string) (*dataset.Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[name]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	if s.repo == nil {
		return nil, fmt.Errorf("dataset %q is not loaded", name)
	}
	ds, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.datasets[ds.Name] = ds
	s.mu.Unlock()
	return ds, nil
}

// Names returns the sorted names of all in-memory datasets
func (s *CatalogService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Datasets returns all in-memory datasets sorted by name
func (s *CatalogService) Datasets() []*dataset.Dataset {
	names := s.Names()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*dataset.Dataset, 0, len(names))
	for _, name := range names {
		out = append(out, s.datasets[name])
	}
	return out
}

// Len returns the number of in-memory datasets
func (s *CatalogService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
