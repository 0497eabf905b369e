package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/ports"
)

// stubLoader returns canned datasets instead of reading files
type stubLoader struct {
	workbook *dataset.Dataset
	records  *dataset.Dataset
	err      error
}

func (s *stubLoader) LoadWorkbook(_ context.Context, _ string, _ ports.WorkbookOptions) (*dataset.Dataset, error) {
	return s.workbook, s.err
}

func (s *stubLoader) LoadRecords(_ context.Context, _ string, _ ports.RecordOptions) (*dataset.Dataset, error) {
	return s.records, s.err
}

// stubDatasetRepo holds datasets by name and counts lookups
type stubDatasetRepo struct {
	byName      map[string]*dataset.Dataset
	nameLookups int
	created     int
}

func newStubDatasetRepo() *stubDatasetRepo {
	return &stubDatasetRepo{byName: make(map[string]*dataset.Dataset)}
}

func (r *stubDatasetRepo) Create(_ context.Context, ds *dataset.Dataset) error {
	r.created++
	r.byName[ds.Name] = ds
	return nil
}

func (r *stubDatasetRepo) GetByID(_ context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	for _, ds := range r.byName {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("dataset %s not found", id)
}

func (r *stubDatasetRepo) GetByName(_ context.Context, name string) (*dataset.Dataset, error) {
	r.nameLookups++
	ds, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found", name)
	}
	return ds, nil
}

func (r *stubDatasetRepo) List(_ context.Context, _, _ int) ([]*dataset.Dataset, error) {
	out := make([]*dataset.Dataset, 0, len(r.byName))
	for _, ds := range r.byName {
		out = append(out, ds)
	}
	return out, nil
}

func (r *stubDatasetRepo) Update(_ context.Context, ds *dataset.Dataset) error {
	r.byName[ds.Name] = ds
	return nil
}

func (r *stubDatasetRepo) Delete(_ context.Context, id core.DatasetID) error {
	for name, ds := range r.byName {
		if ds.ID == id {
			delete(r.byName, name)
			return nil
		}
	}
	return nil
}

func (r *stubDatasetRepo) ListByStatus(_ context.Context, _ dataset.DatasetStatus) ([]*dataset.Dataset, error) {
	return nil, nil
}

func (r *stubDatasetRepo) UpdateStatus(_ context.Context, _ core.DatasetID, _ dataset.DatasetStatus, _ string) error {
	return nil
}

func singleTableDataset(t *testing.T, name string) *dataset.Dataset {
	t.Helper()
	day, err := core.ParseDate("2024-01-01")
	if err != nil {
		t.Fatalf("fixture date: %v", err)
	}
	table, err := dataset.NewAttributeTable("gender", []time.Time{day}, []string{"Female", "Male"}, [][]float64{{3, 4}})
	if err != nil {
		t.Fatalf("fixture table: %v", err)
	}
	return dataset.NewDataset(name, []*dataset.AttributeTable{table})
}

func TestCatalogService_RegisterAndGet(t *testing.T) {
	svc := NewCatalogService(&stubLoader{}, nil, nil)
	ctx := context.Background()

	zeta := singleTableDataset(t, "zeta")
	alpha := singleTableDataset(t, "alpha")
	svc.Register(ctx, zeta)
	svc.Register(ctx, alpha)

	got, err := svc.Get(ctx, "zeta")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != zeta {
		t.Error("Get should return the registered dataset")
	}

	if svc.Len() != 2 {
		t.Errorf("expected 2 datasets, got %d", svc.Len())
	}
	names := svc.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("names should come back sorted, got %v", names)
	}
	all := svc.Datasets()
	if len(all) != 2 || all[0].Name != "alpha" || all[1].Name != "zeta" {
		t.Errorf("Datasets should follow name order, got %d entries", len(all))
	}
}

func TestCatalogService_RegisterReplacesByName(t *testing.T) {
	svc := NewCatalogService(&stubLoader{}, nil, nil)
	ctx := context.Background()

	first := singleTableDataset(t, "panel")
	second := singleTableDataset(t, "panel")
	svc.Register(ctx, first)
	svc.Register(ctx, second)

	got, err := svc.Get(ctx, "panel")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != second {
		t.Error("a later registration under the same name should win")
	}
	if svc.Len() != 1 {
		t.Errorf("replacement should not grow the catalog, got %d", svc.Len())
	}
}

func TestCatalogService_MissWithoutRepo(t *testing.T) {
	svc := NewCatalogService(&stubLoader{}, nil, nil)

	if _, err := svc.Get(context.Background(), "ghost"); err == nil {
		t.Error("an unknown dataset without a repository should be an error")
	}
}

func TestCatalogService_RepoFallback(t *testing.T) {
	// Scenario: the dataset was persisted by an earlier session; the catalog
	// misses in memory, falls back to storage and caches the hit.
	repo := newStubDatasetRepo()
	stored := singleTableDataset(t, "persisted")
	repo.byName[stored.Name] = stored

	svc := NewCatalogService(&stubLoader{}, repo, nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, "persisted")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != stored {
		t.Error("fallback should return the stored dataset")
	}

	lookupsAfterFirst := repo.nameLookups
	if _, err := svc.Get(ctx, "persisted"); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if repo.nameLookups != lookupsAfterFirst {
		t.Error("the second Get should hit the in-memory cache, not storage")
	}
}

func TestCatalogService_LoadRegistersAndPersists(t *testing.T) {
	repo := newStubDatasetRepo()
	loaded := singleTableDataset(t, "from-file")
	svc := NewCatalogService(&stubLoader{workbook: loaded}, repo, nil)
	ctx := context.Background()

	ds, err := svc.LoadWorkbook(ctx, "ignored.xlsx", ports.WorkbookOptions{})
	if err != nil {
		t.Fatalf("LoadWorkbook failed: %v", err)
	}
	if ds != loaded {
		t.Error("LoadWorkbook should hand back the loader's dataset")
	}
	if _, err := svc.Get(ctx, "from-file"); err != nil {
		t.Errorf("loaded dataset should be registered: %v", err)
	}
	if repo.created != 1 {
		t.Errorf("a new dataset should be persisted once, created %d times", repo.created)
	}

	// Loading again must not duplicate the persisted row.
	if _, err := svc.LoadWorkbook(ctx, "ignored.xlsx", ports.WorkbookOptions{}); err != nil {
		t.Fatalf("second LoadWorkbook failed: %v", err)
	}
	if repo.created != 1 {
		t.Errorf("an already-persisted dataset should be skipped, created %d times", repo.created)
	}
}

func TestCatalogService_LoaderErrorPropagates(t *testing.T) {
	svc := NewCatalogService(&stubLoader{err: fmt.Errorf("corrupt file")}, nil, nil)

	if _, err := svc.LoadRecords(context.Background(), "bad.csv", ports.RecordOptions{}); err == nil {
		t.Error("loader failures should propagate")
	}
	if svc.Len() != 0 {
		t.Error("nothing should be registered on a failed load")
	}
}
