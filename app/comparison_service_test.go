package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/internal/testkit"
	"gojsd/ports"

	"github.com/stretchr/testify/assert"
)

// In-memory run repository for testing
type memoryRunRepo struct {
	runs map[core.RunID]*compare.ComparisonResult
}

func newMemoryRunRepo() *memoryRunRepo {
	return &memoryRunRepo{runs: make(map[core.RunID]*compare.ComparisonResult)}
}

func (m *memoryRunRepo) SaveRun(_ context.Context, result *compare.ComparisonResult) error {
	m.runs[result.RunID] = result
	return nil
}

func (m *memoryRunRepo) GetRun(_ context.Context, id core.RunID) (*compare.ComparisonResult, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, nil
}

func (m *memoryRunRepo) ListRuns(_ context.Context, _ ports.RunFilters) ([]ports.RunSummary, error) {
	return nil, nil
}

func (m *memoryRunRepo) DeleteRun(_ context.Context, id core.RunID) error {
	delete(m.runs, id)
	return nil
}

// generatePanels builds two synthetic panels with a deliberate gender skew
// on the second one
func generatePanels(t *testing.T) (*dataset.Dataset, *dataset.Dataset) {
	t.Helper()
	base := testkit.DefaultPanelConfig()
	base.ParticipantCount = 200
	base.Days = 30

	cfgA := base
	cfgA.Seed = 42
	a, err := testkit.NewPanelGenerator(cfgA).GenerateDataset("panel-a")
	if err != nil {
		t.Fatalf("generating panel a: %v", err)
	}

	cfgB := base.Skewed("gender", "Female", 1.4)
	cfgB.Seed = 43
	b, err := testkit.NewPanelGenerator(cfgB).GenerateDataset("panel-b")
	if err != nil {
		t.Fatalf("generating panel b: %v", err)
	}
	return a, b
}

func TestComparisonService_CompareSingle(t *testing.T) {
	a, b := generatePanels(t)
	repo := newMemoryRunRepo()
	svc := NewComparisonService(repo, nil)

	result, err := svc.Compare(context.Background(), CompareRequest{DatasetA: a, DatasetB: b})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, compare.ModeSingle, result.Mode, "empty mode should default to single")
	assert.True(t, result.Succeeded())
	assert.Empty(t, result.Errors)

	// The panels share four attributes; entries follow sorted canonical order.
	wantAttrs := []string{"age", "age_group", "gender", "region"}
	gotAttrs := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		gotAttrs = append(gotAttrs, entry.Attribute)
		assert.NotNil(t, entry.Series, "single mode should fill the series field")
		assert.Greater(t, entry.Series.Len(), 0, "series for %s should have points", entry.Attribute)
		for _, pt := range entry.Series.Points {
			assert.GreaterOrEqual(t, pt.Value, 0.0)
			assert.LessOrEqual(t, pt.Value, 1.0)
		}
	}
	assert.Equal(t, wantAttrs, gotAttrs)

	// The gender skew should register as a nonzero final distance.
	for _, entry := range result.Entries {
		if entry.Attribute == "gender" {
			last := entry.Series.Points[entry.Series.Len()-1]
			assert.Greater(t, last.Value, 0.0, "skewed gender split should show distance")
		}
	}

	// The run was persisted and is retrievable by ID.
	stored, err := repo.GetRun(context.Background(), result.RunID)
	assert.NoError(t, err)
	assert.Equal(t, result.RunID, stored.RunID)
}

func TestComparisonService_CompareMultiAggregate(t *testing.T) {
	a, b := generatePanels(t)
	svc := NewComparisonService(newMemoryRunRepo(), nil)

	result, err := svc.Compare(context.Background(), CompareRequest{
		DatasetA: a,
		DatasetB: b,
		Mode:     compare.ModeMulti,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, 1, "multi mode produces one combined entry")

	entry := result.Entries[0]
	assert.Equal(t, string(compare.MethodAggregate), entry.Attribute, "empty method should default to aggregate")
	assert.NotNil(t, entry.Multi)
	assert.Equal(t, compare.MethodAggregate, entry.Multi.Method)
	assert.Len(t, entry.Multi.Attributes, 4, "all shared attributes should survive")
	assert.Greater(t, entry.Multi.Series.Len(), 0)
	for _, pt := range entry.Multi.Series.Points {
		assert.GreaterOrEqual(t, pt.Value, 0.0)
		assert.LessOrEqual(t, pt.Value, 1.0)
	}
}

func TestComparisonService_CompareMultiFAMD(t *testing.T) {
	a, b := generatePanels(t)
	svc := NewComparisonService(newMemoryRunRepo(), nil)

	result, err := svc.Compare(context.Background(), CompareRequest{
		DatasetA: a,
		DatasetB: b,
		Mode:     compare.ModeMulti,
		Method:   compare.MethodFAMD,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Entries, 1)

	entry := result.Entries[0]
	assert.Equal(t, "famd", entry.Attribute)
	assert.NotNil(t, entry.Multi)
	assert.Equal(t, compare.MethodFAMD, entry.Multi.Method)
	assert.Equal(t, "jsd", entry.Multi.Series.Metric, "default embedding metric is jsd")
	assert.Greater(t, entry.Multi.Series.Len(), 0)
	for _, pt := range entry.Multi.Series.Points {
		assert.GreaterOrEqual(t, pt.Value, 0.0)
		assert.LessOrEqual(t, pt.Value, 1.0)
	}
}

func TestComparisonService_NoComparableData(t *testing.T) {
	// Two datasets with disjoint attributes: not an error, just nothing to say.
	day, _ := core.ParseDate("2024-01-01")
	genderOnly, err := dataset.NewAttributeTable("gender", []time.Time{day}, []string{"Female"}, [][]float64{{3}})
	assert.NoError(t, err)
	regionOnly, err := dataset.NewAttributeTable("region", []time.Time{day}, []string{"North"}, [][]float64{{5}})
	assert.NoError(t, err)

	a := dataset.NewDataset("a", []*dataset.AttributeTable{genderOnly})
	b := dataset.NewDataset("b", []*dataset.AttributeTable{regionOnly})

	svc := NewComparisonService(nil, nil)
	result, err := svc.Compare(context.Background(), CompareRequest{DatasetA: a, DatasetB: b})

	assert.NoError(t, err)
	assert.True(t, result.NoComparableData())
	assert.False(t, result.Succeeded())
}

func TestComparisonService_RejectsBadRequests(t *testing.T) {
	a, b := generatePanels(t)
	svc := NewComparisonService(nil, nil)

	_, err := svc.Compare(context.Background(), CompareRequest{DatasetA: nil, DatasetB: b})
	assert.Error(t, err, "nil dataset should be rejected")

	_, err = svc.Compare(context.Background(), CompareRequest{
		DatasetA: a,
		DatasetB: b,
		Options:  compare.Options{Alignment: "interpolate"},
	})
	assert.Error(t, err, "invalid options should be rejected")

	_, err = svc.Compare(context.Background(), CompareRequest{DatasetA: a, DatasetB: b, Mode: "pairwise"})
	assert.Error(t, err, "unknown mode should be rejected")
}
