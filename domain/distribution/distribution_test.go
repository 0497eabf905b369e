package distribution

import (
	"errors"
	"math"
	"testing"
	"time"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

func snapshotTable(t *testing.T) *dataset.AttributeTable {
	t.Helper()
	d1, _ := core.ParseDate("2024-01-01")
	d2, _ := core.ParseDate("2024-01-08")
	table, err := dataset.NewAttributeTable("gender", []time.Time{d1, d2},
		[]string{"Female", "Male"}, [][]float64{{30, 70}, {45, 80}})
	if err != nil {
		t.Fatalf("table setup failed: %v", err)
	}
	return table
}

func TestFromCounts_Normalizes(t *testing.T) {
	d, err := FromCounts([]string{"Female", "Male"}, []float64{30, 70})
	if err != nil {
		t.Fatalf("FromCounts failed: %v", err)
	}
	if math.Abs(d.Probs[0]-0.3) > 1e-12 || math.Abs(d.Probs[1]-0.7) > 1e-12 {
		t.Errorf("expected [0.3, 0.7], got %v", d.Probs)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("normalized distribution should validate: %v", err)
	}
}

func TestFromCounts_AllZero(t *testing.T) {
	// Scenario: a date before any participant enrolled. Counts exist but
	// cannot be turned into probabilities.
	_, err := FromCounts([]string{"a", "b"}, []float64{0, 0})
	if !errors.Is(err, core.ErrEmptyDistribution) {
		t.Errorf("expected ErrEmptyDistribution, got %v", err)
	}
}

func TestFromCounts_RejectsBadInput(t *testing.T) {
	if _, err := FromCounts(nil, nil); err == nil {
		t.Error("expected rejection of empty categories")
	}
	if _, err := FromCounts([]string{"a", "b"}, []float64{1}); err == nil {
		t.Error("expected rejection of shape mismatch")
	}
	if _, err := FromCounts([]string{"a"}, []float64{-1}); err == nil {
		t.Error("expected rejection of a negative count")
	}
	if _, err := FromCounts([]string{"a"}, []float64{math.NaN()}); err == nil {
		t.Error("expected rejection of a NaN count")
	}
}

func TestFromCounts_CopiesCategories(t *testing.T) {
	cats := []string{"a", "b"}
	d, err := FromCounts(cats, []float64{1, 1})
	if err != nil {
		t.Fatalf("FromCounts failed: %v", err)
	}
	cats[0] = "mutated"
	if d.Categories[0] != "a" {
		t.Error("distribution should not alias the caller's category slice")
	}
}

func TestBuild_AtAxisDate(t *testing.T) {
	table := snapshotTable(t)
	d2, _ := core.ParseDate("2024-01-08")
	d, err := Build(table, d2)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if math.Abs(d.Prob("Female")-45.0/125.0) > 1e-12 {
		t.Errorf("Female share wrong: %g", d.Prob("Female"))
	}
}

func TestBuild_MissingDate(t *testing.T) {
	table := snapshotTable(t)
	offAxis, _ := core.ParseDate("2024-01-05")
	_, err := Build(table, offAxis)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("dates off the axis must not resolve here, got %v", err)
	}
}

func TestBuildAt_Positions(t *testing.T) {
	table := snapshotTable(t)
	d, err := BuildAt(table, 0)
	if err != nil {
		t.Fatalf("BuildAt(0) failed: %v", err)
	}
	if math.Abs(d.Prob("Male")-0.7) > 1e-12 {
		t.Errorf("Male share wrong at position 0: %g", d.Prob("Male"))
	}
	if _, err := BuildAt(table, 2); err == nil {
		t.Error("expected out-of-range rejection")
	}
	if _, err := BuildAt(table, -1); err == nil {
		t.Error("expected negative-position rejection")
	}
}

func TestProb_UntrackedCategory(t *testing.T) {
	d, err := FromCounts([]string{"a", "b"}, []float64{1, 3})
	if err != nil {
		t.Fatalf("FromCounts failed: %v", err)
	}
	if p := d.Prob("nope"); p != 0 {
		t.Errorf("untracked category should have probability 0, got %g", p)
	}
}

func TestVector_ReturnsCopy(t *testing.T) {
	d, err := FromCounts([]string{"a", "b"}, []float64{1, 3})
	if err != nil {
		t.Fatalf("FromCounts failed: %v", err)
	}
	v := d.Vector()
	v[0] = 99
	if d.Probs[0] != 0.25 {
		t.Error("Vector must not expose internal storage")
	}
}

func TestSharesCategories(t *testing.T) {
	a, _ := FromCounts([]string{"x", "y"}, []float64{1, 1})
	b, _ := FromCounts([]string{"x", "y"}, []float64{9, 1})
	c, _ := FromCounts([]string{"y", "x"}, []float64{1, 1})
	d, _ := FromCounts([]string{"x", "y", "z"}, []float64{1, 1, 1})

	if !a.SharesCategories(b) {
		t.Error("identical ordered key sets should match")
	}
	if a.SharesCategories(c) {
		t.Error("order matters: reordered keys are not the same key set")
	}
	if a.SharesCategories(d) {
		t.Error("differing lengths should not match")
	}
}

func TestValidate_CatchesDrift(t *testing.T) {
	bad := &Distribution{Categories: []string{"a", "b"}, Probs: []float64{0.6, 0.6}}
	if err := bad.Validate(); err == nil {
		t.Error("sum 1.2 should fail validation")
	}
	negative := &Distribution{Categories: []string{"a"}, Probs: []float64{-0.1}}
	if err := negative.Validate(); err == nil {
		t.Error("negative probability should fail validation")
	}
	ragged := &Distribution{Categories: []string{"a", "b"}, Probs: []float64{1}}
	if err := ragged.Validate(); err == nil {
		t.Error("shape mismatch should fail validation")
	}
}
