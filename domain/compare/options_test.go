package compare

import (
	"errors"
	"math"
	"testing"

	"gojsd/domain/binning"
	"gojsd/domain/core"
)

func TestWithDefaults_FillsZeroValues(t *testing.T) {
	opts := Options{}.WithDefaults()

	if opts.Alignment != AlignExact {
		t.Errorf("default alignment should be exact, got %q", opts.Alignment)
	}
	if opts.BinCount != binning.DefaultBinCount {
		t.Errorf("default bin count wrong: %d", opts.BinCount)
	}
	if opts.BinPolicy != binning.PolicyClamp {
		t.Errorf("default bin policy should clamp, got %q", opts.BinPolicy)
	}
	if opts.FAMD.Components != DefaultFAMDComponents {
		t.Errorf("default components wrong: %d", opts.FAMD.Components)
	}
	if opts.FAMD.EmbeddingBins != DefaultEmbeddingBins {
		t.Errorf("default embedding bins wrong: %d", opts.FAMD.EmbeddingBins)
	}
	if opts.FAMD.Metric != "jsd" {
		t.Errorf("default embedding metric should be jsd, got %q", opts.FAMD.Metric)
	}
}

func TestWithDefaults_KeepsExplicitValues(t *testing.T) {
	opts := Options{
		Alignment: AlignNearestPrior,
		BinCount:  5,
		FAMD:      FAMDOptions{Metric: "wasserstein", Components: 3},
	}.WithDefaults()

	if opts.Alignment != AlignNearestPrior || opts.BinCount != 5 {
		t.Errorf("explicit values were overwritten: %+v", opts)
	}
	if opts.FAMD.Metric != "wasserstein" || opts.FAMD.Components != 3 {
		t.Errorf("explicit FAMD values were overwritten: %+v", opts.FAMD)
	}
}

func TestValidate_RejectsUnknownNames(t *testing.T) {
	if err := (Options{Alignment: "interpolate"}).Validate(); err == nil {
		t.Error("unknown alignment should be rejected")
	}
	if err := (Options{BinPolicy: "wrap"}).Validate(); err == nil {
		t.Error("unknown bin policy should be rejected")
	}
	if err := (Options{FAMD: FAMDOptions{Metric: "chi2"}}).Validate(); err == nil {
		t.Error("unknown embedding metric should be rejected")
	}
	if err := (Options{Weights: map[string]float64{"age": -1}}).Validate(); !errors.Is(err, core.ErrInvalidWeights) {
		t.Errorf("negative weight should be rejected, got %v", err)
	}
	if err := (Options{Weights: map[string]float64{"age": math.NaN()}}).Validate(); err == nil {
		t.Error("NaN weight should be rejected")
	}
}

func TestValidate_AcceptsZeroValueAndDefaults(t *testing.T) {
	if err := (Options{}).Validate(); err != nil {
		t.Errorf("zero options are valid: %v", err)
	}
	if err := (Options{}.WithDefaults()).Validate(); err != nil {
		t.Errorf("defaulted options are valid: %v", err)
	}
}

func TestNormalizedWeights_EqualWhenUnset(t *testing.T) {
	w, err := (Options{}).NormalizedWeights([]string{"age", "gender", "region"})
	if err != nil {
		t.Fatalf("NormalizedWeights failed: %v", err)
	}
	for attr, got := range w {
		if math.Abs(got-1.0/3.0) > 1e-12 {
			t.Errorf("weight for %q should be 1/3, got %g", attr, got)
		}
	}
}

func TestNormalizedWeights_NormalizesConfigured(t *testing.T) {
	opts := Options{Weights: map[string]float64{"age": 3, "gender": 1}}
	w, err := opts.NormalizedWeights([]string{"age", "gender"})
	if err != nil {
		t.Fatalf("NormalizedWeights failed: %v", err)
	}
	if math.Abs(w["age"]-0.75) > 1e-12 || math.Abs(w["gender"]-0.25) > 1e-12 {
		t.Errorf("expected 0.75/0.25, got %v", w)
	}
}

func TestNormalizedWeights_UnlistedAttributeGetsZero(t *testing.T) {
	opts := Options{Weights: map[string]float64{"age": 2}}
	w, err := opts.NormalizedWeights([]string{"age", "gender"})
	if err != nil {
		t.Fatalf("NormalizedWeights failed: %v", err)
	}
	if w["age"] != 1 || w["gender"] != 0 {
		t.Errorf("configured weights should drop unlisted attributes to zero: %v", w)
	}
}

func TestNormalizedWeights_AllZeroRejected(t *testing.T) {
	// Scenario: weights are configured but none of them covers the attributes
	// actually being compared.
	opts := Options{Weights: map[string]float64{"height": 1}}
	_, err := opts.NormalizedWeights([]string{"age", "gender"})
	if !errors.Is(err, core.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}
