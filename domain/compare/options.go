package compare

import (
	"fmt"
	"math"

	"gojsd/domain/binning"
	"gojsd/domain/core"
)

// DateAlignment selects how two tables' date axes are reconciled when
// building a distance series
type DateAlignment string

const (
	// AlignExact walks the first table's dates and keeps only those also
	// present in the second table; unmatched dates are skipped, never
	// interpolated. This is the default.
	AlignExact DateAlignment = "exact"
	// AlignNearestPrior builds the union of both date axes, trimmed to start
	// at the later of the two first dates, and resolves each axis date to the
	// nearest row at or before it in each table.
	AlignNearestPrior DateAlignment = "nearest-prior"
)

// Default tunables. Every default can be overridden per call; nothing is
// read from process-wide state.
const (
	DefaultFAMDComponents = 2
	DefaultEmbeddingBins  = 20
)

// FAMDOptions tunes the factor-analysis projection and the distance taken
// in the embedding space
type FAMDOptions struct {
	// Components is the embedding dimensionality (default 2). Distances are
	// taken on the first coordinate.
	Components int `json:"components,omitempty"`
	// EmbeddingBins is the histogram resolution used when the embedding
	// distance is JSD (default 20 bins over the pooled coordinate range).
	EmbeddingBins int `json:"embedding_bins,omitempty"`
	// Metric names the two-sample distance applied in the embedding space:
	// "jsd" (default), "ks", "wasserstein" or "cucconi".
	Metric string `json:"metric,omitempty"`
	// Scale names the numeric rescaling applied before projection:
	// "standard" (default), "minmax", "maxabs", "robust" or "none".
	Scale string `json:"scale,omitempty"`
	// Seed feeds the permutation draws of rank-based metrics.
	Seed int64 `json:"seed,omitempty"`
}

// EmbeddingMetrics lists the accepted FAMDOptions.Metric names
var EmbeddingMetrics = []string{"jsd", "ks", "wasserstein", "cucconi"}

// Options is the explicit per-call configuration surface of the engine.
// Zero values select documented defaults; the engine holds no global
// configuration.
type Options struct {
	// StripTokens are removed from attribute names before matching.
	// Nil keeps the matcher default (the cumulative-sum marker).
	StripTokens []string `json:"strip_tokens,omitempty"`

	// Alignment is the date-alignment policy ("" = AlignExact).
	Alignment DateAlignment `json:"alignment,omitempty"`

	// BinCount sizes default equal-width bin generation for numeric columns
	// (<= 0 = binning.DefaultBinCount).
	BinCount int `json:"bin_count,omitempty"`
	// BinPolicy is the out-of-range policy ("" = clamp).
	BinPolicy binning.OutOfRangePolicy `json:"bin_policy,omitempty"`
	// BinSpecs overrides edges per canonical attribute name.
	BinSpecs map[string]*binning.BinSpec `json:"-"`

	// Weights drives the aggregate method's weighted mean, keyed by canonical
	// attribute name. Nil or empty means equal weights. Weights are
	// normalized to sum to 1 before use.
	Weights map[string]float64 `json:"weights,omitempty"`

	// FAMD tunes the factor-analysis method.
	FAMD FAMDOptions `json:"famd,omitempty"`
}

// WithDefaults returns a copy with every zero value replaced by its
// documented default
func (o Options) WithDefaults() Options {
	if o.Alignment == "" {
		o.Alignment = AlignExact
	}
	if o.BinCount <= 0 {
		o.BinCount = binning.DefaultBinCount
	}
	if o.BinPolicy == "" {
		o.BinPolicy = binning.PolicyClamp
	}
	if o.FAMD.Components <= 0 {
		o.FAMD.Components = DefaultFAMDComponents
	}
	if o.FAMD.EmbeddingBins <= 0 {
		o.FAMD.EmbeddingBins = DefaultEmbeddingBins
	}
	if o.FAMD.Metric == "" {
		o.FAMD.Metric = "jsd"
	}
	return o
}

// Validate rejects option combinations the engine cannot honor
func (o Options) Validate() error {
	switch o.Alignment {
	case "", AlignExact, AlignNearestPrior:
	default:
		return fmt.Errorf("unknown date alignment policy %q", o.Alignment)
	}
	switch o.BinPolicy {
	case "", binning.PolicyClamp, binning.PolicyStrict:
	default:
		return fmt.Errorf("unknown out-of-range policy %q", o.BinPolicy)
	}
	if o.FAMD.Metric != "" {
		known := false
		for _, m := range EmbeddingMetrics {
			if o.FAMD.Metric == m {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown embedding metric %q", o.FAMD.Metric)
		}
	}
	for attr, w := range o.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %g for %q", core.ErrInvalidWeights, w, attr)
		}
	}
	return nil
}

// NormalizedWeights resolves the aggregate weights for an ordered attribute
// list: equal weights when none are configured, otherwise the configured
// weights normalized to sum to 1. Attributes without a configured weight
// get zero; an all-zero assignment is rejected.
func (o Options) NormalizedWeights(attributes []string) (map[string]float64, error) {
	out := make(map[string]float64, len(attributes))
	if len(o.Weights) == 0 {
		if len(attributes) == 0 {
			return out, nil
		}
		w := 1.0 / float64(len(attributes))
		for _, a := range attributes {
			out[a] = w
		}
		return out, nil
	}
	var sum float64
	for _, a := range attributes {
		w := o.Weights[a]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %g for %q", core.ErrInvalidWeights, w, a)
		}
		out[a] = w
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights over %v sum to zero", core.ErrInvalidWeights, attributes)
	}
	for a := range out {
		out[a] /= sum
	}
	return out, nil
}
