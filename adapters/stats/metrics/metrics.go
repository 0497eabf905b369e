package metrics

import (
	"context"
	"math"
)

// DistanceResult represents the output of a single two-sample metric
type DistanceResult struct {
	MetricName  string  `json:"metric_name"`
	Distance    float64 `json:"distance"`
	PValue      float64 `json:"p_value"`      // NaN when the metric defines no test
	Magnitude   string  `json:"magnitude"`    // "negligible", "small", "moderate", "large"
	Description string  `json:"description"`  // Human-readable explanation
	Err         string  `json:"error,omitempty"`
}

// Failed reports whether the metric could not be computed
func (r DistanceResult) Failed() bool {
	return r.Err != ""
}

// SampleMetric defines the interface for each two-sample distance.
// Implementations must be pure: no retained state between calls, safe for
// concurrent use on independent inputs.
type SampleMetric interface {
	Name() string
	Description() string
	Distance(ctx context.Context, x, y []float64) DistanceResult
	Bounded() bool // true when the distance lives in [0, 1]
}

// MetricEngine runs the two-sample metrics over a pair of samples
type MetricEngine struct {
	metrics []SampleMetric
}

// EngineConfig tunes the stock metric set
type EngineConfig struct {
	HistogramBins int   // JSD histogram resolution (<= 0 uses the metric default)
	Permutations  int   // Cucconi permutation draws (<= 0 uses the asymptotic p-value)
	Seed          int64 // feeds permutation draws for reproducible runs
}

// NewMetricEngine creates an engine with the full metric set
func NewMetricEngine(cfg EngineConfig) *MetricEngine {
	return &MetricEngine{
		metrics: []SampleMetric{
			NewHistogramJSD(cfg.HistogramBins),
			NewKolmogorovSmirnov(),
			NewWasserstein(),
			NewCucconi(cfg.Permutations, cfg.Seed),
		},
	}
}

// CompareAll runs every metric concurrently and returns results in
// registration order
func (e *MetricEngine) CompareAll(ctx context.Context, x, y []float64) []DistanceResult {
	results := make([]DistanceResult, len(e.metrics))

	type resultWithIndex struct {
		result DistanceResult
		index  int
	}

	resultChan := make(chan resultWithIndex, len(e.metrics))

	for i, metric := range e.metrics {
		go func(metric SampleMetric, idx int) {
			resultChan <- resultWithIndex{result: metric.Distance(ctx, x, y), index: idx}
		}(metric, i)
	}

	for i := 0; i < len(e.metrics); i++ {
		res := <-resultChan
		results[res.index] = res.result
	}

	return results
}

// CompareSingle runs a specific metric by name
func (e *MetricEngine) CompareSingle(ctx context.Context, name string, x, y []float64) (DistanceResult, bool) {
	for _, metric := range e.metrics {
		if metric.Name() == name {
			return metric.Distance(ctx, x, y), true
		}
	}
	return DistanceResult{}, false
}

// MetricFor returns a registered metric by name
func (e *MetricEngine) MetricFor(name string) (SampleMetric, bool) {
	for _, metric := range e.metrics {
		if metric.Name() == name {
			return metric, true
		}
	}
	return nil, false
}

// ListMetrics returns all available metric names
func (e *MetricEngine) ListMetrics() []string {
	names := make([]string, len(e.metrics))
	for i, metric := range e.metrics {
		names[i] = metric.Name()
	}
	return names
}

// Helper functions for result interpretation

// classifyMagnitude labels a distance for display. Bounded metrics classify
// on the distance itself; unbounded ones fall back to the p-value when one
// exists.
func classifyMagnitude(distance, pValue float64, bounded bool) string {
	if bounded {
		switch {
		case distance < 0.05:
			return "negligible"
		case distance < 0.15:
			return "small"
		case distance < 0.30:
			return "moderate"
		default:
			return "large"
		}
	}
	if !math.IsNaN(pValue) {
		switch {
		case pValue > 0.10:
			return "negligible"
		case pValue > 0.05:
			return "small"
		case pValue > 0.01:
			return "moderate"
		default:
			return "large"
		}
	}
	return "unscaled"
}

// errorResult builds the uniform failure payload
func errorResult(name string, err error) DistanceResult {
	return DistanceResult{
		MetricName: name,
		Distance:   math.NaN(),
		PValue:     math.NaN(),
		Err:        err.Error(),
	}
}
