package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Wasserstein measures the first-order Wasserstein (earth mover's) distance
// between two samples: the area between their empirical CDFs. The value is
// in the units of the underlying variable, not normalized to [0, 1].
type Wasserstein struct{}

// NewWasserstein creates the metric
func NewWasserstein() *Wasserstein {
	return &Wasserstein{}
}

// Name identifies this metric
func (w *Wasserstein) Name() string {
	return "wasserstein"
}

// Description explains what this metric measures
func (w *Wasserstein) Description() string {
	return "First-order Wasserstein distance (area between empirical CDFs)"
}

// Bounded reports the unbounded range
func (w *Wasserstein) Bounded() bool {
	return false
}

// Distance integrates |F1 - F2| over the pooled support
func (w *Wasserstein) Distance(_ context.Context, x, y []float64) DistanceResult {
	if len(x) == 0 || len(y) == 0 {
		return errorResult(w.Name(), fmt.Errorf("both samples must be non-empty"))
	}
	sx := sortedCopy(x)
	sy := sortedCopy(y)

	pooled := make([]float64, 0, len(sx)+len(sy))
	pooled = append(pooled, sx...)
	pooled = append(pooled, sy...)
	sort.Float64s(pooled)

	n1, n2 := float64(len(sx)), float64(len(sy))
	var i, j int
	var dist float64
	for k := 0; k < len(pooled)-1; k++ {
		v := pooled[k]
		for i < len(sx) && sx[i] <= v {
			i++
		}
		for j < len(sy) && sy[j] <= v {
			j++
		}
		width := pooled[k+1] - v
		if width > 0 {
			dist += math.Abs(float64(i)/n1-float64(j)/n2) * width
		}
	}

	return DistanceResult{
		MetricName:  w.Name(),
		Distance:    dist,
		PValue:      math.NaN(),
		Magnitude:   classifyMagnitude(dist, math.NaN(), false),
		Description: fmt.Sprintf("Wasserstein distance %.4f over samples of %d and %d", dist, len(x), len(y)),
	}
}
