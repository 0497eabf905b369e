package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// KolmogorovSmirnov measures the two-sample Kolmogorov–Smirnov statistic:
// the largest vertical gap between the two empirical CDFs
type KolmogorovSmirnov struct{}

// NewKolmogorovSmirnov creates the metric
func NewKolmogorovSmirnov() *KolmogorovSmirnov {
	return &KolmogorovSmirnov{}
}

// Name identifies this metric
func (k *KolmogorovSmirnov) Name() string {
	return "ks"
}

// Description explains what this metric measures
func (k *KolmogorovSmirnov) Description() string {
	return "Two-sample Kolmogorov-Smirnov statistic with asymptotic p-value"
}

// Bounded reports the [0, 1] range
func (k *KolmogorovSmirnov) Bounded() bool {
	return true
}

// Distance walks the merged order statistics and tracks the CDF gap
func (k *KolmogorovSmirnov) Distance(_ context.Context, x, y []float64) DistanceResult {
	if len(x) == 0 || len(y) == 0 {
		return errorResult(k.Name(), fmt.Errorf("both samples must be non-empty"))
	}
	sx := sortedCopy(x)
	sy := sortedCopy(y)

	n1, n2 := float64(len(sx)), float64(len(sy))
	var i, j int
	var d float64
	for i < len(sx) && j < len(sy) {
		v := math.Min(sx[i], sy[j])
		for i < len(sx) && sx[i] <= v {
			i++
		}
		for j < len(sy) && sy[j] <= v {
			j++
		}
		gap := math.Abs(float64(i)/n1 - float64(j)/n2)
		if gap > d {
			d = gap
		}
	}

	p := ksPValue(d, n1, n2)
	return DistanceResult{
		MetricName:  k.Name(),
		Distance:    d,
		PValue:      p,
		Magnitude:   classifyMagnitude(d, p, true),
		Description: fmt.Sprintf("KS statistic %.4f (p=%.4f) over samples of %d and %d", d, p, len(x), len(y)),
	}
}

// ksPValue approximates the two-sided p-value via the Kolmogorov asymptotic
// series with the small-sample correction factor
func ksPValue(d, n1, n2 float64) float64 {
	if d <= 0 {
		return 1
	}
	en := math.Sqrt(n1 * n2 / (n1 + n2))
	lambda := (en + 0.12 + 0.11/en) * d

	var sum float64
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := sign * math.Exp(-2*lambda*lambda*float64(j*j))
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	p := 2 * sum
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
