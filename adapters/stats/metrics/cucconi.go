package metrics

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Cucconi measures the Cucconi rank statistic, a joint location-scale
// two-sample test. The statistic itself is unbounded; the p-value comes from
// seeded permutation draws when configured and the asymptotic exp(-C) form
// otherwise.
type Cucconi struct {
	permutations int
	seed         int64
}

// NewCucconi creates the metric. permutations <= 0 selects the asymptotic
// p-value; the seed makes permutation runs reproducible.
func NewCucconi(permutations int, seed int64) *Cucconi {
	return &Cucconi{permutations: permutations, seed: seed}
}

// Name identifies this metric
func (c *Cucconi) Name() string {
	return "cucconi"
}

// Description explains what this metric measures
func (c *Cucconi) Description() string {
	return "Cucconi location-scale rank statistic with permutation p-value"
}

// Bounded reports the unbounded range
func (c *Cucconi) Bounded() bool {
	return false
}

// Distance computes the observed statistic and its p-value
func (c *Cucconi) Distance(ctx context.Context, x, y []float64) DistanceResult {
	if len(x) < 2 || len(y) < 2 {
		return errorResult(c.Name(), fmt.Errorf("need at least 2 values per sample, got %d and %d", len(x), len(y)))
	}

	observed := cucconiStatistic(x, y)

	var p float64
	if c.permutations > 0 {
		var err error
		p, err = c.permutationPValue(ctx, x, y, observed)
		if err != nil {
			return errorResult(c.Name(), err)
		}
	} else {
		// Under the null, C is asymptotically standard bivariate-normal
		// quadratic, giving P(C >= c) = exp(-c).
		p = math.Exp(-observed)
	}
	if p > 1 {
		p = 1
	}

	return DistanceResult{
		MetricName:  c.Name(),
		Distance:    observed,
		PValue:      p,
		Magnitude:   classifyMagnitude(observed, p, false),
		Description: fmt.Sprintf("Cucconi C=%.4f (p=%.4f) over samples of %d and %d", observed, p, len(x), len(y)),
	}
}

// permutationPValue reshuffles the pooled sample with a local seeded source
func (c *Cucconi) permutationPValue(ctx context.Context, x, y []float64, observed float64) (float64, error) {
	pooled := make([]float64, 0, len(x)+len(y))
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)

	rng := rand.New(rand.NewSource(c.seed))
	exceed := 0
	for i := 0; i < c.permutations; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		rng.Shuffle(len(pooled), func(a, b int) {
			pooled[a], pooled[b] = pooled[b], pooled[a]
		})
		if cucconiStatistic(pooled[:len(x)], pooled[len(x):]) >= observed {
			exceed++
		}
	}
	return (float64(exceed) + 1) / (float64(c.permutations) + 1), nil
}

// cucconiStatistic computes C from the second sample's pooled midranks
func cucconiStatistic(x, y []float64) float64 {
	n1, n2 := float64(len(x)), float64(len(y))
	n := n1 + n2

	ranks := midranks(x, y)
	// Midranks of the y sample occupy the tail of the rank slice.
	var sumSq, sumContrarySq float64
	for _, r := range ranks[len(x):] {
		sumSq += r * r
		contrary := n + 1 - r
		sumContrarySq += contrary * contrary
	}

	denom := math.Sqrt(n1 * n2 * (n + 1) * (2*n + 1) * (8*n + 11) / 5)
	u := (6*sumSq - n2*(n+1)*(2*n+1)) / denom
	v := (6*sumContrarySq - n2*(n+1)*(2*n+1)) / denom

	rho := 2*(n*n-4)/((2*n+1)*(8*n+11)) - 1
	return (u*u + v*v - 2*rho*u*v) / (2 * (1 - rho*rho))
}

// midranks ranks the pooled sample, averaging ties. The returned slice holds
// x's ranks first, then y's.
func midranks(x, y []float64) []float64 {
	n := len(x) + len(y)
	type indexed struct {
		value float64
		pos   int
	}
	order := make([]indexed, 0, n)
	for i, v := range x {
		order = append(order, indexed{v, i})
	}
	for i, v := range y {
		order = append(order, indexed{v, len(x) + i})
	}
	sort.Slice(order, func(i, j int) bool { return order[i].value < order[j].value })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && order[j+1].value == order[i].value {
			j++
		}
		// Average rank across the tie run (1-based ranks).
		mid := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k].pos] = mid
		}
		i = j + 1
	}
	return ranks
}
