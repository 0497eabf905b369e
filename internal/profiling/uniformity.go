package profiling

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformityResult reports how evenly counts spread across categories
type UniformityResult struct {
	ChiSquare float64 `json:"chi_square"`
	PValue    float64 `json:"p_value"`
	Balanced  bool    `json:"balanced"`
}

// CheckUniformity runs a chi-squared goodness-of-fit test of the given
// category counts against the uniform distribution. Used to flag
// attributes whose composition is dominated by a few categories.
func CheckUniformity(counts []float64) UniformityResult {
	k := len(counts)
	if k < 2 {
		return UniformityResult{Balanced: true, PValue: 1.0}
	}

	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total <= 0 {
		return UniformityResult{Balanced: true, PValue: 1.0}
	}

	expected := total / float64(k)
	chiSquare := 0.0
	for _, c := range counts {
		diff := c - expected
		chiSquare += diff * diff / expected
	}

	chiDist := distuv.ChiSquared{K: float64(k - 1)}
	pValue := 1 - chiDist.CDF(chiSquare)

	return UniformityResult{
		ChiSquare: chiSquare,
		PValue:    pValue,
		Balanced:  pValue > 0.05,
	}
}
