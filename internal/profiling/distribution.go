package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeDistribution performs comprehensive distribution analysis
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (Profile, error) {
	profile := Profile{SampleSize: len(data)}

	mean, err := stats.Mean(data)
	if err != nil {
		return profile, err
	}

	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return profile, err
	}

	min, err := stats.Min(data)
	if err != nil {
		return profile, err
	}

	max, err := stats.Max(data)
	if err != nil {
		return profile, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return profile, err
	}

	// Quartiles for IQR-based outlier detection
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return profile, err
	}

	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return profile, err
	}

	skewness := calculateSkewness(data, mean, stdDev)
	kurtosis := calculateKurtosis(data, mean, stdDev)
	isNormal, shapiroP := testNormality(data)

	profile.Summary = SummaryStats{
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Median: median,
		Q25:    q25,
		Q75:    q75,
	}
	profile.Shape = ShapeStats{
		Skewness: skewness,
		Kurtosis: kurtosis,
		IsNormal: isNormal,
		ShapiroP: shapiroP,
	}
	profile.Outliers = detectOutliers(data, q25, q75)
	profile.Noise = calculateNoiseCoefficient(data)

	return profile, nil
}

// AnalyzeColumns profiles every named numeric sample
func (da *DistributionAnalyzer) AnalyzeColumns(columns map[string][]float64) map[string]Profile {
	results := make(map[string]Profile, len(columns))
	for name, data := range columns {
		profile, err := da.AnalyzeDistribution(data)
		if err != nil {
			continue
		}
		results[name] = profile
	}
	return results
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	skewness *= correction

	return skewness
}

// calculateKurtosis computes sample kurtosis
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	kurtosis := sumFourthDeviations / n

	// Convert to excess kurtosis (subtract 3 for normal distribution)
	excessKurtosis := kurtosis - 3

	// Bias correction for sample excess kurtosis
	if n > 3 {
		correction := (n - 1) / ((n - 2) * (n - 3))
		excessKurtosis = excessKurtosis*correction + 6/(n+1)
	}

	return excessKurtosis + 3
}

// testNormality approximates a normality test from skewness and kurtosis
func testNormality(data []float64) (isNormal bool, pValue float64) {
	if len(data) < 3 {
		return false, 1.0
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return false, 1.0
	}

	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return false, 1.0
	}

	skewness := calculateSkewness(data, mean, stdDev)
	kurtosis := calculateKurtosis(data, mean, stdDev)

	// Combined statistic over both shape markers
	testStat := math.Abs(skewness) + math.Abs(kurtosis-3)/2

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(testStat*testStat)
	isNormal = pValue > 0.05

	return isNormal, pValue
}

// detectOutliers identifies outliers using the IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}

// calculateNoiseCoefficient estimates data noise using the coefficient
// of variation, normalized to [0,1]
func calculateNoiseCoefficient(data []float64) float64 {
	if len(data) < 3 {
		return 1.0
	}

	mean, _ := stats.Mean(data)
	stdDev, _ := stats.StandardDeviation(data)

	if mean == 0 {
		return 1.0
	}

	cv := stdDev / math.Abs(mean)
	return math.Min(cv/2.0, 1.0)
}
