package profiling

// SummaryStats holds the basic summary statistics of a numeric sample
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// ShapeStats holds distribution shape markers
type ShapeStats struct {
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	IsNormal bool    `json:"is_normal"`
	ShapiroP float64 `json:"shapiro_p"`
}

// Profile is the complete statistical profile of one numeric sample
type Profile struct {
	SampleSize int          `json:"sample_size"`
	Summary    SummaryStats `json:"summary"`
	Shape      ShapeStats   `json:"shape"`
	Outliers   int          `json:"outliers"`
	Noise      float64      `json:"noise"`
}
