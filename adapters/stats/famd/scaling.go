package famd

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// ScaleMethod names a numeric rescaling applied before projection
type ScaleMethod string

const (
	ScaleStandard ScaleMethod = "standard" // (x - mean) / stddev
	ScaleMinMax   ScaleMethod = "minmax"   // (x - min) / (max - min)
	ScaleMaxAbs   ScaleMethod = "maxabs"   // x / max(|x|)
	ScaleRobust   ScaleMethod = "robust"   // (x - median) / IQR
	ScaleNone     ScaleMethod = "none"
)

// scaleAliases accepts the shorthand names upstream configurations use
var scaleAliases = map[string]ScaleMethod{
	"std":      ScaleStandard,
	"standard": ScaleStandard,
	"minmax":   ScaleMinMax,
	"min-max":  ScaleMinMax,
	"maxabs":   ScaleMaxAbs,
	"max-abs":  ScaleMaxAbs,
	"robust":   ScaleRobust,
	"none":     ScaleNone,
	"":         ScaleStandard,
}

// ParseScaleMethod resolves an alias to a method
func ParseScaleMethod(name string) (ScaleMethod, error) {
	if m, ok := scaleAliases[name]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown scaling method %q", name)
}

// Scale rescales a column. Degenerate columns (zero spread) scale to all
// zeros rather than failing: a constant column carries no comparison signal
// but should not abort the projection.
func Scale(values []float64, method ScaleMethod) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("cannot scale an empty column")
	}
	out := make([]float64, len(values))

	switch method {
	case ScaleNone:
		copy(out, values)
		return out, nil

	case ScaleStandard, "":
		mean, err := stats.Mean(values)
		if err != nil {
			return nil, err
		}
		sd, err := stats.StandardDeviation(values)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if sd == 0 {
				out[i] = 0
			} else {
				out[i] = (v - mean) / sd
			}
		}
		return out, nil

	case ScaleMinMax:
		lo, err := stats.Min(values)
		if err != nil {
			return nil, err
		}
		hi, err := stats.Max(values)
		if err != nil {
			return nil, err
		}
		span := hi - lo
		for i, v := range values {
			if span == 0 {
				out[i] = 0
			} else {
				out[i] = (v - lo) / span
			}
		}
		return out, nil

	case ScaleMaxAbs:
		var maxAbs float64
		for _, v := range values {
			if a := abs(v); a > maxAbs {
				maxAbs = a
			}
		}
		for i, v := range values {
			if maxAbs == 0 {
				out[i] = 0
			} else {
				out[i] = v / maxAbs
			}
		}
		return out, nil

	case ScaleRobust:
		med, err := stats.Median(values)
		if err != nil {
			return nil, err
		}
		q1, err := stats.Percentile(values, 25)
		if err != nil {
			return nil, err
		}
		q3, err := stats.Percentile(values, 75)
		if err != nil {
			return nil, err
		}
		iqr := q3 - q1
		for i, v := range values {
			if iqr == 0 {
				out[i] = 0
			} else {
				out[i] = (v - med) / iqr
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown scaling method %q", method)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
