package distribution

import (
	"fmt"
	"math"
	"time"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// SumTolerance bounds how far a probability vector may drift from 1.0
// before Validate rejects it.
const SumTolerance = 1e-9

// Distribution is a normalized probability vector over an attribute's
// categories at a fixed date. It is derived on demand and never persisted;
// holders must treat it as a value.
type Distribution struct {
	Categories []string
	Probs      []float64
}

// FromCounts normalizes cumulative counts into a distribution.
// All-zero counts cannot be normalized and fail with core.ErrEmptyDistribution.
func FromCounts(categories []string, counts []float64) (*Distribution, error) {
	if len(categories) == 0 || len(categories) != len(counts) {
		return nil, fmt.Errorf("%d counts for %d categories", len(counts), len(categories))
	}
	var total float64
	for _, v := range counts {
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("invalid count %g", v)
		}
		total += v
	}
	if total == 0 {
		return nil, core.ErrEmptyDistribution
	}
	probs := make([]float64, len(counts))
	for i, v := range counts {
		probs[i] = v / total
	}
	cats := make([]string, len(categories))
	copy(cats, categories)
	return &Distribution{Categories: cats, Probs: probs}, nil
}

// Build derives the distribution of an attribute table at an exact axis date.
// Date-resolution policies (nearest prior, static reuse) are applied by the
// caller before this point; Build itself only accepts dates on the axis.
func Build(t *dataset.AttributeTable, date time.Time) (*Distribution, error) {
	row, ok := t.Row(date)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no row at %s", core.ErrNotFound, t.Name, core.FormatDate(date))
	}
	d, err := FromCounts(t.Categories, row)
	if err != nil {
		if core.IsEmptyDistributionError(err) {
			return nil, core.NewEmptyDistributionError(t.Name, core.FormatDate(date))
		}
		return nil, err
	}
	return d, nil
}

// BuildAt derives the distribution at axis position i of the table
func BuildAt(t *dataset.AttributeTable, i int) (*Distribution, error) {
	if i < 0 || i >= len(t.Dates) {
		return nil, fmt.Errorf("axis position %d out of range for %s", i, t.Name)
	}
	d, err := FromCounts(t.Categories, t.RowAt(i))
	if err != nil {
		if core.IsEmptyDistributionError(err) {
			return nil, core.NewEmptyDistributionError(t.Name, core.FormatDate(t.Dates[i]))
		}
		return nil, err
	}
	return d, nil
}

// Prob returns the probability of a category label, zero when untracked
func (d *Distribution) Prob(label string) float64 {
	for i, c := range d.Categories {
		if c == label {
			return d.Probs[i]
		}
	}
	return 0
}

// Vector returns a copy of the probability vector
func (d *Distribution) Vector() []float64 {
	v := make([]float64, len(d.Probs))
	copy(v, d.Probs)
	return v
}

// SharesCategories reports whether two distributions use the same ordered
// category key set. Distance calculators require this; the matcher's
// union-and-zero-fill alignment establishes it.
func (d *Distribution) SharesCategories(other *Distribution) bool {
	if len(d.Categories) != len(other.Categories) {
		return false
	}
	for i := range d.Categories {
		if d.Categories[i] != other.Categories[i] {
			return false
		}
	}
	return true
}

// Validate checks the probability vector invariants
func (d *Distribution) Validate() error {
	if len(d.Categories) != len(d.Probs) {
		return fmt.Errorf("%d probabilities for %d categories", len(d.Probs), len(d.Categories))
	}
	var sum float64
	for i, p := range d.Probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("probability %g for %q outside [0,1]", p, d.Categories[i])
		}
		sum += p
	}
	if math.Abs(sum-1) > SumTolerance {
		return fmt.Errorf("probabilities sum to %g", sum)
	}
	return nil
}
