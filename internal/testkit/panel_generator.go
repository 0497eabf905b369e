package testkit

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gojsd/domain/binning"
	"gojsd/domain/dataset"
)

// CategoryWeight is one weighted category of a synthetic attribute
type CategoryWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// NumericSpec describes the normal distribution of a synthetic numeric
// attribute
type NumericSpec struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// PanelGeneratorConfig configures the synthetic panel generator
type PanelGeneratorConfig struct {
	ParticipantCount int                         `json:"participant_count"`
	StartDate        time.Time                   `json:"start_date"`
	Days             int                         `json:"days"`
	Seed             int64                       `json:"seed"`
	Categories       map[string][]CategoryWeight `json:"categories"`
	Numerics         map[string]NumericSpec      `json:"numerics"`
}

// DefaultPanelConfig returns sensible defaults for panel generation
func DefaultPanelConfig() PanelGeneratorConfig {
	return PanelGeneratorConfig{
		ParticipantCount: 500,
		StartDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:             90,
		Seed:             42,
		Categories: map[string][]CategoryWeight{
			"gender": {
				{Name: "Female", Weight: 0.52},
				{Name: "Male", Weight: 0.46},
				{Name: "Other", Weight: 0.02},
			},
			"age_group": {
				{Name: "18-34", Weight: 0.30},
				{Name: "35-54", Weight: 0.38},
				{Name: "55+", Weight: 0.32},
			},
			"region": {
				{Name: "North", Weight: 0.25},
				{Name: "South", Weight: 0.30},
				{Name: "East", Weight: 0.22},
				{Name: "West", Weight: 0.23},
			},
		},
		Numerics: map[string]NumericSpec{
			"age": {Mean: 45, StdDev: 15},
		},
	}
}

// Skewed returns a copy of the config with one category's weight scaled
// by the given factor. Weights need not sum to one, draws normalize.
func (c PanelGeneratorConfig) Skewed(attribute, category string, factor float64) PanelGeneratorConfig {
	out := c
	out.Categories = make(map[string][]CategoryWeight, len(c.Categories))
	for attr, weights := range c.Categories {
		copied := make([]CategoryWeight, len(weights))
		copy(copied, weights)
		if attr == attribute {
			for i := range copied {
				if copied[i].Name == category {
					copied[i].Weight *= factor
				}
			}
		}
		out.Categories[attr] = copied
	}
	return out
}

// PanelGenerator produces synthetic longitudinal panel datasets with
// participants accruing over the configured date range
type PanelGenerator struct {
	config PanelGeneratorConfig
	rng    *rand.Rand
}

// NewPanelGenerator creates a new panel generator
func NewPanelGenerator(config PanelGeneratorConfig) *PanelGenerator {
	return &PanelGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateDataset generates a dataset with participant records and the
// cumulative attribute tables derived from them
func (g *PanelGenerator) GenerateDataset(name string) (*dataset.Dataset, error) {
	rt, err := g.GenerateRecords()
	if err != nil {
		return nil, err
	}

	attrs := make([]*dataset.AttributeTable, 0, len(rt.Columns))
	for _, col := range rt.Columns {
		var spec *binning.BinSpec
		if col.Kind == dataset.ColumnNumeric {
			values, _ := rt.NumericColumn(col.Name)
			spec, err = binning.DefaultSpec(values, binning.DefaultBinCount, binning.PolicyClamp)
			if err != nil {
				return nil, fmt.Errorf("failed to bin %s: %w", col.Name, err)
			}
		}
		table, err := dataset.TableFromRecords(rt, col.Name, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", col.Name, err)
		}
		attrs = append(attrs, table)
	}

	ds := dataset.NewDataset(name, attrs)
	ds.Records = rt
	return ds, nil
}

// GenerateRecords generates the raw participant records alone
func (g *PanelGenerator) GenerateRecords() (*dataset.RecordTable, error) {
	if g.config.ParticipantCount <= 0 {
		return nil, fmt.Errorf("participant count must be positive")
	}
	if g.config.Days <= 0 {
		return nil, fmt.Errorf("day span must be positive")
	}

	catNames := make([]string, 0, len(g.config.Categories))
	for name := range g.config.Categories {
		catNames = append(catNames, name)
	}
	sort.Strings(catNames)

	numNames := make([]string, 0, len(g.config.Numerics))
	for name := range g.config.Numerics {
		numNames = append(numNames, name)
	}
	sort.Strings(numNames)

	n := g.config.ParticipantCount
	dates := make([]time.Time, n)
	categorical := make(map[string][]string, len(catNames))
	numeric := make(map[string][]float64, len(numNames))
	for _, name := range catNames {
		categorical[name] = make([]string, n)
	}
	for _, name := range numNames {
		numeric[name] = make([]float64, n)
	}

	var columns []dataset.ColumnInfo
	for _, name := range catNames {
		columns = append(columns, dataset.ColumnInfo{Name: name, Kind: dataset.ColumnCategorical})
	}
	for _, name := range numNames {
		columns = append(columns, dataset.ColumnInfo{Name: name, Kind: dataset.ColumnNumeric})
	}

	for i := 0; i < n; i++ {
		dates[i] = g.config.StartDate.AddDate(0, 0, g.rng.Intn(g.config.Days))
		for _, name := range catNames {
			categorical[name][i] = g.drawCategory(g.config.Categories[name])
		}
		for _, name := range numNames {
			spec := g.config.Numerics[name]
			numeric[name][i] = spec.Mean + g.rng.NormFloat64()*spec.StdDev
		}
	}

	return dataset.NewRecordTable(dates, columns, numeric, categorical)
}

// drawCategory samples one category proportionally to its weight
func (g *PanelGenerator) drawCategory(weights []CategoryWeight) string {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}
	if total <= 0 || len(weights) == 0 {
		return ""
	}
	r := g.rng.Float64() * total
	for _, w := range weights {
		r -= w.Weight
		if r <= 0 {
			return w.Name
		}
	}
	return weights[len(weights)-1].Name
}
