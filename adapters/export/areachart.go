package export

import (
	"time"

	"gojsd/domain/dataset"
)

// AreaSeries is one category's percent share per axis date
type AreaSeries struct {
	Category string    `json:"category"`
	Values   []float64 `json:"values"`
}

// AreaChart is the stacked-area representation of one attribute: per-category
// percent shares over the table's dates, extended to a global last date so
// charts of different attributes end on the same axis.
type AreaChart struct {
	Attribute string       `json:"attribute"`
	Dates     []time.Time  `json:"dates"`
	Series    []AreaSeries `json:"series"`
}

// AreaChartFor converts one attribute table to percent shares. When lastDate
// falls after the table's own axis, the final composition is carried forward
// to it. Dates whose counts are all zero contribute zero shares.
func AreaChartFor(t *dataset.AttributeTable, lastDate time.Time) *AreaChart {
	dates := make([]time.Time, len(t.Dates))
	copy(dates, t.Dates)
	extend := !lastDate.IsZero() && lastDate.After(t.LastDate())
	if extend {
		dates = append(dates, lastDate)
	}

	chart := &AreaChart{
		Attribute: t.Name,
		Dates:     dates,
		Series:    make([]AreaSeries, len(t.Categories)),
	}
	for j, cat := range t.Categories {
		chart.Series[j] = AreaSeries{Category: cat, Values: make([]float64, len(dates))}
	}

	for i := range t.Dates {
		row := t.Counts[i]
		var total float64
		for _, v := range row {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range row {
			chart.Series[j].Values[i] = v / total * 100
		}
	}
	if extend {
		last := len(t.Dates) - 1
		for j := range chart.Series {
			chart.Series[j].Values[len(dates)-1] = chart.Series[j].Values[last]
		}
	}
	return chart
}

// AreaChartsForDataset prepares one chart per attribute, all ending at the
// dataset's global last date
func AreaChartsForDataset(ds *dataset.Dataset) []*AreaChart {
	var last time.Time
	for _, t := range ds.Attributes {
		if t.LastDate().After(last) {
			last = t.LastDate()
		}
	}
	charts := make([]*AreaChart, 0, len(ds.Attributes))
	for _, t := range ds.Attributes {
		charts = append(charts, AreaChartFor(t, last))
	}
	return charts
}
