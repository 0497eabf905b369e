package ui

import (
	"sort"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/domain/matching"
	"gojsd/internal/profiling"
)

// DatasetCard summarizes a dataset for list pages
type DatasetCard struct {
	Name        string
	DisplayName string
	Status      string
	Attributes  []string
	HasRecords  bool
	FirstDate   string
	LastDate    string
	Dates       int
}

// CategoryShare is one bar of a composition chart
type CategoryShare struct {
	Category string
	Count    float64
	Share    float64
	Width    float64
}

// AttributeView is one attribute table on the dataset detail page
type AttributeView struct {
	Name       string
	Static     bool
	Dates      int
	FirstDate  string
	LastDate   string
	Total      float64
	Shares     []CategoryShare
	Uniformity profiling.UniformityResult
}

// ProfileView is a numeric column profile row
type ProfileView struct {
	Column  string
	Profile profiling.Profile
}

// DatasetDetailView backs the dataset detail page
type DatasetDetailView struct {
	Name        string
	DisplayName string
	Status      string
	HasRecords  bool
	Attributes  []AttributeView
	Profiles    []ProfileView
}

// RunRow is one line of a run listing
type RunRow struct {
	ID         string
	DatasetA   string
	DatasetB   string
	Mode       string
	Attributes int
	Succeeded  bool
	Started    string
	RuntimeMs  int64
}

// SeriesPoint is one rendered point of a distance series
type SeriesPoint struct {
	Date  string
	Value float64
	Width float64
}

// SeriesView is one distance series with pre-computed bar widths
type SeriesView struct {
	Attribute string
	Metric    string
	Mean      float64
	Min       float64
	Max       float64
	Last      float64
	Points    []SeriesPoint
}

// ResultView backs the comparison result page
type ResultView struct {
	RunID        string
	DatasetA     string
	DatasetB     string
	Mode         string
	Method       string
	Metric       string
	Alignment    string
	Succeeded    bool
	NoData       bool
	RuntimeMs    int64
	Started      string
	Series       []SeriesView
	Warnings     []matching.Warning
	Errors       []compare.AttributeError
	MultiMembers []string
}

func datasetCard(ds *dataset.Dataset) DatasetCard {
	card := DatasetCard{
		Name:        ds.Name,
		DisplayName: ds.GetDisplayName(),
		Status:      string(ds.Status),
		Attributes:  ds.AttributeNames(),
		HasRecords:  ds.HasRecords(),
	}
	for _, table := range ds.Attributes {
		if len(table.Dates) == 0 {
			continue
		}
		if card.Dates < len(table.Dates) {
			card.Dates = len(table.Dates)
		}
		first := core.FormatDate(table.FirstDate())
		last := core.FormatDate(table.LastDate())
		if card.FirstDate == "" || first < card.FirstDate {
			card.FirstDate = first
		}
		if card.LastDate == "" || last > card.LastDate {
			card.LastDate = last
		}
	}
	return card
}

func attributeView(table *dataset.AttributeTable) AttributeView {
	view := AttributeView{
		Name:   table.Name,
		Static: table.IsStatic(),
		Dates:  len(table.Dates),
	}
	if len(table.Dates) == 0 {
		return view
	}
	view.FirstDate = core.FormatDate(table.FirstDate())
	view.LastDate = core.FormatDate(table.LastDate())

	latest := table.RowAt(len(table.Dates) - 1)
	var total, peak float64
	for _, count := range latest {
		total += count
		if count > peak {
			peak = count
		}
	}
	view.Total = total
	view.Uniformity = profiling.CheckUniformity(latest)
	for i, category := range table.Categories {
		share := CategoryShare{Category: category, Count: latest[i]}
		if total > 0 {
			share.Share = latest[i] / total * 100
		}
		if peak > 0 {
			share.Width = latest[i] / peak * 100
		}
		view.Shares = append(view.Shares, share)
	}
	return view
}

func datasetDetailView(ds *dataset.Dataset) DatasetDetailView {
	view := DatasetDetailView{
		Name:        ds.Name,
		DisplayName: ds.GetDisplayName(),
		Status:      string(ds.Status),
		HasRecords:  ds.HasRecords(),
	}
	for _, table := range ds.Attributes {
		view.Attributes = append(view.Attributes, attributeView(table))
	}
	if ds.HasRecords() {
		numeric := make(map[string][]float64)
		for _, col := range ds.Records.Columns {
			if col.Kind != dataset.ColumnNumeric {
				continue
			}
			if values, ok := ds.Records.NumericColumn(col.Name); ok {
				numeric[col.Name] = values
			}
		}
		analyzer := profiling.NewDistributionAnalyzer()
		profiles := analyzer.AnalyzeColumns(numeric)
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			view.Profiles = append(view.Profiles, ProfileView{Column: name, Profile: profiles[name]})
		}
	}
	return view
}

func runRow(result *compare.ComparisonResult) RunRow {
	return RunRow{
		ID:         string(result.RunID),
		DatasetA:   result.DatasetAName,
		DatasetB:   result.DatasetBName,
		Mode:       string(result.Mode),
		Attributes: len(result.Entries),
		Succeeded:  result.Succeeded(),
		Started:    result.StartedAt.UTC().Format("2006-01-02 15:04"),
		RuntimeMs:  result.RuntimeMs,
	}
}

func seriesView(s *compare.DistanceSeries) SeriesView {
	view := SeriesView{Attribute: s.Attribute, Metric: s.Metric}
	if s.Len() == 0 {
		return view
	}
	values := s.Values()
	view.Min, view.Max = values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < view.Min {
			view.Min = v
		}
		if v > view.Max {
			view.Max = v
		}
	}
	view.Mean = sum / float64(len(values))
	view.Last = values[len(values)-1]
	for _, p := range s.Points {
		point := SeriesPoint{Date: core.FormatDate(p.Date), Value: p.Value}
		if view.Max > 0 {
			point.Width = p.Value / view.Max * 100
		}
		view.Points = append(view.Points, point)
	}
	return view
}

func resultView(result *compare.ComparisonResult) ResultView {
	view := ResultView{
		RunID:     string(result.RunID),
		DatasetA:  result.DatasetAName,
		DatasetB:  result.DatasetBName,
		Mode:      string(result.Mode),
		Alignment: string(result.Options.Alignment),
		Succeeded: result.Succeeded(),
		NoData:    result.NoComparableData(),
		RuntimeMs: result.RuntimeMs,
		Started:   result.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		Warnings:  result.Warnings,
		Errors:    result.Errors,
	}
	for _, entry := range result.Entries {
		if entry.Series != nil {
			view.Series = append(view.Series, seriesView(entry.Series))
			if view.Metric == "" {
				view.Metric = entry.Series.Metric
			}
		}
		if entry.Multi != nil {
			view.Method = string(entry.Multi.Method)
			view.MultiMembers = entry.Multi.Attributes
			view.Series = append(view.Series, seriesView(&entry.Multi.Series))
			if view.Metric == "" {
				view.Metric = entry.Multi.Series.Metric
			}
		}
	}
	return view
}
