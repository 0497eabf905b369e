package ui

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"gojsd/app"
	"gojsd/domain/compare"
	"gojsd/domain/dataset"
	"gojsd/domain/matching"
)

// CompareFormView backs the comparison form page
type CompareFormView struct {
	Names      []string
	Attributes []string
	Metrics    []string
	Scales     []string
	Error      string
}

// BatchRowView is one pair's outcome on the batch result page
type BatchRowView struct {
	DatasetA string
	DatasetB string
	RunID    string
	Mean     float64
	Last     float64
	Failed   bool
	Message  string
}

// BatchView backs the batch sweep result page
type BatchView struct {
	Sweep string
	Mode  string
	Rows  []BatchRowView
}

var scaleNames = []string{"standard", "minmax", "maxabs", "robust", "none"}

func (a *App) compareFormView() CompareFormView {
	view := CompareFormView{
		Names:   a.catalog.Names(),
		Metrics: compare.EmbeddingMetrics,
		Scales:  scaleNames,
	}
	seen := make(map[string]bool)
	for _, ds := range a.catalog.Datasets() {
		for _, name := range ds.AttributeNames() {
			canonical := matching.CanonicalName(name, matching.DefaultStripTokens)
			if !seen[canonical] {
				seen[canonical] = true
				view.Attributes = append(view.Attributes, canonical)
			}
		}
	}
	sort.Strings(view.Attributes)
	return view
}

func (a *App) handleCompareForm(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "compare.html", a.compareFormView())
}

func (a *App) handleCompareRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	nameA := r.FormValue("dataset_a")
	nameB := r.FormValue("dataset_b")
	dsA, err := a.catalog.Get(r.Context(), nameA)
	if err != nil {
		a.renderCompareError(w, fmt.Sprintf("Dataset not found: %s", nameA))
		return
	}
	dsB, err := a.catalog.Get(r.Context(), nameB)
	if err != nil {
		a.renderCompareError(w, fmt.Sprintf("Dataset not found: %s", nameB))
		return
	}

	req := app.CompareRequest{
		DatasetA:   dsA,
		DatasetB:   dsB,
		Attributes: splitList(r.FormValue("attributes")),
		Mode:       compare.Mode(r.FormValue("mode")),
		Method:     compare.Method(r.FormValue("method")),
		Options:    optionsFromForm(r),
	}
	result, err := a.comparisons.Compare(r.Context(), req)
	if err != nil {
		a.renderCompareError(w, fmt.Sprintf("Comparison failed: %v", err))
		return
	}

	a.rememberRun(result)
	a.renderTemplate(w, "result.html", resultView(result))
}

func (a *App) handleBatchRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	names := r.Form["datasets"]
	var members []*dataset.Dataset
	if len(names) == 0 {
		members = a.catalog.Datasets()
	} else {
		for _, name := range names {
			ds, err := a.catalog.Get(r.Context(), name)
			if err != nil {
				a.renderCompareError(w, fmt.Sprintf("Dataset not found: %s", name))
				return
			}
			members = append(members, ds)
		}
	}

	req := app.BatchRequest{
		Datasets:   members,
		Attributes: splitList(r.FormValue("attributes")),
		Mode:       compare.Mode(r.FormValue("mode")),
		Method:     compare.Method(r.FormValue("method")),
		Options:    optionsFromForm(r),
	}

	sweep := r.FormValue("sweep")
	var pairs []app.PairResult
	var err error
	switch sweep {
	case "rest":
		pairs, err = a.batches.CompareAgainstRest(r.Context(), req)
	default:
		sweep = "pairs"
		pairs, err = a.batches.CompareAllPairs(r.Context(), req)
	}
	if err != nil {
		a.renderCompareError(w, fmt.Sprintf("Batch comparison failed: %v", err))
		return
	}

	view := BatchView{Sweep: sweep, Mode: string(req.Mode)}
	for _, pair := range pairs {
		row := BatchRowView{DatasetA: pair.DatasetA, DatasetB: pair.DatasetB}
		if pair.Err != nil {
			row.Failed = true
			row.Message = pair.Err.Error()
		} else if pair.Result != nil {
			a.rememberRun(pair.Result)
			row.RunID = string(pair.Result.RunID)
			row.Mean, row.Last = overallDistance(pair.Result)
			if pair.Result.NoComparableData() {
				row.Message = "no comparable attributes"
			}
		}
		view.Rows = append(view.Rows, row)
	}
	a.renderTemplate(w, "batch_result.html", view)
}

func (a *App) renderCompareError(w http.ResponseWriter, message string) {
	view := a.compareFormView()
	view.Error = message
	w.WriteHeader(http.StatusUnprocessableEntity)
	a.renderTemplate(w, "compare.html", view)
}

// optionsFromForm maps form fields onto engine options, leaving absent
// fields zero so documented defaults apply
func optionsFromForm(r *http.Request) compare.Options {
	opts := compare.Options{
		Alignment: compare.DateAlignment(r.FormValue("alignment")),
	}
	if bins := formInt(r, "bin_count"); bins > 0 {
		opts.BinCount = bins
	}
	opts.FAMD.Metric = r.FormValue("metric")
	opts.FAMD.Scale = r.FormValue("scale")
	if components := formInt(r, "components"); components > 0 {
		opts.FAMD.Components = components
	}
	if bins := formInt(r, "embedding_bins"); bins > 0 {
		opts.FAMD.EmbeddingBins = bins
	}
	return opts
}

func formInt(r *http.Request, field string) int {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// splitList parses a comma-separated attribute list, dropping empty parts
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// overallDistance condenses a result to a (mean, last) pair across all of
// its series for batch summary rows
func overallDistance(result *compare.ComparisonResult) (mean, last float64) {
	var sum float64
	var count int
	for _, entry := range result.Entries {
		series := entry.Series
		if series == nil && entry.Multi != nil {
			series = &entry.Multi.Series
		}
		if series == nil || series.Len() == 0 {
			continue
		}
		values := series.Values()
		for _, v := range values {
			sum += v
			count++
		}
		last = values[len(values)-1]
	}
	if count > 0 {
		mean = sum / float64(count)
	}
	return mean, last
}
