package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gojsd/adapters/export"
	"gojsd/ports"
)

// IndexView backs the landing page
type IndexView struct {
	Datasets []DatasetCard
	Recent   []RunRow
	HasDB    bool
}

// RunsView backs the run history page
type RunsView struct {
	Runs  []RunRow
	HasDB bool
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := IndexView{HasDB: a.reader != nil}
	for _, ds := range a.catalog.Datasets() {
		view.Datasets = append(view.Datasets, datasetCard(ds))
	}
	view.Recent = a.listRunRows(r, 10)
	a.renderTemplate(w, "index.html", view)
}

func (a *App) handleDatasets(w http.ResponseWriter, r *http.Request) {
	var cards []DatasetCard
	for _, ds := range a.catalog.Datasets() {
		cards = append(cards, datasetCard(ds))
	}
	a.renderTemplate(w, "datasets.html", cards)
}

func (a *App) handleDatasetDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, err := a.catalog.Get(r.Context(), name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Dataset not found: %s", name), http.StatusNotFound)
		return
	}
	a.renderTemplate(w, "dataset_detail.html", datasetDetailView(ds))
}

func (a *App) handleRuns(w http.ResponseWriter, r *http.Request) {
	view := RunsView{
		Runs:  a.listRunRows(r, recentRunLimit),
		HasDB: a.reader != nil,
	}
	a.renderTemplate(w, "runs.html", view)
}

func (a *App) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := a.findRun(r, id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Run not found: %s", id), http.StatusNotFound)
		return
	}
	a.renderTemplate(w, "run_detail.html", resultView(result))
}

func (a *App) handleRunExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := a.findRun(r, id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Run not found: %s", id), http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "tsv"
	}
	base := fmt.Sprintf("%s_vs_%s", result.DatasetAName, result.DatasetBName)
	switch format {
	case "tsv":
		w.Header().Set("Content-Type", "text/tab-separated-values")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".tsv"))
		fmt.Fprint(w, export.ResultTSV(result))
	case "md":
		w.Header().Set("Content-Type", "text/markdown")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".md"))
		fmt.Fprint(w, export.MarkdownReport(result))
	case "html":
		w.Header().Set("Content-Type", "text/html")
		w.Write(export.HTMLReport(result))
	case "xlsx":
		f, err := export.BuildResultXLSX(result)
		if err != nil {
			http.Error(w, fmt.Sprintf("Export failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".xlsx"))
		if err := f.Write(w); err != nil {
			http.Error(w, fmt.Sprintf("Export failed: %v", err), http.StatusInternalServerError)
		}
	default:
		http.Error(w, fmt.Sprintf("Unknown export format: %s", format), http.StatusBadRequest)
	}
}

func (a *App) handleFragmentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	a.renderPartial(w, "recent_runs.html", a.listRunRows(r, limit))
}

// listRunRows merges the persisted history with the in-memory ring. With a
// reader configured the database is authoritative; otherwise the ring is all
// there is.
func (a *App) listRunRows(r *http.Request, limit int) []RunRow {
	if a.reader != nil {
		summaries, err := a.reader.ListRuns(r.Context(), ports.RunFilters{Limit: limit})
		if err == nil {
			rows := make([]RunRow, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, summaryRow(s))
			}
			return rows
		}
	}
	var rows []RunRow
	for _, result := range a.recentRuns() {
		rows = append(rows, runRow(result))
		if len(rows) >= limit {
			break
		}
	}
	return rows
}

func summaryRow(s ports.RunSummary) RunRow {
	return RunRow{
		ID:         string(s.ID),
		DatasetA:   s.DatasetA,
		DatasetB:   s.DatasetB,
		Mode:       string(s.Mode),
		Attributes: s.Attributes,
		Succeeded:  s.Succeeded,
		Started:    s.StartedAt.Time().UTC().Format("2006-01-02 15:04"),
		RuntimeMs:  s.RuntimeMs,
	}
}
