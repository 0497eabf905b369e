package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gojsd/app"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// recentRunLimit caps the in-memory run history shown without a database
const recentRunLimit = 50

// App represents the dashboard application
type App struct {
	config      Config
	router      *chi.Mux
	templates   *template.Template
	catalog     *app.CatalogService
	comparisons *app.ComparisonService
	batches     *app.BatchService
	reader      ports.ReaderPort

	// Recent results kept in memory so the dashboard works without a
	// configured database; newest first
	mu     sync.RWMutex
	recent []*compare.ComparisonResult
}

// Config holds dashboard application configuration
type Config struct {
	Port string
}

// NewApp creates a new dashboard application. The reader may be nil in
// file-only mode.
func NewApp(config Config, catalog *app.CatalogService, comparisons *app.ComparisonService, batches *app.BatchService, reader ports.ReaderPort) (*App, error) {
	funcMap := template.FuncMap{
		"mul": func(a, b float64) float64 { return a * b },
		"add": func(a, b int) int { return a + b },
		"max": func(a, b float64) float64 {
			if a > b {
				return a
			}
			return b
		},
		"until": func(n int) []int {
			res := make([]int, n)
			for i := range res {
				res[i] = i
			}
			return res
		},
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"dist":  func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"fdate": core.FormatDate,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		config:      config,
		router:      chi.NewRouter(),
		templates:   templates,
		catalog:     catalog,
		comparisons: comparisons,
		batches:     batches,
		reader:      reader,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	// Serve static files
	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", http.StripPrefix("/", staticFS))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	// Main pages
	a.router.Get("/", a.handleIndex)
	a.router.Get("/datasets", a.handleDatasets)
	a.router.Get("/datasets/{name}", a.handleDatasetDetail)
	a.router.Get("/compare", a.handleCompareForm)
	a.router.Post("/compare", a.handleCompareRun)
	a.router.Post("/compare/batch", a.handleBatchRun)
	a.router.Get("/runs", a.handleRuns)
	a.router.Get("/runs/{id}", a.handleRunDetail)
	a.router.Get("/runs/{id}/export", a.handleRunExport)

	// HTMX fragment endpoints
	a.router.Get("/api/fragments/runs", a.handleFragmentRuns)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	log.Printf("Starting dashboard on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Router exposes the mux for tests
func (a *App) Router() http.Handler {
	return a.router
}

// rememberRun stores a finished run in the in-memory ring
func (a *App) rememberRun(result *compare.ComparisonResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recent = append([]*compare.ComparisonResult{result}, a.recent...)
	if len(a.recent) > recentRunLimit {
		a.recent = a.recent[:recentRunLimit]
	}
}

// recentRuns returns a snapshot of the in-memory run history
func (a *App) recentRuns() []*compare.ComparisonResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*compare.ComparisonResult, len(a.recent))
	copy(out, a.recent)
	return out
}

// findRun resolves a run from the in-memory ring first, then from the
// configured reader
func (a *App) findRun(r *http.Request, id string) (*compare.ComparisonResult, error) {
	a.mu.RLock()
	for _, result := range a.recent {
		if string(result.RunID) == id {
			a.mu.RUnlock()
			return result, nil
		}
	}
	a.mu.RUnlock()

	if a.reader == nil {
		return nil, fmt.Errorf("%w: run %s", core.ErrRunNotFound, id)
	}
	return a.reader.GetRun(r.Context(), core.RunID(id))
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// HTMX helpers
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (a *App) renderPartial(w http.ResponseWriter, templateName string, data interface{}) {
	a.renderTemplate(w, templateName, data)
}
