package ui

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gojsd/app"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/ports"
)

// Server is the JSON API surface for programmatic clients. The dashboard App
// serves the same engine to browsers.
type Server struct {
	router      *gin.Engine
	catalog     *app.CatalogService
	comparisons *app.ComparisonService
	batches     *app.BatchService
	reader      ports.ReaderPort
	runs        ports.RunRepository
}

// NewServer creates a new API server instance. reader and runs may be nil in
// file-only mode; run endpoints then answer from nothing.
func NewServer(catalog *app.CatalogService, comparisons *app.ComparisonService, batches *app.BatchService, reader ports.ReaderPort, runs ports.RunRepository) *Server {
	s := &Server{
		router:      gin.Default(),
		catalog:     catalog,
		comparisons: comparisons,
		batches:     batches,
		reader:      reader,
		runs:        runs,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/datasets", s.handleListDatasets)
		api.POST("/datasets/load", s.handleLoadDataset)
		api.GET("/datasets/:name", s.handleGetDataset)
		api.GET("/datasets/:name/attributes/:attribute", s.handleGetAttribute)
		api.POST("/compare", s.handleCompare)
		api.POST("/compare/batch", s.handleCompareBatch)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.DELETE("/runs/:id", s.handleDeleteRun)
	}
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"datasets":   s.catalog.Len(),
		"persistent": s.reader != nil,
	})
}

func (s *Server) handleListDatasets(c *gin.Context) {
	summaries := make([]ports.DatasetSummary, 0)
	for _, ds := range s.catalog.Datasets() {
		summaries = append(summaries, ports.SummarizeDataset(ds))
	}
	c.JSON(http.StatusOK, gin.H{"datasets": summaries})
}

// LoadDatasetRequest describes a file to pull into the catalog
type LoadDatasetRequest struct {
	Name             string                       `json:"name" binding:"required"`
	Path             string                       `json:"path" binding:"required"`
	Kind             string                       `json:"kind"`
	DateColumn       string                       `json:"date_column"`
	Delimiter        string                       `json:"delimiter"`
	NumericColumns   []string                     `json:"numeric_columns"`
	EnsureCategories []string                     `json:"ensure_categories"`
	CategoryRemap    map[string]map[string]string `json:"category_remap"`
}

func (s *Server) handleLoadDataset(c *gin.Context) {
	var req LoadDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ds *dataset.Dataset
	var err error
	switch req.Kind {
	case "", "workbook":
		ds, err = s.catalog.LoadWorkbook(c.Request.Context(), req.Path, ports.WorkbookOptions{
			Name:             req.Name,
			DateColumn:       req.DateColumn,
			CategoryRemap:    req.CategoryRemap,
			EnsureCategories: req.EnsureCategories,
		})
	case "records":
		var delimiter rune
		if req.Delimiter != "" {
			delimiter = []rune(req.Delimiter)[0]
		}
		ds, err = s.catalog.LoadRecords(c.Request.Context(), req.Path, ports.RecordOptions{
			Name:           req.Name,
			DateColumn:     req.DateColumn,
			Delimiter:      delimiter,
			NumericColumns: req.NumericColumns,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be workbook or records"})
		return
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dataset": ports.SummarizeDataset(ds)})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	name := c.Param("name")
	ds, err := s.catalog.Get(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset":    ports.SummarizeDataset(ds),
		"attributes": ds.AttributeNames(),
	})
}

func (s *Server) handleGetAttribute(c *gin.Context) {
	name := c.Param("name")
	attribute := c.Param("attribute")
	ds, err := s.catalog.Get(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}
	table, ok := ds.Attribute(attribute)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attribute not found"})
		return
	}
	c.JSON(http.StatusOK, table)
}

// CompareAPIRequest is the JSON body of a comparison call. Options reuses
// the engine's own serialization surface.
type CompareAPIRequest struct {
	DatasetA   string          `json:"dataset_a" binding:"required"`
	DatasetB   string          `json:"dataset_b" binding:"required"`
	Attributes []string        `json:"attributes"`
	Mode       string          `json:"mode"`
	Method     string          `json:"method"`
	Options    compare.Options `json:"options"`
}

func (s *Server) handleCompare(c *gin.Context) {
	var req CompareAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dsA, err := s.catalog.Get(c.Request.Context(), req.DatasetA)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found: " + req.DatasetA})
		return
	}
	dsB, err := s.catalog.Get(c.Request.Context(), req.DatasetB)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found: " + req.DatasetB})
		return
	}

	result, err := s.comparisons.Compare(c.Request.Context(), app.CompareRequest{
		DatasetA:   dsA,
		DatasetB:   dsB,
		Attributes: req.Attributes,
		Mode:       compare.Mode(req.Mode),
		Method:     compare.Method(req.Method),
		Options:    req.Options,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// BatchAPIRequest is the JSON body of a batch sweep call
type BatchAPIRequest struct {
	Datasets   []string        `json:"datasets"`
	Sweep      string          `json:"sweep"` // "pairs" (default) or "rest"
	Attributes []string        `json:"attributes"`
	Mode       string          `json:"mode"`
	Method     string          `json:"method"`
	Options    compare.Options `json:"options"`
}

// BatchPairResponse is one pair's outcome in a batch response
type BatchPairResponse struct {
	DatasetA string                    `json:"dataset_a"`
	DatasetB string                    `json:"dataset_b"`
	Result   *compare.ComparisonResult `json:"result,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

func (s *Server) handleCompareBatch(c *gin.Context) {
	var req BatchAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var members []*dataset.Dataset
	if len(req.Datasets) == 0 {
		members = s.catalog.Datasets()
	} else {
		for _, name := range req.Datasets {
			ds, err := s.catalog.Get(c.Request.Context(), name)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found: " + name})
				return
			}
			members = append(members, ds)
		}
	}

	batchReq := app.BatchRequest{
		Datasets:   members,
		Attributes: req.Attributes,
		Mode:       compare.Mode(req.Mode),
		Method:     compare.Method(req.Method),
		Options:    req.Options,
	}
	var pairs []app.PairResult
	var err error
	if req.Sweep == "rest" {
		pairs, err = s.batches.CompareAgainstRest(c.Request.Context(), batchReq)
	} else {
		pairs, err = s.batches.CompareAllPairs(c.Request.Context(), batchReq)
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	out := make([]BatchPairResponse, 0, len(pairs))
	for _, pair := range pairs {
		resp := BatchPairResponse{DatasetA: pair.DatasetA, DatasetB: pair.DatasetB, Result: pair.Result}
		if pair.Err != nil {
			resp.Error = pair.Err.Error()
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"pairs": out})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []ports.RunSummary{}})
		return
	}
	filters := ports.RunFilters{Dataset: c.Query("dataset")}
	if raw := c.Query("mode"); raw != "" {
		mode := compare.Mode(raw)
		filters.Mode = &mode
	}
	summaries, err := s.reader.ListRuns(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": summaries})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.reader == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	result, err := s.reader.GetRun(c.Request.Context(), core.RunID(c.Param("id")))
	if err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDeleteRun(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err := s.runs.DeleteRun(c.Request.Context(), core.RunID(c.Param("id"))); err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}
