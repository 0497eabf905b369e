package container

import (
	"context"
	"fmt"
	"strings"

	"gojsd/adapters/excel"
	"gojsd/adapters/postgres"
	"gojsd/app"
	"gojsd/internal"
	"gojsd/internal/config"
	"gojsd/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	DatasetRepo ports.DatasetRepository
	RunRepo     ports.RunRepository
	Reader      ports.ReaderPort

	// Loading and services
	Loader      ports.DatasetLoader
	Catalog     *app.CatalogService
	Comparisons *app.ComparisonService
	Batches     *app.BatchService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DatasetRepo = postgres.NewDatasetRepository(db)
	c.RunRepo = postgres.NewRunRepository(db)
	c.Reader = postgres.NewReader(db)

	c.initServices()
	c.Logger.Info("Container initialized with database connection")
	return nil
}

// InitFileOnly initializes the container without persistence. Datasets
// come from files and comparison results are not stored.
func (c *Container) InitFileOnly() {
	c.initServices()
	c.Logger.Info("Container initialized in file-only mode")
}

func (c *Container) initServices() {
	c.Loader = excel.NewLoader(c.Logger)
	c.Catalog = app.NewCatalogService(c.Loader, c.DatasetRepo, c.Logger)
	c.Comparisons = app.NewComparisonService(c.RunRepo, c.Logger)
	c.Batches = app.NewBatchService(c.Comparisons, c.Logger, c.Config.Compare.Parallelism)
}

// LoadSources loads every dataset named in the configured source
// manifest into the catalog. Individual source failures are logged and
// skipped so one bad file does not block startup.
func (c *Container) LoadSources(ctx context.Context) error {
	if c.Config.Paths.SourcesFile == "" {
		return nil
	}

	manifest, err := config.LoadManifest(c.Config.Paths.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load source manifest: %w", err)
	}

	loaded := 0
	for _, src := range manifest.Sources {
		if err := c.loadSource(ctx, src); err != nil {
			c.Logger.Warn("Skipping source %s: %v", src.Name, err)
			continue
		}
		loaded++
	}
	c.Logger.Info("Loaded %d of %d sources from manifest", loaded, len(manifest.Sources))
	return nil
}

func (c *Container) loadSource(ctx context.Context, src config.SourceSpec) error {
	kind := src.Kind
	if kind == "" {
		// Workbooks are sheet-per-attribute xlsx files, everything
		// else is treated as row-per-observation records
		if strings.HasSuffix(strings.ToLower(src.Path), ".xlsx") {
			kind = "workbook"
		} else {
			kind = "records"
		}
	}

	switch kind {
	case "workbook":
		_, err := c.Catalog.LoadWorkbook(ctx, src.Path, ports.WorkbookOptions{
			Name:             src.Name,
			DateColumn:       src.DateColumn,
			CategoryRemap:    src.Remap,
			EnsureCategories: src.EnsureCategories,
		})
		return err
	case "records":
		_, err := c.Catalog.LoadRecords(ctx, src.Path, ports.RecordOptions{
			Name:           src.Name,
			DateColumn:     src.DateColumn,
			NumericColumns: src.NumericColumns,
		})
		return err
	default:
		return fmt.Errorf("unknown source kind %q", kind)
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
