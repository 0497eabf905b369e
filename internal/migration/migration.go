package migration

import (
	"context"
	"fmt"

	"gojsd/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createDatasetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create datasets table")
	}

	if err := r.createComparisonRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create comparison_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createDatasetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			id UUID PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			display_name VARCHAR(255),
			source_kind VARCHAR(50) NOT NULL DEFAULT 'synthetic',
			source_path TEXT,
			file_size BIGINT,
			status VARCHAR(50) NOT NULL DEFAULT 'processing',
			error_message TEXT,
			fingerprint VARCHAR(64),
			payload JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createComparisonRunsTable(ctx context.Context, db *sqlx.DB) error {
	// dataset_a and dataset_b deliberately carry no foreign key: runs can
	// compare datasets loaded straight from files that were never persisted
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comparison_runs (
			id UUID PRIMARY KEY,
			dataset_a UUID NOT NULL,
			dataset_b UUID NOT NULL,
			dataset_a_name VARCHAR(255) NOT NULL,
			dataset_b_name VARCHAR(255) NOT NULL,
			mode VARCHAR(20) NOT NULL,
			succeeded BOOLEAN NOT NULL DEFAULT false,
			attribute_count INTEGER NOT NULL DEFAULT 0,
			payload JSONB NOT NULL,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			runtime_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		// Dataset indexes
		"CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name)",
		"CREATE INDEX IF NOT EXISTS idx_datasets_status ON datasets(status)",
		"CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC)",

		// Comparison run indexes
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON comparison_runs(started_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_mode ON comparison_runs(mode)",
		"CREATE INDEX IF NOT EXISTS idx_runs_dataset_a_name ON comparison_runs(dataset_a_name)",
		"CREATE INDEX IF NOT EXISTS idx_runs_dataset_b_name ON comparison_runs(dataset_b_name)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
