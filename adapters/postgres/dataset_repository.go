package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/ports"
)

// datasetPayload is the JSON column holding the table and record content
type datasetPayload struct {
	Attributes []*dataset.AttributeTable `json:"attributes"`
	Records    *dataset.RecordTable      `json:"records,omitempty"`
}

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

// Create inserts a new dataset into the database
func (r *datasetRepository) Create(ctx context.Context, ds *dataset.Dataset) error {
	payloadJSON, err := json.Marshal(datasetPayload{Attributes: ds.Attributes, Records: ds.Records})
	if err != nil {
		return fmt.Errorf("failed to marshal dataset payload: %w", err)
	}

	query := `INSERT INTO datasets (
		id, name, display_name, source_kind, source_path, file_size,
		status, fingerprint, payload, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)`

	_, err = r.db.ExecContext(ctx, query,
		ds.ID, ds.Name, ds.DisplayName, ds.Source.Kind, ds.Source.Path, ds.Source.FileSize,
		ds.Status, ds.Fingerprint, payloadJSON, ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// GetByID retrieves a dataset by its ID
func (r *datasetRepository) GetByID(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	query := selectDataset + ` WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	ds, err := scanDataset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// GetByName retrieves a dataset by its unique name
func (r *datasetRepository) GetByName(ctx context.Context, name string) (*dataset.Dataset, error) {
	query := selectDataset + ` WHERE name = $1`
	row := r.db.QueryRowContext(ctx, query, name)
	ds, err := scanDataset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, name)
		}
		return nil, fmt.Errorf("failed to get dataset by name: %w", err)
	}
	return ds, nil
}

// List retrieves datasets with pagination, newest first
func (r *datasetRepository) List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	query := selectDataset + ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

// Update modifies an existing dataset
func (r *datasetRepository) Update(ctx context.Context, ds *dataset.Dataset) error {
	payloadJSON, err := json.Marshal(datasetPayload{Attributes: ds.Attributes, Records: ds.Records})
	if err != nil {
		return fmt.Errorf("failed to marshal dataset payload: %w", err)
	}

	query := `UPDATE datasets SET
		name = $2, display_name = $3, source_kind = $4, source_path = $5,
		file_size = $6, status = $7, fingerprint = $8, payload = $9, updated_at = NOW()
	WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		ds.ID, ds.Name, ds.DisplayName, ds.Source.Kind, ds.Source.Path,
		ds.Source.FileSize, ds.Status, ds.Fingerprint, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	return requireRow(result, string(ds.ID))
}

// Delete removes a dataset from the database
func (r *datasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return requireRow(result, string(id))
}

// ListByStatus retrieves datasets by processing status
func (r *datasetRepository) ListByStatus(ctx context.Context, status dataset.DatasetStatus) ([]*dataset.Dataset, error) {
	query := selectDataset + ` WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets by status: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

// UpdateStatus updates only the status and error message of a dataset
func (r *datasetRepository) UpdateStatus(ctx context.Context, id core.DatasetID, status dataset.DatasetStatus, errorMsg string) error {
	query := `UPDATE datasets SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to update dataset status: %w", err)
	}
	return requireRow(result, string(id))
}

const selectDataset = `SELECT
	id, name, COALESCE(display_name, '') as display_name,
	source_kind, COALESCE(source_path, '') as source_path, COALESCE(file_size, 0) as file_size,
	status, COALESCE(fingerprint, '') as fingerprint, payload, created_at, updated_at
FROM datasets`

// rowScanner lets one scan helper serve QueryRow and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*dataset.Dataset, error) {
	var ds dataset.Dataset
	var payloadJSON []byte
	err := row.Scan(
		&ds.ID, &ds.Name, &ds.DisplayName,
		&ds.Source.Kind, &ds.Source.Path, &ds.Source.FileSize,
		&ds.Status, &ds.Fingerprint, &payloadJSON, &ds.CreatedAt, &ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payloadJSON) > 0 {
		var payload datasetPayload
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dataset payload: %w", err)
		}
		ds.Attributes = payload.Attributes
		ds.Records = payload.Records
	}
	return &ds, nil
}

func scanDatasets(rows *sql.Rows) ([]*dataset.Dataset, error) {
	var datasets []*dataset.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	return nil
}
