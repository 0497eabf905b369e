package ports

import (
	"context"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// DatasetRepository defines the interface for dataset storage operations
type DatasetRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, ds *dataset.Dataset) error
	GetByID(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error)
	GetByName(ctx context.Context, name string) (*dataset.Dataset, error)
	List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error)
	Update(ctx context.Context, ds *dataset.Dataset) error
	Delete(ctx context.Context, id core.DatasetID) error

	// Special queries
	ListByStatus(ctx context.Context, status dataset.DatasetStatus) ([]*dataset.Dataset, error)

	// Bulk operations
	UpdateStatus(ctx context.Context, id core.DatasetID, status dataset.DatasetStatus, errorMsg string) error
}
