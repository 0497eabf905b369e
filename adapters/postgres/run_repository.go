package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/ports"
)

// runRepository implements the RunRepository interface
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new comparison run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// SaveRun persists one comparison result. The full result is the JSON
// payload; listing columns are denormalized for cheap queries.
func (r *runRepository) SaveRun(ctx context.Context, result *compare.ComparisonResult) error {
	payloadJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison result: %w", err)
	}

	query := `INSERT INTO comparison_runs (
		id, dataset_a, dataset_b, dataset_a_name, dataset_b_name,
		mode, succeeded, attribute_count, payload, started_at, runtime_ms
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)`

	_, err = r.db.ExecContext(ctx, query,
		result.RunID, result.DatasetA, result.DatasetB, result.DatasetAName, result.DatasetBName,
		result.Mode, result.Succeeded(), len(result.Entries), payloadJSON, result.StartedAt, result.RuntimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to save comparison run: %w", err)
	}
	return nil
}

// GetRun retrieves one stored comparison result
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*compare.ComparisonResult, error) {
	var payloadJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM comparison_runs WHERE id = $1`, id,
	).Scan(&payloadJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get comparison run: %w", err)
	}

	var result compare.ComparisonResult
	if err := json.Unmarshal(payloadJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison result: %w", err)
	}
	return &result, nil
}

// ListRuns retrieves run summaries newest first, optionally filtered by mode
// and by dataset name on either side
func (r *runRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	mode := ""
	if filters.Mode != nil {
		mode = string(*filters.Mode)
	}

	query := `SELECT
		id, dataset_a_name, dataset_b_name, mode, attribute_count, succeeded, started_at, runtime_ms
	FROM comparison_runs
	WHERE ($1 = '' OR mode = $1)
	  AND ($2 = '' OR dataset_a_name = $2 OR dataset_b_name = $2)
	ORDER BY started_at DESC
	LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, mode, filters.Dataset, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison runs: %w", err)
	}
	defer rows.Close()

	var summaries []ports.RunSummary
	for rows.Next() {
		var s ports.RunSummary
		var startedAt time.Time
		if err := rows.Scan(
			&s.ID, &s.DatasetA, &s.DatasetB, &s.Mode, &s.Attributes, &s.Succeeded, &startedAt, &s.RuntimeMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.StartedAt = core.NewTimestamp(startedAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteRun removes a stored run
func (r *runRepository) DeleteRun(ctx context.Context, id core.RunID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comparison_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comparison run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return nil
}
