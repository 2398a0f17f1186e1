package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exoml-server/core/apperr"
	"exoml-server/core/models"

	"github.com/google/uuid"
)

// RunRepository keeps the log of notebook executions
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record stores a finished run's report and returns the new run id
func (r *RunRepository) Record(ctx context.Context, report *models.ExecutionReport) (*models.RunRecord, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	rec := &models.RunRecord{
		ID:                   uuid.New().String(),
		Notebook:             report.JobIdentifier,
		Dataset:              report.DatasetTag,
		Success:              report.Success,
		ExecutionTimeSeconds: report.ExecutionTimeSeconds,
		Report:               report,
		CreatedAt:            time.Now().UTC(),
	}

	var errorType sql.NullString
	if report.ErrorDetails != nil {
		rec.ErrorType = report.ErrorDetails.ErrorType
		errorType = sql.NullString{String: rec.ErrorType, Valid: true}
	}

	query := r.db.Rebind(`
		INSERT INTO notebook_runs (id, notebook, dataset, success, error_type, execution_time_seconds, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	r.db.writeMu.Lock()
	defer r.db.writeMu.Unlock()

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Notebook,
		rec.Dataset,
		rec.Success,
		errorType,
		rec.ExecutionTimeSeconds,
		string(body),
		rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return rec, nil
}

// List returns up to limit runs without their full reports, most recent first
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := r.db.Rebind(`
		SELECT id, notebook, dataset, success, error_type, execution_time_seconds, created_at
		FROM notebook_runs
		ORDER BY seq DESC
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunRecord{}
	for rows.Next() {
		var (
			run       models.RunRecord
			errorType sql.NullString
			createdAt timeValue
		)
		if err := rows.Scan(
			&run.ID,
			&run.Notebook,
			&run.Dataset,
			&run.Success,
			&errorType,
			&run.ExecutionTimeSeconds,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.ErrorType = errorType.String
		run.CreatedAt = createdAt.Time
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its full report
func (r *RunRepository) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	query := r.db.Rebind(`
		SELECT id, notebook, dataset, success, error_type, execution_time_seconds, report, created_at
		FROM notebook_runs
		WHERE id = ?
	`)

	var (
		run       models.RunRecord
		errorType sql.NullString
		body      string
		createdAt timeValue
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Notebook,
		&run.Dataset,
		&run.Success,
		&errorType,
		&run.ExecutionTimeSeconds,
		&body,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.ErrorType = errorType.String
	run.CreatedAt = createdAt.Time
	run.Report = &models.ExecutionReport{}
	if err := json.Unmarshal([]byte(body), run.Report); err != nil {
		return nil, fmt.Errorf("run %s: bad report column: %w", id, err)
	}
	return &run, nil
}
