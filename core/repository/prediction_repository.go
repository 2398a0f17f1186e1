package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"exoml-server/core/models"
)

// DefaultHistoryLimit is used when Recent is called without a positive limit
const DefaultHistoryLimit = 50

// PredictionRepository is the append-only prediction history
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Record appends a prediction and returns its id. CreatedAt is set if zero.
func (r *PredictionRepository) Record(ctx context.Context, rec *models.PredictionRecord) (int64, error) {
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return 0, fmt.Errorf("failed to encode features: %w", err)
	}

	var raw sql.NullString
	if rec.Raw != nil {
		b, err := json.Marshal(rec.Raw)
		if err != nil {
			return 0, fmt.Errorf("failed to encode explanation: %w", err)
		}
		raw = sql.NullString{String: string(b), Valid: true}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO predictions (dataset, model, features, probability, label, raw_output, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	r.db.writeMu.Lock()
	defer r.db.writeMu.Unlock()

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		rec.Dataset,
		rec.Model,
		string(features),
		rec.Probability,
		string(rec.Label),
		raw,
		rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}

	rec.ID = id
	return id, nil
}

// Recent returns up to limit predictions, most recent first
func (r *PredictionRepository) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := r.db.Rebind(`
		SELECT id, dataset, model, features, probability, label, raw_output, created_at
		FROM predictions
		ORDER BY id DESC
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	records := []models.PredictionRecord{}
	for rows.Next() {
		var (
			rec       models.PredictionRecord
			features  string
			label     string
			raw       sql.NullString
			createdAt timeValue
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Dataset,
			&rec.Model,
			&features,
			&rec.Probability,
			&label,
			&raw,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		rec.Label = models.Label(label)
		rec.CreatedAt = createdAt.Time
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, fmt.Errorf("prediction %d: bad features column: %w", rec.ID, err)
		}
		if raw.Valid && raw.String != "" {
			rec.Raw = &models.Explanation{}
			if err := json.Unmarshal([]byte(raw.String), rec.Raw); err != nil {
				return nil, fmt.Errorf("prediction %d: bad raw_output column: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}

	return records, nil
}

// ClearAll deletes the whole history and returns how many rows went
func (r *PredictionRepository) ClearAll(ctx context.Context) (int64, error) {
	r.db.writeMu.Lock()
	defer r.db.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM predictions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear predictions: %w", err)
	}
	return res.RowsAffected()
}
