package handlers

import (
	"context"
	"net/http"
	"time"

	"exoml-server/core/models"

	"go.uber.org/zap"
)

// Pinger reports database connectivity
type Pinger interface {
	Status(ctx context.Context) string
}

// DashboardHandler serves health and the summary shown on the front page
type DashboardHandler struct {
	db          Pinger
	history     PredictionStore
	runs        RunStore
	environment string
	logger      *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	db Pinger,
	history PredictionStore,
	runs RunStore,
	environment string,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		db:          db,
		history:     history,
		runs:        runs,
		environment: environment,
		logger:      logger,
	}
}

// Health handles GET /api/health
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := h.db.Status(ctx)
	status := "healthy"
	if database != "connected" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"database":    database,
		"environment": h.environment,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Summary handles GET /api/dashboard: label counts over recent predictions
// and the latest runs.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, 100)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	runs, err := h.runs.List(r.Context(), 5)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": summarizePredictions(records),
		"recent_runs": runs,
	})
}

func summarizePredictions(records []models.PredictionRecord) map[string]interface{} {
	labels := map[models.Label]int{
		models.LabelConfirmed: 0,
		models.LabelCandidate: 0,
		models.LabelNotAMatch: 0,
	}
	byModel := map[string]int{}
	total := 0.0
	scored := 0

	for _, rec := range records {
		labels[rec.Label]++
		byModel[rec.Model]++
		if rec.Label != models.LabelPredictErr {
			total += rec.Probability
			scored++
		}
	}

	avg := 0.0
	if scored > 0 {
		avg = total / float64(scored)
	}

	return map[string]interface{}{
		"count":               len(records),
		"by_label":            labels,
		"by_model":            byModel,
		"average_probability": avg,
	}
}
