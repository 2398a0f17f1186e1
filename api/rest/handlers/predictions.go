package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"exoml-server/core/apperr"
	"exoml-server/core/models"
	"exoml-server/core/monitoring"
	"exoml-server/core/predictor"
	"exoml-server/core/repository"

	"go.uber.org/zap"
)

// PredictionStore is the prediction history
type PredictionStore interface {
	Record(ctx context.Context, rec *models.PredictionRecord) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	ClearAll(ctx context.Context) (int64, error)
}

// PredictionHandler scores feature vectors and serves the history
type PredictionHandler struct {
	engine  *predictor.Engine
	history PredictionStore
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewPredictionHandler creates a new prediction handler. metrics may be nil.
func NewPredictionHandler(
	engine *predictor.Engine,
	history PredictionStore,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *PredictionHandler {
	return &PredictionHandler{
		engine:  engine,
		history: history,
		metrics: metrics,
		logger:  logger,
	}
}

// PredictRequest represents the body of POST /api/predict
type PredictRequest struct {
	Model    string         `json:"model"`
	Dataset  string         `json:"dataset"`
	Features map[string]any `json:"features"`
}

// PredictResponse represents the result of a prediction
type PredictResponse struct {
	Success      bool               `json:"success"`
	Probability  float64            `json:"probability"`
	Label        models.Label       `json:"label"`
	Raw          models.Explanation `json:"raw"`
	Model        string             `json:"model"`
	Dataset      string             `json:"dataset"`
	FeaturesUsed []string           `json:"features_used"`
	HistoryID    int64              `json:"history_id,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Predict handles POST /api/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		writeError(w, h.logger, fmt.Errorf("model is required: %w", apperr.ErrInvalidInput))
		return
	}
	if req.Dataset == "" {
		req.Dataset = req.Model
	}

	pred, err := h.engine.Predict(req.Model, req.Features)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObservePrediction(req.Model, pred.Label)
	}

	resp := PredictResponse{
		Success:      pred.Label != models.LabelPredictErr,
		Probability:  pred.Probability,
		Label:        pred.Label,
		Raw:          pred.Explanation,
		Model:        req.Model,
		Dataset:      req.Dataset,
		FeaturesUsed: pred.FeaturesUsed,
		Error:        pred.Explanation.Error,
	}

	features := req.Features
	if features == nil {
		features = map[string]any{}
	}
	explanation := pred.Explanation
	rec := &models.PredictionRecord{
		Dataset:     req.Dataset,
		Model:       req.Model,
		Features:    features,
		Probability: pred.Probability,
		Label:       pred.Label,
		Raw:         &explanation,
	}
	// a history failure does not cost the caller their prediction
	if id, err := h.history.Record(context.WithoutCancel(r.Context()), rec); err != nil {
		h.logger.Error("failed to record prediction",
			zap.String("model", req.Model),
			zap.String("dataset", req.Dataset),
			zap.Error(err))
	} else {
		resp.HistoryID = id
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

// ListPredictions handles GET /api/predictions
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, repository.DefaultHistoryLimit)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

// ClearPredictions handles DELETE /api/predictions
func (h *PredictionHandler) ClearPredictions(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.history.ClearAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("prediction history cleared", zap.Int64("deleted", deleted))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}
