package handlers

import (
	"fmt"
	"net/http"

	"exoml-server/core/apperr"
	"exoml-server/core/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ArtifactReader reads what training runs left on disk
type ArtifactReader interface {
	ReadMetrics(dataset string) (*models.StoredMetrics, error)
	ReadTopFeatures(dataset string) (*models.StoredTopFeatures, error)
}

// ArtifactHandler serves stored training metrics and feature rankings
type ArtifactHandler struct {
	artifacts ArtifactReader
	logger    *zap.Logger
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(artifacts ArtifactReader, logger *zap.Logger) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts, logger: logger}
}

// GetMetrics handles GET /api/metrics/{dataset}. ?model= narrows it to one model.
func (h *ArtifactHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	stored, err := h.artifacts.ReadMetrics(mux.Vars(r)["dataset"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	model := r.URL.Query().Get("model")
	if model == "" {
		writeJSON(w, http.StatusOK, stored)
		return
	}

	for _, score := range stored.Models {
		if score.Model == model {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"dataset": stored.Dataset,
				"model":   score.Model,
				"metrics": score.Metrics,
			})
			return
		}
	}
	writeError(w, h.logger, fmt.Errorf("model %q not in %s metrics: %w", model, stored.Dataset, apperr.ErrNotFound))
}

// GetTopFeatures handles GET /api/features/{dataset}
func (h *ArtifactHandler) GetTopFeatures(w http.ResponseWriter, r *http.Request) {
	stored, err := h.artifacts.ReadTopFeatures(mux.Vars(r)["dataset"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
