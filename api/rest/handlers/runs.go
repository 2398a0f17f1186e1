package handlers

import (
	"context"
	"net/http"

	"exoml-server/core/models"
	"exoml-server/core/repository"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RunStore is the notebook run log
type RunStore interface {
	List(ctx context.Context, limit int) ([]models.RunRecord, error)
	Get(ctx context.Context, id string) (*models.RunRecord, error)
}

// RunHandler serves past notebook runs
type RunHandler struct {
	runs   RunStore
	logger *zap.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunStore, logger *zap.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: logger}
}

// ListRuns handles GET /api/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, repository.DefaultHistoryLimit)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
