package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"exoml-server/core/apperr"
	"exoml-server/core/jobs"

	"go.uber.org/zap"
)

// NotebookHandler triggers notebook runs
type NotebookHandler struct {
	service *jobs.Service
	logger  *zap.Logger
}

// NewNotebookHandler creates a new notebook handler
func NewNotebookHandler(service *jobs.Service, logger *zap.Logger) *NotebookHandler {
	return &NotebookHandler{service: service, logger: logger}
}

// RunNotebookRequest represents the body of POST /api/run-notebook
type RunNotebookRequest struct {
	Notebook string `json:"notebook"`
}

// RunNotebook handles POST /api/run-notebook.
// The response body is the execution report; its success flag picks 200 or 500.
func (h *NotebookHandler) RunNotebook(w http.ResponseWriter, r *http.Request) {
	var req RunNotebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Notebook = strings.TrimSpace(req.Notebook)
	if req.Notebook == "" {
		writeError(w, h.logger, fmt.Errorf("notebook is required: %w", apperr.ErrInvalidInput))
		return
	}

	outcome, err := h.service.RunNotebook(r.Context(), req.Notebook)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if outcome.RunID != "" {
		w.Header().Set("X-Run-ID", outcome.RunID)
	}

	status := http.StatusOK
	if !outcome.Report.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, outcome.Report)
}

// ListNotebooks handles GET /api/notebooks
func (h *NotebookHandler) ListNotebooks(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListNotebooks()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notebooks": names,
		"count":     len(names),
	})
}
