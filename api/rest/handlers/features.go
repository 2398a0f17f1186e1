package handlers

import (
	"net/http"

	"exoml-server/core/registry"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FeatureHandler serves the model feature registry
type FeatureHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(reg *registry.Registry, logger *zap.Logger) *FeatureHandler {
	return &FeatureHandler{registry: reg, logger: logger}
}

// GetModelFeatures handles GET /api/model-features/{model}
func (h *FeatureHandler) GetModelFeatures(w http.ResponseWriter, r *http.Request) {
	modelID := mux.Vars(r)["model"]

	spec, err := h.registry.Lookup(modelID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":      spec.ID,
		"model_type": spec.ModelType,
		"features":   spec.Features,
	})
}

// ListModels handles GET /api/models
func (h *FeatureHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	specs := h.registry.Models()

	list := make([]map[string]interface{}, 0, len(specs))
	for _, spec := range specs {
		list = append(list, map[string]interface{}{
			"id":            spec.ID,
			"model_type":    spec.ModelType,
			"family":        spec.Family,
			"feature_count": len(spec.Features),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": list,
		"count":  len(list),
	})
}
