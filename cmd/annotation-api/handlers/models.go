package handlers

import (
	"net/http"

	"github.com/spherical-ai/annotation-engine/internal/config"
)

// ModelsHandler serves the chat and vision model names clients may select.
type ModelsHandler struct {
	cfg config.ExportConfig
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(cfg config.ExportConfig) *ModelsHandler {
	return &ModelsHandler{cfg: cfg}
}

// ModelsDTO is the response for the model listing.
type ModelsDTO struct {
	ChatModels   []string `json:"chatModels"`
	VisionModels []string `json:"visionModels"`
}

// List handles GET /models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelsDTO{
		ChatModels:   h.cfg.ChatModels,
		VisionModels: h.cfg.VisionModels,
	})
}
