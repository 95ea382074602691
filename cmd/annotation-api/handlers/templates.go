// Package handlers provides HTTP handlers for the annotation engine API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/annotation-engine/internal/observability"
	"github.com/spherical-ai/annotation-engine/internal/storage"
)

// TemplateHandler handles template save, load and listing.
type TemplateHandler struct {
	logger         *observability.Logger
	templates      *storage.TemplateRepository
	maxUploadBytes int64
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(logger *observability.Logger, templates *storage.TemplateRepository, maxUploadBytes int64) *TemplateHandler {
	return &TemplateHandler{
		logger:         logger.WithComponent("templates"),
		templates:      templates,
		maxUploadBytes: maxUploadBytes,
	}
}

// templateBlob is the subset of the uploaded template JSON the handler needs
// for validation and listing.
type templateBlob struct {
	Document        string          `json:"document"`
	AnnotationBoxes json.RawMessage `json:"annotationBoxes"`
}

// LoadedTemplateDTO is the response for loading a template by name.
type LoadedTemplateDTO struct {
	SourcePDF       []byte          `json:"source_pdf"`
	Document        string          `json:"document"`
	AnnotationBoxes json.RawMessage `json:"annotationBoxes"`
}

// Save handles POST /templates: multipart with a "template" JSON field, a
// "name" field and the source document as "file".
func (h *TemplateHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	name := r.FormValue("name")
	tplJSON := r.FormValue("template")
	if name == "" || tplJSON == "" {
		writeError(w, http.StatusBadRequest, "name and template are required", "")
		return
	}

	var blob templateBlob
	if err := json.Unmarshal([]byte(tplJSON), &blob); err != nil {
		writeError(w, http.StatusBadRequest, "invalid template JSON", err.Error())
		return
	}

	var sourcePDF []byte
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		sourcePDF, err = io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read source document", err.Error())
			return
		}
	}

	record := &storage.TemplateRecord{
		Name:      name,
		Document:  blob.Document,
		Template:  json.RawMessage(tplJSON),
		SourcePDF: sourcePDF,
	}
	if err := h.templates.Save(ctx, record); err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Template save failed")
		writeError(w, http.StatusInternalServerError, "save template", err.Error())
		return
	}

	h.logger.Info().Str("name", name).Str("document", blob.Document).Msg("Template saved")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Load handles GET /templates/{name}.
func (h *TemplateHandler) Load(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	record, err := h.templates.GetByName(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "template not found", name)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load template", err.Error())
		return
	}

	var blob templateBlob
	if err := json.Unmarshal(record.Template, &blob); err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt template record", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LoadedTemplateDTO{
		SourcePDF:       record.SourcePDF,
		Document:        record.Document,
		AnnotationBoxes: blob.AnnotationBoxes,
	})
}

// List handles GET /templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.templates.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list templates", err.Error())
		return
	}
	if summaries == nil {
		summaries = []storage.TemplateSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Delete handles DELETE /templates/{name}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.templates.Delete(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "template not found", name)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete template", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
