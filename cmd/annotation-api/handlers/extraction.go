package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/spherical-ai/annotation-engine/internal/extraction"
	"github.com/spherical-ai/annotation-engine/internal/geometry"
	"github.com/spherical-ai/annotation-engine/internal/observability"
)

// ExtractionHandler proxies word/image and region extraction calls to the
// extraction service, so browser clients only ever talk to this API.
type ExtractionHandler struct {
	logger         *observability.Logger
	client         *extraction.Client
	maxUploadBytes int64
}

// NewExtractionHandler creates a new extraction handler.
func NewExtractionHandler(logger *observability.Logger, client *extraction.Client, maxUploadBytes int64) *ExtractionHandler {
	return &ExtractionHandler{
		logger:         logger.WithComponent("extraction"),
		client:         client,
		maxUploadBytes: maxUploadBytes,
	}
}

// Extract handles POST /extract: full word/image extraction of an uploaded
// document.
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	document, filename, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	doc, err := h.client.ExtractDocument(r.Context(), document, filename)
	if err != nil {
		h.logger.Error().Err(err).Str("document", filename).Msg("Document extraction failed")
		writeError(w, http.StatusBadGateway, "extraction failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// RegionText handles POST /extract-region-text.
func (h *ExtractionHandler) RegionText(w http.ResponseWriter, r *http.Request) {
	h.region(w, r, func(document []byte, page int, bbox geometry.BBox) (interface{}, error) {
		text, err := h.client.RegionText(r.Context(), document, page, bbox)
		if err != nil {
			return nil, err
		}
		return map[string]string{"text": text}, nil
	})
}

// RegionImage handles POST /extract-region-image.
func (h *ExtractionHandler) RegionImage(w http.ResponseWriter, r *http.Request) {
	h.region(w, r, func(document []byte, page int, bbox geometry.BBox) (interface{}, error) {
		image, err := h.client.RegionImage(r.Context(), document, page, bbox)
		if err != nil {
			return nil, err
		}
		return map[string]string{"image": image}, nil
	})
}

func (h *ExtractionHandler) region(w http.ResponseWriter, r *http.Request, call func([]byte, int, geometry.BBox) (interface{}, error)) {
	document, _, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	page, err := strconv.Atoi(r.FormValue("page_number"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid page_number", r.FormValue("page_number"))
		return
	}

	var bbox geometry.BBox
	if err := json.Unmarshal([]byte(r.FormValue("bbox")), &bbox); err != nil {
		writeError(w, http.StatusBadRequest, "invalid bbox", err.Error())
		return
	}

	resp, err := call(document, page, bbox)
	if err != nil {
		writeError(w, http.StatusBadGateway, "region extraction failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ExtractionHandler) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required", err.Error())
		return nil, "", false
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read document", err.Error())
		return nil, "", false
	}

	return document, header.Filename, true
}
