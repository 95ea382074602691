package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/annotation-engine/internal/config"
	"github.com/spherical-ai/annotation-engine/internal/observability"
	"github.com/spherical-ai/annotation-engine/internal/storage"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := storage.Open(config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: ":memory:", MaxOpenConns: 1},
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewTemplateHandler(observability.NopLogger(), storage.NewTemplateRepository(db), 32<<20)

	r := chi.NewRouter()
	r.Route("/templates", func(r chi.Router) {
		r.Post("/", h.Save)
		r.Get("/", h.List)
		r.Get("/{name}", h.Load)
		r.Delete("/{name}", h.Delete)
	})
	return r
}

func saveRequest(t *testing.T, name, template string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", name))
	require.NoError(t, w.WriteField("template", template))
	part, err := w.CreateFormFile("file", name+".pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/templates", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const sampleTemplate = `{
	"document": "invoice.pdf",
	"exportDate": "2026-08-31T10:00:00Z",
	"annotationBoxes": [
		{"id": "word-1-0", "x": 10, "y": 10, "width": 40, "height": 12, "page": 1, "type": "word",
		 "settings": {"canMatchExactly": true, "mustMatchExactly": true, "positionIsNotGuaranteed": false}}
	]
}`

func TestTemplateHandler_SaveAndLoad(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, saveRequest(t, "invoice-v1", sampleTemplate))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates/invoice-v1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded LoadedTemplateDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "invoice.pdf", loaded.Document)
	assert.Equal(t, []byte("%PDF-1.7"), loaded.SourcePDF)
	assert.Contains(t, string(loaded.AnnotationBoxes), "word-1-0")
}

func TestTemplateHandler_Save_Validation(t *testing.T) {
	router := testRouter(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "incomplete"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/templates", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplateHandler_List(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "empty store lists as an empty array, not null")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, saveRequest(t, "invoice-v1", sampleTemplate))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []storage.TemplateSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "invoice-v1", summaries[0].Name)
}

func TestTemplateHandler_Delete(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, saveRequest(t, "invoice-v1", sampleTemplate))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/templates/invoice-v1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/templates/invoice-v1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/templates/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
