// Package main provides the API router setup.
package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/annotation-engine/cmd/annotation-api/handlers"
	"github.com/spherical-ai/annotation-engine/cmd/annotation-api/middleware"
	"github.com/spherical-ai/annotation-engine/internal/cache"
	"github.com/spherical-ai/annotation-engine/internal/config"
	"github.com/spherical-ai/annotation-engine/internal/extraction"
	"github.com/spherical-ai/annotation-engine/internal/observability"
	"github.com/spherical-ai/annotation-engine/internal/storage"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, db *sql.DB, cacheClient cache.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"annotation-engine"}`))
	})

	extractor := extraction.NewClient(extraction.ClientConfig{
		BaseURL:  cfg.Extraction.BaseURL,
		Timeout:  cfg.Extraction.Timeout,
		Cache:    cacheClient,
		CacheTTL: cfg.Cache.TTL,
	}, logger)

	templates := storage.NewTemplateRepository(db)

	templateHandler := handlers.NewTemplateHandler(logger, templates, cfg.Server.MaxUploadBytes)
	extractionHandler := handlers.NewExtractionHandler(logger, extractor, cfg.Server.MaxUploadBytes)
	modelsHandler := handlers.NewModelsHandler(cfg.Export)

	r.Post("/extract", extractionHandler.Extract)
	r.Post("/extract-region-text", extractionHandler.RegionText)
	r.Post("/extract-region-image", extractionHandler.RegionImage)

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", templateHandler.Save)
		r.Get("/", templateHandler.List)
		r.Get("/{name}", templateHandler.Load)
		r.Delete("/{name}", templateHandler.Delete)
	})

	r.Get("/models", modelsHandler.List)

	return r
}
