package server

import (
	"net/http"

	"github.com/codeshield-ai/codeshield/internal/api"
	"github.com/codeshield-ai/codeshield/internal/api/handlers"
	"github.com/codeshield-ai/codeshield/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// RouterConfig wires handlers into the router. GitHubHandler and
// ChunkHandler are optional; their routes are registered only when the
// corresponding backend (token, database) is configured.
type RouterConfig struct {
	UploadHandler  *handlers.UploadHandler
	QueryHandler   *handlers.QueryHandler
	AnalyzeHandler *handlers.AnalyzeHandler
	GitHubHandler  *handlers.GitHubHandler
	ChunkHandler   *handlers.ChunkHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 20 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/upload", cfg.UploadHandler.Upload)
	r.Post("/query", cfg.QueryHandler.Query)
	r.Post("/analyze", cfg.AnalyzeHandler.Analyze)

	if cfg.GitHubHandler != nil {
		r.Route("/github", func(r chi.Router) {
			r.Get("/tree", cfg.GitHubHandler.Tree)
			r.Post("/ingest", cfg.GitHubHandler.Ingest)
			r.Post("/analyze", cfg.GitHubHandler.Analyze)
		})
	}

	if cfg.ChunkHandler != nil {
		r.Route("/chunks", func(r chi.Router) {
			r.Get("/", cfg.ChunkHandler.List)
			r.Get("/{id}", cfg.ChunkHandler.Get)
			r.Delete("/", cfg.ChunkHandler.DeleteBySource)
		})
	}

	return r
}
