package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/covercraft/docrag/internal/api"
	"github.com/covercraft/docrag/internal/api/handlers"
	"github.com/covercraft/docrag/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	// Health has no downstream dependency: it succeeds whenever the
	// process is up.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/process-document", cfg.DocumentHandler.ProcessDocument)
	r.Post("/query-document", cfg.DocumentHandler.QueryDocument)
	r.Delete("/passages", cfg.DocumentHandler.DeletePassages)

	return r
}
