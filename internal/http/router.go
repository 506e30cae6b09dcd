package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kbqa/internal/handlers"
	"kbqa/internal/rag"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine       rag.Engine
	Ingester     handlers.DocumentIngester
	Deleter      handlers.DocumentDeleter
	HealthChecks map[string]handlers.HealthCheck
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.CORSOrigins))

	askHandler := handlers.NewAskHandler(deps.Engine)
	documentsHandler := handlers.NewDocumentsHandler(deps.Ingester, deps.Deleter)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1/kb/{kbID}", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Post("/documents", documentsHandler.Ingest)
			r.Delete("/documents/{sourceID}", documentsHandler.Delete)
		})
	})

	return r
}
