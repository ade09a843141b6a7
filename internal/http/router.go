package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"medassist/internal/handlers"
	"medassist/internal/service"
	"medassist/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	AnalyzeService  service.AnalyzeService
	UploadService   service.UploadService
	DocumentService service.DocumentService

	VectorStore    vectorstore.VectorStore
	Collections    handlers.CollectionInspector // optional
	CollectionName string
	DB             handlers.Pinger       // optional
	Model          handlers.ModelChecker // optional

	MaxUploadBytes int64
	CORSOrigins    []string // empty allows any origin
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(CORS(deps.CORSOrigins))
	r.Use(LoggerMiddleware)

	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DB, deps.Model, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Method(http.MethodPost, "/analyze", handlers.NewAnalyzeHandler(deps.AnalyzeService))
			r.Method(http.MethodGet, "/history", handlers.NewHistoryHandler(deps.AnalyzeService))
			r.Method(http.MethodPost, "/clear-history", handlers.NewClearHistoryHandler(deps.AnalyzeService))
		})

		r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.UploadService, deps.MaxUploadBytes))
		r.Method(http.MethodGet, "/documents", handlers.NewDocumentsHandler(deps.DocumentService, deps.Collections, deps.CollectionName))
		r.Method(http.MethodDelete, "/documents/{id}", handlers.NewDeleteDocumentHandler(deps.DocumentService))
	})

	return r
}
