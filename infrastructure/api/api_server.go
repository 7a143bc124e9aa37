package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docdexhq/docdex"
	apimiddleware "github.com/docdexhq/docdex/infrastructure/api/middleware"
	v1 "github.com/docdexhq/docdex/infrastructure/api/v1"
	"github.com/docdexhq/docdex/internal/log"
)

// APIServer provides an HTTP API backed by a docdex Client.
type APIServer struct {
	client *docdex.Client
	auth   apimiddleware.AuthConfig
	server *Server
	router chi.Router
	logger *log.Logger
}

// NewAPIServer creates a new APIServer wired to the given docdex Client.
// apiKeys configures X-API-KEY protection for every /api/v1 route; an
// empty slice leaves the API open. Health probes are never protected.
func NewAPIServer(client *docdex.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client: client,
		auth:   apimiddleware.NewAuthConfig(apiKeys),
		logger: client.Logger(),
	}
}

// Handler returns the fully wired router as an http.Handler.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}

// mountRoutes wires up the v1 API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY", "X-Correlation-ID"},
		MaxAge:         300,
	}))
	router.Use(apimiddleware.Logging(a.logger))

	// Liveness probe: the process is up, no dependency checks.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	c := a.client
	collectionsRouter := v1.NewCollectionsRouter(c)
	searchRouter := v1.NewSearchRouter(c)
	healthRouter := v1.NewHealthRouter(c)

	// Readiness probe stays open so load balancers can reach it.
	router.Mount("/health", healthRouter.Routes())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/health", healthRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.APIKey(a.auth))
			r.Mount("/collections", collectionsRouter.Routes())
			r.Mount("/search", searchRouter.Routes())
		})
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.router = server.Router()
		a.mountRoutes(a.router)
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
