package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/infrastructure/api/middleware"
	"github.com/docdexhq/docdex/infrastructure/api/v1/dto"
)

// HealthRouter reports readiness of the registry database and the
// vector store.
type HealthRouter struct {
	client *docdex.Client
}

// NewHealthRouter creates a new HealthRouter.
func NewHealthRouter(client *docdex.Client) *HealthRouter {
	return &HealthRouter{client: client}
}

// Routes returns the chi router for health endpoints.
func (r *HealthRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.Health)
	return router
}

// Health handles GET /api/v1/health. A degraded dependency yields 503
// so load balancers can pull the instance.
func (r *HealthRouter) Health(w http.ResponseWriter, req *http.Request) {
	health := r.client.Collections.Health(req.Context())

	body := dto.HealthResponse{
		Status:      "ok",
		Registry:    health.RegistryOK,
		VectorStore: health.VectorStoreOK,
	}
	status := http.StatusOK
	if !health.OK() {
		body.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	middleware.WriteJSON(w, status, body)
}
