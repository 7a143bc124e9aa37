package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/infrastructure/api/middleware"
	"github.com/docdexhq/docdex/infrastructure/api/v1/dto"
	"github.com/docdexhq/docdex/internal/log"
)

// SearchRouter handles ranked search requests.
type SearchRouter struct {
	client *docdex.Client
	logger *log.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *docdex.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Search)
	return router
}

// Search handles POST /api/v1/search. An empty collection field fans
// the query out over every registered collection.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if body.Limit < 0 {
		middleware.WriteBadRequest(w, "limit must not be negative")
		return
	}

	target := body.Collection
	if target == "" {
		target = docdex.TargetAll
	}

	resp, err := r.client.Search.Search(req.Context(), target, body.Query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if body.Limit > 0 && body.Limit < len(resp.Results) {
		resp.Results = resp.Results[:body.Limit]
	}

	out := dto.SearchResponse{
		Results:     make([]dto.SearchResult, len(resp.Results)),
		Diagnostics: resp.Diagnostics,
	}
	for i, res := range resp.Results {
		out.Results[i] = dto.SearchResult{
			Collection: res.Collection(),
			Source:     res.Source(),
			Chunk:      res.Chunk(),
			Score:      res.Score(),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}
