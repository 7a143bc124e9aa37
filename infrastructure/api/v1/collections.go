// Package v1 implements the versioned HTTP API routers.
package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/document"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/infrastructure/api/middleware"
	"github.com/docdexhq/docdex/infrastructure/api/v1/dto"
	"github.com/docdexhq/docdex/internal/log"
)

// maxUploadBytes caps multipart document uploads.
const maxUploadBytes = 64 << 20 // 64 MiB

// defaultSampleLimit caps GET points inspection responses.
const defaultSampleLimit = 20

// CollectionsRouter handles collection lifecycle and document endpoints.
type CollectionsRouter struct {
	client *docdex.Client
	logger *log.Logger
}

// NewCollectionsRouter creates a new CollectionsRouter.
func NewCollectionsRouter(client *docdex.Client) *CollectionsRouter {
	return &CollectionsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for collection endpoints.
func (r *CollectionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Route("/{name}", func(router chi.Router) {
		router.Get("/", r.Get)
		router.Delete("/", r.Delete)
		router.Post("/reset", r.Reset)
		router.Post("/clear", r.Clear)
		router.Get("/points", r.Points)
		router.Get("/documents", r.Documents)
		router.Post("/documents", r.Upload)
	})

	return router
}

// List handles GET /api/v1/collections.
func (r *CollectionsRouter) List(w http.ResponseWriter, req *http.Request) {
	collections, err := r.client.Collections.List(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	body := dto.CollectionListResponse{
		Collections: make([]dto.CollectionResponse, len(collections)),
	}
	for i, c := range collections {
		body.Collections[i] = collectionToDTO(c)
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// Create handles POST /api/v1/collections.
func (r *CollectionsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.CreateCollectionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		middleware.WriteBadRequest(w, "collection name is required")
		return
	}

	created, err := r.client.Collections.Create(req.Context(), body.Name, body.Description)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, collectionToDTO(created))
}

// Get handles GET /api/v1/collections/{name}.
func (r *CollectionsRouter) Get(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	c, err := r.client.Collections.Get(req.Context(), name)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, collectionToDTO(c))
}

// Delete handles DELETE /api/v1/collections/{name}.
func (r *CollectionsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	if err := r.client.Collections.Delete(req.Context(), name); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/v1/collections/{name}/reset. Resetting wipes
// every indexed point; a missing collection is created.
func (r *CollectionsRouter) Reset(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	c, err := r.client.Collections.Reset(req.Context(), name, "")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, collectionToDTO(c))
}

// Clear handles POST /api/v1/collections/{name}/clear.
func (r *CollectionsRouter) Clear(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	if err := r.client.Collections.Clear(req.Context(), name); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Points handles GET /api/v1/collections/{name}/points.
func (r *CollectionsRouter) Points(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	limit := defaultSampleLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			middleware.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	points, err := r.client.Collections.Sample(req.Context(), name, limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	body := dto.PointListResponse{Points: make([]dto.PointResponse, len(points))}
	for i, p := range points {
		body.Points[i] = pointToDTO(p)
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// Documents handles GET /api/v1/collections/{name}/documents.
func (r *CollectionsRouter) Documents(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	// Listing documents of an unknown collection is a 404, not an empty list.
	if _, err := r.client.Collections.Get(req.Context(), name); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	docs, err := r.client.Documents.ByCollection(req.Context(), name)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	body := dto.DocumentListResponse{Documents: make([]dto.DocumentResponse, len(docs))}
	for i, d := range docs {
		body.Documents[i] = documentToDTO(d)
	}
	middleware.WriteJSON(w, http.StatusOK, body)
}

// Upload handles POST /api/v1/collections/{name}/documents. The request
// is multipart/form-data with the file under the "file" field.
func (r *CollectionsRouter) Upload(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	file, header, err := req.FormFile("file")
	if err != nil {
		middleware.WriteBadRequest(w, "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteBadRequest(w, "cannot read uploaded file")
		return
	}

	result, err := r.client.Ingestion.Ingest(req.Context(), name, header.Filename, raw)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, dto.IngestResponse{
		DocumentID: result.DocumentID,
		Filename:   result.Filename,
		Collection: result.Collection,
		Chunks:     result.Chunks,
	})
}

func collectionToDTO(c collection.Collection) dto.CollectionResponse {
	return dto.CollectionResponse{
		Name:        c.Name(),
		Description: c.Description(),
		CreatedAt:   c.CreatedAt(),
		DocsCount:   c.DocsCount(),
	}
}

func documentToDTO(d document.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:         d.ID(),
		Filename:   d.Filename(),
		Collection: d.Collection(),
		Size:       d.Size(),
		CreatedAt:  d.CreatedAt(),
	}
}

func pointToDTO(p vector.Point) dto.PointResponse {
	return dto.PointResponse{
		ID:     p.ID(),
		Source: p.Payload().Source(),
		Chunk:  p.Payload().Chunk(),
	}
}
