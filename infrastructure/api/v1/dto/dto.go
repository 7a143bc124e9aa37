// Package dto defines the request and response bodies of the v1 API.
package dto

import "time"

// CreateCollectionRequest is the body of POST /api/v1/collections.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CollectionResponse describes a collection.
type CollectionResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	DocsCount   int64     `json:"docs_count"`
}

// CollectionListResponse is the body of GET /api/v1/collections.
type CollectionListResponse struct {
	Collections []CollectionResponse `json:"collections"`
}

// IngestResponse is the body returned after a document upload.
type IngestResponse struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}

// DocumentResponse describes a stored upload without its content.
type DocumentResponse struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Collection string    `json:"collection"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentListResponse is the body of GET /api/v1/collections/{name}/documents.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// PointResponse describes an indexed point for inspection.
type PointResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Chunk  string `json:"chunk"`
}

// PointListResponse is the body of GET /api/v1/collections/{name}/points.
type PointListResponse struct {
	Points []PointResponse `json:"points"`
}

// SearchRequest is the body of POST /api/v1/search. Collection may be a
// collection name or "__all__" to search every collection; empty means
// all. Limit optionally trims the response below the server's own cap.
type SearchRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	Limit      int    `json:"limit,omitempty"`
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	Collection string  `json:"collection"`
	Source     string  `json:"source"`
	Chunk      string  `json:"chunk"`
	Score      float64 `json:"score"`
}

// SearchResponse is the body returned by POST /api/v1/search.
// Diagnostics maps collection names that failed during fan-out to error
// descriptions; it is empty on fully successful searches.
type SearchResponse struct {
	Results     []SearchResult    `json:"results"`
	Diagnostics map[string]string `json:"diagnostics,omitempty"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Registry    bool   `json:"registry"`
	VectorStore bool   `json:"vector_store"`
}
