// Package search provides vector index implementations: a Qdrant-backed
// store and an in-memory store for tests and embedded use.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/docdexhq/docdex/domain/vector"
)

const defaultQdrantTimeout = 30 * time.Second

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Qdrant implements vector.Index against the Qdrant HTTP API.
type Qdrant struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewQdrant creates a Qdrant index client.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultQdrantTimeout
	}

	return &Qdrant{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type qdrantHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// EnsureCollection creates the collection if absent. An existing
// collection is left untouched.
func (q *Qdrant) EnsureCollection(ctx context.Context, name string, dimension int) error {
	exists, err := q.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return q.createCollection(ctx, name, dimension)
}

// ResetCollection destructively recreates the collection.
func (q *Qdrant) ResetCollection(ctx context.Context, name string, dimension int) error {
	// Deleting a missing collection is fine; Qdrant returns 404 which we
	// ignore here.
	if err := q.DeleteCollection(ctx, name); err != nil && !errors.Is(err, vector.ErrCollectionMissing) {
		return err
	}
	return q.createCollection(ctx, name, dimension)
}

// DeleteCollection removes the collection and its points.
func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	return q.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil)
}

// Upsert writes points in a single waited request.
func (q *Qdrant) Upsert(ctx context.Context, name string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	payload := make([]qdrantPoint, len(points))
	for i, p := range points {
		payload[i] = qdrantPoint{
			ID:     p.ID(),
			Vector: p.Vector(),
			Payload: map[string]any{
				"source":     p.Payload().Source(),
				"collection": p.Payload().Collection(),
				"chunk":      p.Payload().Chunk(),
			},
		}
	}

	body := map[string]any{"points": payload}
	path := "/collections/" + url.PathEscape(name) + "/points?wait=true"
	return q.do(ctx, http.MethodPut, path, body, nil)
}

// Search returns the limit nearest points by cosine similarity.
func (q *Qdrant) Search(ctx context.Context, name string, query []float32, limit int) ([]vector.Hit, error) {
	body := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result []qdrantHit `json:"result"`
	}
	path := "/collections/" + url.PathEscape(name) + "/points/search"
	if err := q.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	hits := make([]vector.Hit, 0, len(resp.Result))
	for _, h := range resp.Result {
		hits = append(hits, vector.NewHit(formatPointID(h.ID), h.Score, payloadFromMap(h.Payload)))
	}
	return hits, nil
}

// Scroll lists up to limit points without ordering guarantees.
func (q *Qdrant) Scroll(ctx context.Context, name string, limit int) ([]vector.Point, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}

	var resp struct {
		Result struct {
			Points []qdrantHit `json:"points"`
		} `json:"result"`
	}
	path := "/collections/" + url.PathEscape(name) + "/points/scroll"
	if err := q.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	points := make([]vector.Point, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, vector.NewPoint(formatPointID(p.ID), nil, payloadFromMap(p.Payload)))
	}
	return points, nil
}

// Count returns the exact number of points in the collection.
func (q *Qdrant) Count(ctx context.Context, name string) (int64, error) {
	body := map[string]any{"exact": true}

	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	path := "/collections/" + url.PathEscape(name) + "/points/count"
	if err := q.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Clear deletes every point while keeping the collection. An empty filter
// matches all points.
func (q *Qdrant) Clear(ctx context.Context, name string) error {
	body := map[string]any{"filter": map[string]any{}}
	path := "/collections/" + url.PathEscape(name) + "/points/delete?wait=true"
	return q.do(ctx, http.MethodPost, path, body, nil)
}

// Ping verifies the server is reachable.
func (q *Qdrant) Ping(ctx context.Context) error {
	return q.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (q *Qdrant) collectionExists(ctx context.Context, name string) (bool, error) {
	err := q.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, vector.ErrCollectionMissing) {
		return false, nil
	}
	return false, err
}

func (q *Qdrant) createCollection(ctx context.Context, name string, dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body, nil)
}

// do performs a JSON request against the Qdrant API. A non-nil out is
// filled from the response body on success.
func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrIndexUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", vector.ErrCollectionMissing, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s: status %d: %s", vector.ErrIndexUnavailable, method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// formatPointID renders a Qdrant point id (string UUID or integer) as a
// string.
func formatPointID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func payloadFromMap(m map[string]any) vector.Payload {
	return vector.NewPayload(
		stringField(m, "source"),
		stringField(m, "collection"),
		stringField(m, "chunk"),
	)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

var _ vector.Index = (*Qdrant)(nil)
