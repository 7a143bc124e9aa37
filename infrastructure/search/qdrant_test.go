package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/infrastructure/search"
)

// fakeQdrant records requests and serves canned responses for the subset
// of the Qdrant HTTP API the client uses.
type fakeQdrant struct {
	t           *testing.T
	collections map[string]bool
	upserted    []map[string]any
	lastAPIKey  string
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	f := &fakeQdrant{t: t, collections: map[string]bool{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastAPIKey = r.Header.Get("api-key")

	switch {
	case r.URL.Path == "/healthz":
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
		if f.collections["docs"] {
			f.writeOK(w, map[string]any{"result": map[string]any{}})
		} else {
			w.WriteHeader(http.StatusNotFound)
		}

	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		vectors := body["vectors"].(map[string]any)
		assert.Equal(f.t, "Cosine", vectors["distance"])
		assert.Equal(f.t, float64(4), vectors["size"])
		f.collections["docs"] = true
		f.writeOK(w, map[string]any{"result": true})

	case r.Method == http.MethodDelete && r.URL.Path == "/collections/docs":
		if !f.collections["docs"] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.collections, "docs")
		f.upserted = nil
		f.writeOK(w, map[string]any{"result": true})

	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
		assert.Equal(f.t, "true", r.URL.Query().Get("wait"))
		var body struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.upserted = append(f.upserted, body.Points...)
		f.writeOK(w, map[string]any{"result": map[string]any{"status": "completed"}})

	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
		f.writeOK(w, map[string]any{
			"result": []map[string]any{
				{
					"id":    "11111111-1111-1111-1111-111111111111",
					"score": 0.92,
					"payload": map[string]any{
						"source":     "a.txt",
						"collection": "docs",
						"chunk":      "matched text",
					},
				},
			},
		})

	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/count":
		f.writeOK(w, map[string]any{
			"result": map[string]any{"count": len(f.upserted)},
		})

	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/delete":
		var body struct {
			Filter map[string]any `json:"filter"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(f.t, body.Filter)
		f.upserted = nil
		f.writeOK(w, map[string]any{"result": map[string]any{"status": "completed"}})

	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/scroll":
		f.writeOK(w, map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{
						"id": "11111111-1111-1111-1111-111111111111",
						"payload": map[string]any{
							"source":     "a.txt",
							"collection": "docs",
							"chunk":      "stored text",
						},
					},
				},
			},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeQdrant) writeOK(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(f.t, json.NewEncoder(w).Encode(body))
}

func TestQdrant_EnsureCollectionCreatesOnce(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	require.NoError(t, q.EnsureCollection(ctx, "docs", 4))
	assert.True(t, f.collections["docs"])
	assert.Equal(t, "secret", f.lastAPIKey)

	// Second ensure is a no-op against the existing collection.
	require.NoError(t, q.EnsureCollection(ctx, "docs", 4))
}

func TestQdrant_UpsertAndCount(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, q.EnsureCollection(ctx, "docs", 4))

	points := []vector.Point{
		vector.NewPoint(
			vector.PointID("docs", "a.txt", 0),
			[]float32{1, 0, 0, 0},
			vector.NewPayload("a.txt", "docs", "first chunk"),
		),
		vector.NewPoint(
			vector.PointID("docs", "a.txt", 1),
			[]float32{0, 1, 0, 0},
			vector.NewPayload("a.txt", "docs", "second chunk"),
		),
	}
	require.NoError(t, q.Upsert(ctx, "docs", points))
	require.Len(t, f.upserted, 2)

	payload := f.upserted[0]["payload"].(map[string]any)
	assert.Equal(t, "a.txt", payload["source"])
	assert.Equal(t, "docs", payload["collection"])
	assert.Equal(t, "first chunk", payload["chunk"])

	count, err := q.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestQdrant_SearchParsesHits(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, q.EnsureCollection(ctx, "docs", 4))

	hits, err := q.Search(ctx, "docs", []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", hits[0].ID())
	assert.InDelta(t, 0.92, hits[0].Score(), 1e-9)
	assert.Equal(t, "matched text", hits[0].Payload().Chunk())
	assert.Equal(t, "a.txt", hits[0].Payload().Source())
}

func TestQdrant_MissingCollectionMapsToSentinel(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)

	// No EnsureCollection: points endpoints 404.
	err = q.DeleteCollection(ctx, "docs")
	assert.ErrorIs(t, err, vector.ErrCollectionMissing)
}

func TestQdrant_ResetRecreatesMissingCollection(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)

	// Reset on a collection that never existed still creates it.
	require.NoError(t, q.ResetCollection(ctx, "docs", 4))
	assert.True(t, f.collections["docs"])
}

func TestQdrant_ClearUsesEmptyFilter(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, q.EnsureCollection(ctx, "docs", 4))
	require.NoError(t, q.Upsert(ctx, "docs", []vector.Point{
		vector.NewPoint("p1", []float32{1, 0, 0, 0}, vector.NewPayload("a.txt", "docs", "x")),
	}))

	require.NoError(t, q.Clear(ctx, "docs"))
	assert.Empty(t, f.upserted)
}

func TestQdrant_PingAndUnreachable(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeQdrant(t)

	q, err := search.NewQdrant(search.QdrantConfig{URL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, q.Ping(ctx))

	down, err := search.NewQdrant(search.QdrantConfig{URL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.ErrorIs(t, down.Ping(ctx), vector.ErrIndexUnavailable)
}
