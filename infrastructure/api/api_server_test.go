package api_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdexhq/docdex"
	"github.com/docdexhq/docdex/infrastructure/api"
	"github.com/docdexhq/docdex/infrastructure/chunking"
)

// hashEmbedder produces deterministic 4-dimensional vectors so identical
// texts embed identically without a real provider.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, 4)
		var norm float32
		for j := range vec {
			bits := binary.BigEndian.Uint32(sum[j*4:])
			vec[j] = float32(bits%1000) + 1
			norm += vec[j] * vec[j]
		}
		for j := range vec {
			vec[j] /= norm
		}
		out[i] = vec
	}
	return out, nil
}

func newTestHandler(t *testing.T, apiKeys []string) http.Handler {
	t.Helper()

	dir := t.TempDir()
	client, err := docdex.New(context.Background(),
		docdex.WithSQLite(filepath.Join(dir, "test.db")),
		docdex.WithDataDir(dir),
		docdex.WithMemoryIndex(),
		docdex.WithEmbedder(hashEmbedder{}),
		docdex.WithDimension(4),
		docdex.WithChunkParams(chunking.Params{Size: 40, Overlap: 10}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return api.NewAPIServer(client, apiKeys).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func uploadFile(t *testing.T, handler http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(into))
}

func TestAPIServer_CollectionLifecycle(t *testing.T) {
	handler := newTestHandler(t, nil)

	w := postJSON(t, handler, "/api/v1/collections", map[string]string{
		"name": "notes", "description": "personal notes",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		DocsCount   int64  `json:"docs_count"`
	}
	decodeBody(t, w, &created)
	assert.Equal(t, "notes", created.Name)
	assert.Equal(t, "personal notes", created.Description)
	assert.Zero(t, created.DocsCount)

	t.Run("duplicate create conflicts", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/collections", map[string]string{"name": "notes"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("list includes the collection", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var list struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		}
		decodeBody(t, w, &list)
		require.Len(t, list.Collections, 1)
		assert.Equal(t, "notes", list.Collections[0].Name)
	})

	t.Run("get unknown collection is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/ghost", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create without name is 400", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/collections", map[string]string{"name": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete removes the collection", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/collections/notes", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/collections/notes", nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPIServer_IngestAndSearch(t *testing.T) {
	handler := newTestHandler(t, nil)

	w := postJSON(t, handler, "/api/v1/collections", map[string]string{"name": "docs"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = uploadFile(t, handler, "/api/v1/collections/docs/documents", "guide.txt",
		"The quick brown fox jumps over the lazy dog.\nPack my box with five dozen liquor jugs.\n")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ingested struct {
		DocumentID int64  `json:"document_id"`
		Filename   string `json:"filename"`
		Collection string `json:"collection"`
		Chunks     int    `json:"chunks"`
	}
	decodeBody(t, w, &ingested)
	assert.Equal(t, "guide.txt", ingested.Filename)
	assert.Equal(t, "docs", ingested.Collection)
	assert.Positive(t, ingested.Chunks)
	assert.Positive(t, ingested.DocumentID)

	t.Run("search returns ranked hits", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/search", map[string]string{
			"collection": "docs", "query": "quick brown fox",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Results []struct {
				Collection string  `json:"collection"`
				Source     string  `json:"source"`
				Score      float64 `json:"score"`
			} `json:"results"`
		}
		decodeBody(t, w, &resp)
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, "docs", resp.Results[0].Collection)
		assert.Equal(t, "guide.txt", resp.Results[0].Source)
	})

	t.Run("empty collection fans out over all", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/search", map[string]string{"query": "liquor jugs"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Results []struct {
				Collection string `json:"collection"`
			} `json:"results"`
		}
		decodeBody(t, w, &resp)
		require.NotEmpty(t, resp.Results)
		assert.Equal(t, "docs", resp.Results[0].Collection)
	})

	t.Run("blank query is 400", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/search", map[string]string{
			"collection": "docs", "query": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("search unknown collection is 404", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/search", map[string]string{
			"collection": "ghost", "query": "anything",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unsupported upload format is 415", func(t *testing.T) {
		w := uploadFile(t, handler, "/api/v1/collections/docs/documents", "binary.exe", "MZ")
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("upload to unknown collection is 404", func(t *testing.T) {
		w := uploadFile(t, handler, "/api/v1/collections/ghost/documents", "a.txt", "hello")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("documents listing shows the upload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/docs/documents", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var list struct {
			Documents []struct {
				Filename string `json:"filename"`
				Size     int64  `json:"size"`
			} `json:"documents"`
		}
		decodeBody(t, w, &list)
		require.Len(t, list.Documents, 1)
		assert.Equal(t, "guide.txt", list.Documents[0].Filename)
		assert.Positive(t, list.Documents[0].Size)
	})

	t.Run("points listing exposes indexed chunks", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/docs/points?limit=5", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var list struct {
			Points []struct {
				ID     string `json:"id"`
				Source string `json:"source"`
				Chunk  string `json:"chunk"`
			} `json:"points"`
		}
		decodeBody(t, w, &list)
		require.NotEmpty(t, list.Points)
		assert.Equal(t, "guide.txt", list.Points[0].Source)
		assert.NotEmpty(t, list.Points[0].Chunk)
	})

	t.Run("clear empties the index but keeps the collection", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/docs/clear", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)

		sw := postJSON(t, handler, "/api/v1/search", map[string]string{
			"collection": "docs", "query": "quick brown fox",
		})
		require.Equal(t, http.StatusOK, sw.Code)
		var resp struct {
			Results []json.RawMessage `json:"results"`
		}
		decodeBody(t, sw, &resp)
		assert.Empty(t, resp.Results)
	})

	t.Run("reset recreates and zeroes the counter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/docs/reset", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var c struct {
			Name      string `json:"name"`
			DocsCount int64  `json:"docs_count"`
		}
		decodeBody(t, w, &c)
		assert.Equal(t, "docs", c.Name)
		assert.Zero(t, c.DocsCount)
	})
}

func TestAPIServer_Auth(t *testing.T) {
	handler := newTestHandler(t, []string{"secret"})

	t.Run("missing key is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		req.Header.Set("X-API-KEY", "nope")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid key passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		req.Header.Set("X-API-KEY", "secret")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health probes stay open", func(t *testing.T) {
		for _, path := range []string{"/healthz", "/api/v1/health"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})
}

func TestAPIServer_Health(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status      string `json:"status"`
		Registry    bool   `json:"registry"`
		VectorStore bool   `json:"vector_store"`
	}
	decodeBody(t, w, &body)
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Registry)
	assert.True(t, body.VectorStore)
}

func TestAPIServer_CorrelationID(t *testing.T) {
	handler := newTestHandler(t, nil)

	t.Run("echoes caller-supplied ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		req.Header.Set("X-Correlation-ID", "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	})
}

func TestAPIServer_FanoutKeepsGoingOnPartialFailure(t *testing.T) {
	handler := newTestHandler(t, nil)

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("shard-%d", i)
		w := postJSON(t, handler, "/api/v1/collections", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)

		w = uploadFile(t, handler, "/api/v1/collections/"+name+"/documents", "notes.txt",
			strings.Repeat(fmt.Sprintf("shard %d content line\n", i), 4))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := postJSON(t, handler, "/api/v1/search", map[string]string{
		"collection": "__all__", "query": "shard 1 content line",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results []struct {
			Collection string  `json:"collection"`
			Score      float64 `json:"score"`
		} `json:"results"`
		Diagnostics map[string]string `json:"diagnostics"`
	}
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Empty(t, resp.Diagnostics)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}
