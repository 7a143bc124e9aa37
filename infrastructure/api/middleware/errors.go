package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/docdexhq/docdex/application/service"
	"github.com/docdexhq/docdex/domain/collection"
	"github.com/docdexhq/docdex/domain/vector"
	"github.com/docdexhq/docdex/infrastructure/extract"
	"github.com/docdexhq/docdex/infrastructure/persistence"
	"github.com/docdexhq/docdex/infrastructure/provider"
	"github.com/docdexhq/docdex/internal/log"
)

// apiError is a single element of the error response body.
type apiError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a service error to an HTTP status and writes the error
// response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		logger.DebugContext(r.Context(), "request rejected",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	WriteJSON(w, status, errorResponse{
		Errors: []apiError{{
			Status: strconv.Itoa(status),
			Title:  http.StatusText(status),
			Detail: err.Error(),
		}},
	})
}

// WriteBadRequest writes a 400 response for malformed request input.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusBadRequest, errorResponse{
		Errors: []apiError{{
			Status: strconv.Itoa(http.StatusBadRequest),
			Title:  http.StatusText(http.StatusBadRequest),
			Detail: detail,
		}},
	})
}

// statusFor maps domain and service sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownCollection),
		errors.Is(err, persistence.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrDecode),
		errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrEmbeddingService),
		errors.Is(err, service.ErrIndexing):
		return http.StatusBadGateway
	case errors.Is(err, vector.ErrIndexUnavailable),
		errors.Is(err, collection.ErrRegistryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
