// Package response provides shared response helpers for HTTP handlers, including
// the single place where upstream failures are rendered to callers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kastel/media-proxy/internal/upstream"
)

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Text writes a plain-text body with the given HTTP status code.
func Text(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message string) {
	Text(w, http.StatusBadRequest, message)
}

// UnsupportedMediaType writes a 415 response.
func UnsupportedMediaType(w http.ResponseWriter, message string) {
	Text(w, http.StatusUnsupportedMediaType, message)
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	Text(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// InternalError writes an opaque 500 response.
func InternalError(w http.ResponseWriter) {
	Text(w, http.StatusInternalServerError, "Internal Server Error")
}

// UpstreamFailure renders a failed backend or store call. With verbose set
// (staging), the upstream status and body are relayed verbatim so the failure is
// diagnosable; in production everything collapses to an opaque 500 so backend
// internals never reach untrusted callers. Errors that are not upstream statuses
// (network failures, malformed responses) are always opaque.
func UpstreamFailure(w http.ResponseWriter, err error, verbose bool) {
	var upErr *upstream.Error
	if errors.As(err, &upErr) && verbose {
		Text(w, upErr.Status, string(upErr.Body))
		return
	}
	InternalError(w)
}
