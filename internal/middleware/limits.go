package middleware

import (
	"net/http"
)

// Common size limits.
const (
	kb = 1024
	mb = 1024 * kb

	// DefaultMaxBodySize caps JSON API request bodies (1MB). Nothing the
	// API accepts is larger than a review with a long comment.
	DefaultMaxBodySize = 1 * mb
)

// MaxBodySize rejects requests whose body exceeds maxBytes with
// 413 Request Entity Too Large. Handlers that read the wrapped body past
// the limit get an error from MaxBytesReader instead of unbounded input.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
