package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
)

// RequestLogger injects a request-scoped logger into the context and emits
// one access-log line per request. The logger carries the request ID, and
// handlers pick it up with zerolog.Ctx(r.Context()).
// Place after RequestID in the chain.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			if requestID := domain.RequestIDFromContext(r.Context()); requestID != "" {
				logger = logger.With().Str("request_id", requestID).Logger()
			}

			ctx := logger.WithContext(r.Context())
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			evt := logger.Info()
			if wrapped.status >= 500 {
				evt = logger.Error()
			}
			evt.Int("status", wrapped.status).
				Int("bytes", wrapped.bytes).
				Dur("duration", time.Since(start)).
				Str("remote_ip", GetClientIP(r)).
				Msg("request completed")
		})
	}
}

// statusWriter captures the response status and size for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
