package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
)

// Recover turns handler panics into 500 responses instead of killing the
// connection. Sentry's middleware sits inside this one; it reports the panic
// and re-panics so the response is written here.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				respondWithError(w, r, domain.Internal(nil, "", "an unexpected error occurred"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
