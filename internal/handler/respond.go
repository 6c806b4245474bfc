package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
)

// envelope is the standard success response body: a "success" status, the
// payload under "data", plus pagination when the endpoint returns a page of
// a larger set. Error responses use the same top-level shape with a status
// of "error"; see ErrorResponse.
type envelope struct {
	Status     string             `json:"status"`
	Data       interface{}        `json:"data"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

// JSON writes v under the standard data envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	writeJSON(w, r, status, envelope{Status: "success", Data: v})
}

// JSONPage writes a paginated list response.
func JSONPage(w http.ResponseWriter, r *http.Request, status int, v interface{}, page domain.Pagination) {
	writeJSON(w, r, status, envelope{Status: "success", Data: v, Pagination: &page})
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).Msg("failed to encode response")
	}
}

// DecodeJSON reads the request body into dst. Malformed bodies come back as
// EINVALID so handlers can pass the error straight to ErrorResponse.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("request.decode", "invalid request body")
	}
	return nil
}
