package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/domain"
)

func identityProbe(t *testing.T) (http.HandlerFunc, **domain.Identity) {
	t.Helper()
	var captured *domain.Identity
	return func(w http.ResponseWriter, r *http.Request) {
		captured = domain.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}, &captured
}

func TestAuthenticate_BearerToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "storefront-test")
	userID := uuid.New()
	access, _, err := tokens.IssuePair(userID, "a@b.co", domain.RoleCustomer)
	require.NoError(t, err)

	probe, captured := identityProbe(t)
	h := Authenticate(tokens)(probe)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, *captured)
	require.Equal(t, userID, (*captured).UserID)
	require.Equal(t, "a@b.co", (*captured).Email)
	require.True(t, (*captured).IsAuthenticated())
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "storefront-test")

	called := false
	h := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "storefront-test")
	_, refresh, err := tokens.IssuePair(uuid.New(), "a@b.co", domain.RoleCustomer)
	require.NoError(t, err)

	h := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_GuestToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "storefront-test")
	probe, captured := identityProbe(t)
	h := Authenticate(tokens)(probe)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-Guest-Token", "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "guest:abc123", (*captured).OwnerKey())
	require.False(t, (*captured).IsAuthenticated())
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Guest identity is not enough.
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req = req.WithContext(domain.NewContextWithIdentity(req.Context(), &domain.Identity{GuestToken: "abc"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req = req.WithContext(domain.NewContextWithIdentity(req.Context(), &domain.Identity{UserID: uuid.New()}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", nil)
	req = req.WithContext(domain.NewContextWithIdentity(req.Context(),
		&domain.Identity{UserID: uuid.New(), Role: domain.RoleCustomer}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", nil)
	req = req.WithContext(domain.NewContextWithIdentity(req.Context(),
		&domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
