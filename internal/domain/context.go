// Package domain provides core business types and context helpers for the
// storefront API.
//
// Context helpers centralize request-scoped identity access so cart ownership
// checks look the same everywhere in the codebase.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// identityContextKey stores the request identity in context.
	identityContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// Identity represents the caller of a request: either an authenticated user
// (UserID set, from a verified JWT) or a guest (GuestToken set, from the
// X-Guest-Token header). At most one of the two is populated.
type Identity struct {
	UserID     uuid.UUID
	Email      string
	Role       string // "customer", "admin"
	GuestToken string
}

// IsAuthenticated reports whether the identity belongs to a signed-in user.
func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.UserID != uuid.Nil
}

// IsAdmin reports whether the identity belongs to an admin user.
func (i *Identity) IsAdmin() bool {
	return i.IsAuthenticated() && i.Role == RoleAdmin
}

// OwnerKey returns the cart ownership key for this identity: the user ID for
// authenticated users, the guest token otherwise. Empty when neither is set.
func (i *Identity) OwnerKey() string {
	if i == nil {
		return ""
	}
	if i.UserID != uuid.Nil {
		return "user:" + i.UserID.String()
	}
	if i.GuestToken != "" {
		return "guest:" + i.GuestToken
	}
	return ""
}

// --- Identity Context Helpers ---

// NewContextWithIdentity returns a new context with the identity attached.
func NewContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from context.
// Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey).(*Identity)
	return id
}

// UserIDFromContext retrieves the authenticated user ID from context.
// Returns uuid.Nil for guests and anonymous requests.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id := IdentityFromContext(ctx); id != nil {
		return id.UserID
	}
	return uuid.Nil
}

// RequireUserID retrieves the user ID from context, panicking if not present.
// Use this in service layers behind RequireAuth middleware; the panic is
// caught by the recovery middleware if the route was wired without it.
func RequireUserID(ctx context.Context) uuid.UUID {
	userID := UserIDFromContext(ctx)
	if userID == uuid.Nil {
		panic("user_id required in context but not found")
	}
	return userID
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
