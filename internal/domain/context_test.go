package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityFromContext(t *testing.T) {
	t.Run("returns nil when no identity present", func(t *testing.T) {
		if id := IdentityFromContext(context.Background()); id != nil {
			t.Errorf("IdentityFromContext() = %v, want nil", id)
		}
	})

	t.Run("round-trips identity", func(t *testing.T) {
		want := &Identity{
			UserID: uuid.New(),
			Email:  "shopper@example.com",
			Role:   RoleCustomer,
		}
		ctx := NewContextWithIdentity(context.Background(), want)

		got := IdentityFromContext(ctx)
		if got != want {
			t.Errorf("IdentityFromContext() = %v, want %v", got, want)
		}
	})
}

func TestIdentity_IsAuthenticated(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		expected bool
	}{
		{
			name:     "nil identity",
			identity: nil,
			expected: false,
		},
		{
			name:     "guest identity",
			identity: &Identity{GuestToken: "abc123"},
			expected: false,
		},
		{
			name:     "authenticated user",
			identity: &Identity{UserID: uuid.New(), Role: RoleCustomer},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.IsAuthenticated(); got != tt.expected {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	admin := &Identity{UserID: uuid.New(), Role: RoleAdmin}
	if !admin.IsAdmin() {
		t.Error("admin identity should be admin")
	}

	customer := &Identity{UserID: uuid.New(), Role: RoleCustomer}
	if customer.IsAdmin() {
		t.Error("customer identity should not be admin")
	}

	guest := &Identity{GuestToken: "abc123", Role: RoleAdmin}
	if guest.IsAdmin() {
		t.Error("guest cannot be admin without a user id")
	}
}

func TestIdentity_OwnerKey(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		identity *Identity
		expected string
	}{
		{
			name:     "nil identity",
			identity: nil,
			expected: "",
		},
		{
			name:     "anonymous",
			identity: &Identity{},
			expected: "",
		},
		{
			name:     "guest",
			identity: &Identity{GuestToken: "tok-1"},
			expected: "guest:tok-1",
		},
		{
			name:     "user",
			identity: &Identity{UserID: userID},
			expected: "user:" + userID.String(),
		},
		{
			name:     "user wins over stale guest token",
			identity: &Identity{UserID: userID, GuestToken: "tok-1"},
			expected: "user:" + userID.String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.OwnerKey(); got != tt.expected {
				t.Errorf("OwnerKey() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	t.Run("nil uuid without identity", func(t *testing.T) {
		if got := UserIDFromContext(context.Background()); got != uuid.Nil {
			t.Errorf("UserIDFromContext() = %v, want uuid.Nil", got)
		}
	})

	t.Run("returns user id", func(t *testing.T) {
		userID := uuid.New()
		ctx := NewContextWithIdentity(context.Background(), &Identity{UserID: userID})

		if got := UserIDFromContext(ctx); got != userID {
			t.Errorf("UserIDFromContext() = %v, want %v", got, userID)
		}
	})
}

func TestRequireUserID(t *testing.T) {
	t.Run("panics without identity", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("RequireUserID should panic without identity")
			}
		}()
		RequireUserID(context.Background())
	})

	t.Run("returns user id", func(t *testing.T) {
		userID := uuid.New()
		ctx := NewContextWithIdentity(context.Background(), &Identity{UserID: userID})

		if got := RequireUserID(ctx); got != userID {
			t.Errorf("RequireUserID() = %v, want %v", got, userID)
		}
	})
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}

	ctx := NewContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, "req-123")
	}
}
