package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", "storefront")
	userID := uuid.New()

	access, refresh, err := m.IssuePair(userID, "shopper@example.com", "customer")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != userID.String() {
		t.Errorf("UserID = %q, want %q", claims.UserID, userID.String())
	}
	if claims.Email != "shopper@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "customer" {
		t.Errorf("Role = %q", claims.Role)
	}

	if _, err := m.VerifyRefresh(refresh); err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := NewTokenManager("test-secret", "storefront")
	access, refresh, err := m.IssuePair(uuid.New(), "a@b.com", "customer")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyAccess(refresh); err != ErrWrongTokenType {
		t.Errorf("refresh as access: err = %v, want ErrWrongTokenType", err)
	}
	if _, err := m.VerifyRefresh(access); err != ErrWrongTokenType {
		t.Errorf("access as refresh: err = %v, want ErrWrongTokenType", err)
	}
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "storefront")
	verifier := NewTokenManager("secret-b", "storefront")

	access, _, err := issuer.IssuePair(uuid.New(), "a@b.com", "customer")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := verifier.VerifyAccess(access); err != ErrInvalidToken {
		t.Errorf("foreign secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", "storefront")
	if _, err := m.VerifyAccess("not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestNewGuestToken(t *testing.T) {
	a, err := NewGuestToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGuestToken()
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 32 {
		t.Errorf("token length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("guest tokens should be unique")
	}
}
