package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store/memory"
)

type userFixture struct {
	svc   *UserService
	audit *memory.AuditStore
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	auditStore := memory.NewAuditStore()
	tokens := auth.NewTokenManager("test-secret", "storefront-test")
	return &userFixture{
		svc:   NewUserService(memory.NewUserStore(), auditStore, tokens, zerolog.Nop(), nil),
		audit: auditStore,
	}
}

func TestUserService_Register(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, pair, err := f.svc.Register(ctx, "Ada@Example.com", "correct-horse", "Ada", "Lovelace")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email, "email is normalized")
	require.Equal(t, domain.RoleCustomer, user.Role)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int64(auth.AccessTokenTTL.Seconds()), pair.ExpiresIn)

	logs, err := f.audit.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, domain.AuditActionRegister, logs[0].Action)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	_, _, err = f.svc.Register(ctx, "ADA@example.com", "correct-horse", "Ada", "L")
	require.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestUserService_Register_ShortPassword(t *testing.T) {
	f := newUserFixture(t)

	_, _, err := f.svc.Register(context.Background(), "ada@example.com", "short", "Ada", "L")
	require.True(t, domain.IsValidationError(err))
	require.Contains(t, domain.GetValidationFields(err), "password")
}

func TestUserService_Login(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	registered, _, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	user, pair, err := f.svc.Login(ctx, "ada@example.com", "correct-horse", "203.0.113.9", "go-test")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, pair.AccessToken)

	logs, err := f.audit.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Equal(t, domain.AuditActionLogin, logs[0].Action, "newest first")
	require.Equal(t, "203.0.113.9", logs[0].IP)
}

func TestUserService_Login_BadCredentials(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	// Wrong password and unknown email return identical errors.
	_, _, wrongPass := f.svc.Login(ctx, "ada@example.com", "wrong", "", "")
	_, _, noUser := f.svc.Login(ctx, "ghost@example.com", "whatever", "", "")
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(wrongPass))
	require.Equal(t, domain.ErrorMessage(wrongPass), domain.ErrorMessage(noUser))
}

func TestUserService_Refresh(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, pair, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
	require.NotEmpty(t, next.RefreshToken)

	// An access token is not a refresh token.
	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	_, err = f.svc.Refresh(ctx, "garbage")
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, _, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	phone := "+44 20 7946 0000"
	newsletter := true
	updated, err := f.svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{
		Phone:      &phone,
		Newsletter: &newsletter,
	}, "", "")
	require.NoError(t, err)
	require.Equal(t, phone, updated.Phone)
	require.True(t, updated.Preferences.Newsletter)
	require.Equal(t, "Ada", updated.FirstName, "nil fields unchanged")
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, _, err := f.svc.Register(ctx, "ada@example.com", "correct-horse", "Ada", "L")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, user.ID, "wrong", "new-password-1", "", "")
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))

	err = f.svc.ChangePassword(ctx, user.ID, "correct-horse", "new-password-1", "", "")
	require.NoError(t, err)

	_, _, err = f.svc.Login(ctx, "ada@example.com", "new-password-1", "", "")
	require.NoError(t, err)
	_, _, err = f.svc.Login(ctx, "ada@example.com", "correct-horse", "", "")
	require.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}
