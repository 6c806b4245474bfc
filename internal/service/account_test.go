package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store/memory"
)

func newAccountService() *AccountService {
	return NewAccountService(memory.NewAddressStore(), memory.NewAuditStore(), zerolog.Nop())
}

func testAddressInput(userID uuid.UUID, addrType domain.AddressType) domain.Address {
	return domain.Address{
		UserID:     userID,
		Type:       addrType,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "London",
		State:      "LDN",
		PostalCode: "EC1A",
		Country:    "GB",
	}
}

func TestAccountService_CreateAddress_FirstBecomesDefault(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeShipping))
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeShipping))
	require.NoError(t, err)
	require.False(t, second.IsDefault)

	// The default flag is tracked per type.
	billing, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeBilling))
	require.NoError(t, err)
	require.True(t, billing.IsDefault)
}

func TestAccountService_CreateAddress_NewDefaultClearsOld(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeShipping))
	require.NoError(t, err)

	next := testAddressInput(userID, domain.AddressTypeShipping)
	next.IsDefault = true
	second, err := svc.CreateAddress(ctx, next)
	require.NoError(t, err)
	require.True(t, second.IsDefault)

	addresses, err := svc.ListAddresses(ctx, userID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			require.Equal(t, second.ID, a.ID)
		} else {
			require.Equal(t, first.ID, a.ID)
		}
	}
	require.Equal(t, 1, defaults, "exactly one default per type")
}

func TestAccountService_CreateAddress_Validation(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()

	addr := testAddressInput(uuid.New(), "warehouse")
	_, err := svc.CreateAddress(ctx, addr)
	require.True(t, domain.IsValidationError(err))

	addr = testAddressInput(uuid.New(), domain.AddressTypeShipping)
	addr.Street = ""
	addr.City = ""
	_, err = svc.CreateAddress(ctx, addr)
	require.True(t, domain.IsValidationError(err))
	fields := domain.GetValidationFields(err)
	require.Contains(t, fields, "street")
	require.Contains(t, fields, "city")
}

func TestAccountService_UpdateAddress(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeShipping))
	require.NoError(t, err)

	edit := testAddressInput(userID, domain.AddressTypeShipping)
	edit.Street = "1 New Street"
	updated, err := svc.UpdateAddress(ctx, userID, created.ID, edit)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "1 New Street", updated.Street)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)

	// Someone else's address reads as not found.
	_, err = svc.UpdateAddress(ctx, uuid.New(), created.ID, edit)
	require.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestAccountService_DeleteAddress(t *testing.T) {
	svc := newAccountService()
	ctx := context.Background()
	userID := uuid.New()

	created, err := svc.CreateAddress(ctx, testAddressInput(userID, domain.AddressTypeShipping))
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteAddress(ctx, uuid.New(), created.ID), domain.ErrAddressNotFound)
	require.NoError(t, svc.DeleteAddress(ctx, userID, created.ID))

	addresses, err := svc.ListAddresses(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, addresses)
}

func TestAccountService_ListAuditLogs(t *testing.T) {
	audit := memory.NewAuditStore()
	svc := NewAccountService(memory.NewAddressStore(), audit, zerolog.Nop())
	ctx := context.Background()
	userID := uuid.New()

	for _, action := range []string{domain.AuditActionRegister, domain.AuditActionLogin, domain.AuditActionPasswordChanged} {
		require.NoError(t, audit.Append(ctx, &domain.AuditLog{
			ID:     uuid.New(),
			UserID: userID,
			Action: action,
		}))
	}

	logs, err := svc.ListAuditLogs(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, domain.AuditActionPasswordChanged, logs[0].Action, "newest first")
}
