package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// AccountService implements domain.AccountService: saved addresses and the
// account security log. At most one default address exists per type; setting
// a new default clears the old one.
type AccountService struct {
	addresses store.AddressStore
	audit     store.AuditStore
	logger    zerolog.Logger
}

// Compile-time check that AccountService implements domain.AccountService.
var _ domain.AccountService = (*AccountService)(nil)

// NewAccountService creates a new AccountService instance.
func NewAccountService(addresses store.AddressStore, audit store.AuditStore, logger zerolog.Logger) *AccountService {
	return &AccountService{
		addresses: addresses,
		audit:     audit,
		logger:    logger.With().Str("service", "account").Logger(),
	}
}

// ListAddresses returns the user's saved addresses, defaults first.
func (s *AccountService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "account.listAddresses", "failed to list addresses")
	}
	return addresses, nil
}

// CreateAddress saves a new address. The first address of a type becomes
// the default automatically.
func (s *AccountService) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	if err := validateAddress(&addr, "account.createAddress"); err != nil {
		return nil, err
	}

	existing, err := s.addresses.ListByUser(ctx, addr.UserID)
	if err != nil {
		return nil, domain.Internal(err, "account.createAddress", "failed to list addresses")
	}

	hasDefault := false
	for _, a := range existing {
		if a.Type == addr.Type && a.IsDefault {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		addr.IsDefault = true
	} else if addr.IsDefault {
		if err := s.addresses.ClearDefault(ctx, addr.UserID, addr.Type); err != nil {
			return nil, domain.Internal(err, "account.createAddress", "failed to clear default address")
		}
	}

	now := time.Now().UTC()
	addr.ID = uuid.New()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	if err := s.addresses.Create(ctx, &addr); err != nil {
		return nil, domain.Internal(err, "account.createAddress", "failed to save address")
	}

	s.logger.Info().Str("address_id", addr.ID.String()).
		Str("type", string(addr.Type)).Msg("address created")
	return &addr, nil
}

// UpdateAddress edits one of the caller's addresses.
func (s *AccountService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, addr domain.Address) (*domain.Address, error) {
	current, err := s.ownedAddress(ctx, userID, addressID, "account.updateAddress")
	if err != nil {
		return nil, err
	}

	if err := validateAddress(&addr, "account.updateAddress"); err != nil {
		return nil, err
	}

	if addr.IsDefault && !current.IsDefault {
		if err := s.addresses.ClearDefault(ctx, userID, addr.Type); err != nil {
			return nil, domain.Internal(err, "account.updateAddress", "failed to clear default address")
		}
	}

	addr.ID = current.ID
	addr.UserID = userID
	addr.CreatedAt = current.CreatedAt
	addr.UpdatedAt = time.Now().UTC()

	if err := s.addresses.Update(ctx, &addr); err != nil {
		return nil, domain.Internal(err, "account.updateAddress", "failed to save address")
	}
	return &addr, nil
}

// DeleteAddress removes one of the caller's addresses.
func (s *AccountService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.ownedAddress(ctx, userID, addressID, "account.deleteAddress"); err != nil {
		return err
	}

	if err := s.addresses.Delete(ctx, addressID); err != nil {
		return domain.Internal(err, "account.deleteAddress", "failed to delete address")
	}
	return nil
}

// ListAuditLogs returns the user's security log, newest first.
func (s *AccountService) ListAuditLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 20
	}
	logs, err := s.audit.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, domain.Internal(err, "account.listAuditLogs", "failed to list audit logs")
	}
	return logs, nil
}

// ownedAddress loads an address and checks it belongs to the caller.
// Non-owned addresses read as not found.
func (s *AccountService) ownedAddress(ctx context.Context, userID, addressID uuid.UUID, op string) (*domain.Address, error) {
	addr, err := s.addresses.GetByID(ctx, addressID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load address")
	}
	if addr.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	return addr, nil
}

func validateAddress(addr *domain.Address, op string) error {
	if addr.Type != domain.AddressTypeShipping && addr.Type != domain.AddressTypeBilling {
		return domain.NewValidationError(op, "type", "must be shipping or billing")
	}

	var err error
	if addr.FirstName == "" {
		err = domain.AddFieldError(err, "firstName", "is required")
	}
	if addr.Street == "" {
		err = domain.AddFieldError(err, "street", "is required")
	}
	if addr.City == "" {
		err = domain.AddFieldError(err, "city", "is required")
	}
	if addr.PostalCode == "" {
		err = domain.AddFieldError(err, "postalCode", "is required")
	}
	if addr.Country == "" {
		err = domain.AddFieldError(err, "country", "is required")
	}
	return err
}
