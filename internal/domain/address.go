package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Address-related domain errors.
var (
	ErrAddressNotFound = &Error{Code: ENOTFOUND, Message: "Address not found"}
)

// AddressType distinguishes shipping and billing addresses. Default flags
// are tracked per type.
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

// Address is a saved address on a user's account.
type Address struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"-"`
	Type       AddressType `json:"type"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Company    string      `json:"company,omitempty"`
	Street     string      `json:"street"`
	Street2    string      `json:"street2,omitempty"`
	City       string      `json:"city"`
	State      string      `json:"state"`
	PostalCode string      `json:"postalCode"`
	Country    string      `json:"country"`
	Phone      string      `json:"phone,omitempty"`
	IsDefault  bool        `json:"isDefault"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// AccountService covers the signed-in account surface: addresses, own
// reviews and the security audit trail.
type AccountService interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]Address, error)
	CreateAddress(ctx context.Context, addr Address) (*Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, addr Address) (*Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
	ListAuditLogs(ctx context.Context, userID uuid.UUID, limit int) ([]AuditLog, error)
}
