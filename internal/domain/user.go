package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Phone        string          `json:"phone,omitempty"`
	Role         string          `json:"role"`
	Preferences  UserPreferences `json:"preferences"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// UserPreferences holds marketing opt-ins editable from the profile page.
type UserPreferences struct {
	Newsletter       bool `json:"newsletter"`
	SMSNotifications bool `json:"smsNotifications"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// TokenPair is an access/refresh token pair issued at login, register and
// refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}

// ProfileUpdate carries the editable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileUpdate struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	Newsletter       *bool
	SMSNotifications *bool
}

// UserService manages registration, login and profile data.
type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*User, *TokenPair, error)
	Login(ctx context.Context, email, password, ip, userAgent string) (*User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate, ip, userAgent string) (*User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next, ip, userAgent string) error
}
