// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
)

// AdminConfig contains configuration for the initial admin user.
type AdminConfig struct {
	Email    string
	Password string
}

// Validate checks that the admin configuration is usable.
func (c *AdminConfig) Validate() error {
	if c.Email == "" {
		return errors.New("admin email is required")
	}
	if len(c.Password) < 12 {
		return errors.New("admin password must be at least 12 characters")
	}
	return nil
}

// EnsureAdmin creates the initial admin user if it doesn't exist. Idempotent,
// safe to call on every startup. When the config is empty the step is skipped
// so development can run without an admin.
func EnsureAdmin(ctx context.Context, users store.UserStore, cfg AdminConfig, logger zerolog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Warn().Msg("bootstrap: skipping admin creation, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	if existing, err := users.GetByEmail(ctx, cfg.Email); err == nil {
		logger.Info().Str("email", cfg.Email).Str("user_id", existing.ID.String()).
			Msg("bootstrap: admin user already exists")
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.New(),
		Email:        cfg.Email,
		PasswordHash: hash,
		FirstName:    "Admin",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a startup race with another replica.
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info().Str("email", cfg.Email).Str("user_id", admin.ID.String()).
		Msg("bootstrap: admin user created")
	return nil
}
