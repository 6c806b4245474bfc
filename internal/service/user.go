package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/store"
	"github.com/copperline/storefront/internal/telemetry"
)

// UserService implements domain.UserService: registration, login, token
// refresh and profile management. Security-relevant actions append to the
// account audit log.
type UserService struct {
	users   store.UserStore
	audit   store.AuditStore
	tokens  *auth.TokenManager
	logger  zerolog.Logger
	metrics *telemetry.BusinessMetrics
}

// Compile-time check that UserService implements domain.UserService.
var _ domain.UserService = (*UserService)(nil)

// NewUserService creates a new UserService instance.
func NewUserService(users store.UserStore, audit store.AuditStore, tokens *auth.TokenManager, logger zerolog.Logger, metrics *telemetry.BusinessMetrics) *UserService {
	return &UserService{
		users:   users,
		audit:   audit,
		tokens:  tokens,
		logger:  logger.With().Str("service", "user").Logger(),
		metrics: metrics,
	}
}

// Register creates an account and issues its first token pair.
func (s *UserService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil, domain.NewValidationError("user.register", "email", "is required")
	}

	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, nil, domain.NewValidationError("user.register", "password",
			"must be at least 8 characters")
	}
	if err != nil {
		return nil, nil, domain.Internal(err, "user.register", "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, nil, domain.Conflict("user.register", "email already registered")
		}
		return nil, nil, domain.Internal(err, "user.register", "failed to create user")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.recordAudit(ctx, user.ID, domain.AuditActionRegister, "", "")
	if s.metrics != nil {
		s.metrics.RecordSignup()
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords return the same error so accounts cannot be enumerated.
func (s *UserService) Login(ctx context.Context, email, password, ip, userAgent string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		if s.metrics != nil {
			s.metrics.RecordLoginFailed("user_not_found")
		}
		return nil, nil, domain.Unauthorized("user.login", "invalid email or password")
	}
	if err != nil {
		return nil, nil, domain.Internal(err, "user.login", "failed to load user")
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if s.metrics != nil {
			s.metrics.RecordLoginFailed("invalid_password")
		}
		return nil, nil, domain.Unauthorized("user.login", "invalid email or password")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	s.recordAudit(ctx, user.ID, domain.AuditActionLogin, ip, userAgent)
	if s.metrics != nil {
		s.metrics.RecordLogin()
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. Claims are
// re-read from the user record so role changes take effect.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, domain.Unauthorized("user.refresh", "invalid refresh token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, domain.Unauthorized("user.refresh", "invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.Unauthorized("user.refresh", "account no longer exists")
	}
	if err != nil {
		return nil, domain.Internal(err, "user.refresh", "failed to load user")
	}

	return s.issuePair(user)
}

// GetByID returns the user's profile.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("user.get", "user", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "user.get", "failed to load user")
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate, ip, userAgent string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.NotFound("user.updateProfile", "user", id.String())
	}
	if err != nil {
		return nil, domain.Internal(err, "user.updateProfile", "failed to load user")
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Newsletter != nil {
		user.Preferences.Newsletter = *update.Newsletter
	}
	if update.SMSNotifications != nil {
		user.Preferences.SMSNotifications = *update.SMSNotifications
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, domain.Internal(err, "user.updateProfile", "failed to save user")
	}

	s.recordAudit(ctx, user.ID, domain.AuditActionProfileUpdated, ip, userAgent)
	return user, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next, ip, userAgent string) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NotFound("user.changePassword", "user", id.String())
	}
	if err != nil {
		return domain.Internal(err, "user.changePassword", "failed to load user")
	}

	if err := auth.VerifyPassword(current, user.PasswordHash); err != nil {
		return domain.Unauthorized("user.changePassword", "current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return domain.NewValidationError("user.changePassword", "newPassword",
			"must be at least 8 characters")
	}
	if err != nil {
		return domain.Internal(err, "user.changePassword", "failed to hash password")
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.Internal(err, "user.changePassword", "failed to save user")
	}

	s.recordAudit(ctx, user.ID, domain.AuditActionPasswordChanged, ip, userAgent)
	s.logger.Info().Str("user_id", user.ID.String()).Msg("password changed")
	return nil
}

func (s *UserService) issuePair(user *domain.User) (*domain.TokenPair, error) {
	access, refresh, err := s.tokens.IssuePair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, domain.Internal(err, "user.issueTokens", "failed to issue tokens")
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(auth.AccessTokenTTL.Seconds()),
	}, nil
}

// recordAudit appends to the security log; failures are logged, not returned.
func (s *UserService) recordAudit(ctx context.Context, userID uuid.UUID, action, ip, userAgent string) {
	entry := &domain.AuditLog{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).
			Str("action", action).Msg("failed to append audit log")
	}
}
