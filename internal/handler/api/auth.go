package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/auth"
	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// GuestTokenHeader carries the anonymous cart token. The client generates
// nothing itself; it asks POST /api/auth/guest for one and echoes it back.
const GuestTokenHeader = "X-Guest-Token"

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	users  domain.UserService
	carts  domain.CartService
	logger zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserService, carts domain.CartService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		carts:  carts,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
}

type authResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// Register handles POST /api/auth/register. A guest cart identified by the
// X-Guest-Token header is carried over to the new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("user.register", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, tokens, err := h.users.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.mergeGuestCart(r, user)
	handler.JSON(w, r, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. The guest cart, if any, is merged
// into the user's cart.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("user.login", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, tokens, err := h.users.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.mergeGuestCart(r, user)
	handler.JSON(w, r, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("user.refresh", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	tokens, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, map[string]*domain.TokenPair{"tokens": tokens})
}

// Guest handles POST /api/auth/guest: issues an anonymous cart token.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	token, err := auth.NewGuestToken()
	if err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusCreated, map[string]string{"guestToken": token})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), domain.RequireUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, user)
}

// mergeGuestCart folds the caller's guest cart into their account cart.
// A merge failure never fails the login itself.
func (h *AuthHandler) mergeGuestCart(r *http.Request, user *domain.User) {
	guestToken := r.Header.Get(GuestTokenHeader)
	if guestToken == "" {
		return
	}
	if _, err := h.carts.MergeGuestCart(r.Context(), guestToken, user.ID); err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID.String()).
			Msg("guest cart merge failed")
	}
}

// clientIP extracts the caller's IP, honoring X-Forwarded-For from the
// reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
