package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// AccountHandler serves the signed-in account surface: profile, password,
// addresses, own reviews and the security log. Every route sits behind
// RequireAuth, so RequireUserID is safe here.
type AccountHandler struct {
	users   domain.UserService
	account domain.AccountService
	reviews domain.ReviewService
	logger  zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(users domain.UserService, account domain.AccountService, reviews domain.ReviewService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		users:   users,
		account: account,
		reviews: reviews,
		logger:  logger.With().Str("handler", "account").Logger(),
	}
}

// GetProfile handles GET /api/account/profile.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), domain.RequireUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, user)
}

type updateProfileRequest struct {
	FirstName        *string `json:"firstName"`
	LastName         *string `json:"lastName"`
	Phone            *string `json:"phone"`
	Newsletter       *bool   `json:"newsletter"`
	SMSNotifications *bool   `json:"smsNotifications"`
}

// UpdateProfile handles PUT /api/account/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), domain.RequireUserID(r.Context()), domain.ProfileUpdate{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Newsletter:       req.Newsletter,
		SMSNotifications: req.SMSNotifications,
	}, clientIP(r), r.UserAgent())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword handles POST /api/account/security/change-password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("user.changePassword", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	err := h.users.ChangePassword(r.Context(), domain.RequireUserID(r.Context()),
		req.CurrentPassword, req.NewPassword, clientIP(r), r.UserAgent())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}

// ListAddresses handles GET /api/account/addresses.
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.account.ListAddresses(r.Context(), domain.RequireUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, addresses)
}

type addressRequest struct {
	Type       domain.AddressType `json:"type" validate:"required,oneof=shipping billing"`
	FirstName  string             `json:"firstName" validate:"required"`
	LastName   string             `json:"lastName"`
	Company    string             `json:"company"`
	Street     string             `json:"street" validate:"required"`
	Street2    string             `json:"street2"`
	City       string             `json:"city" validate:"required"`
	State      string             `json:"state"`
	PostalCode string             `json:"postalCode" validate:"required"`
	Country    string             `json:"country" validate:"required"`
	Phone      string             `json:"phone"`
	IsDefault  bool               `json:"isDefault"`
}

func (req *addressRequest) toAddress(base domain.Address) domain.Address {
	out := base
	out.Type = req.Type
	out.FirstName = req.FirstName
	out.LastName = req.LastName
	out.Company = req.Company
	out.Street = req.Street
	out.Street2 = req.Street2
	out.City = req.City
	out.State = req.State
	out.PostalCode = req.PostalCode
	out.Country = req.Country
	out.Phone = req.Phone
	out.IsDefault = req.IsDefault
	return out
}

// CreateAddress handles POST /api/account/addresses.
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("account.createAddress", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	addr, err := h.account.CreateAddress(r.Context(),
		req.toAddress(domain.Address{UserID: domain.RequireUserID(r.Context())}))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusCreated, addr)
}

// UpdateAddress handles PUT /api/account/addresses/{id}.
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req addressRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := handler.ValidateStruct("account.updateAddress", req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	userID := domain.RequireUserID(r.Context())
	addr, err := h.account.UpdateAddress(r.Context(), userID, addressID,
		req.toAddress(domain.Address{UserID: userID}))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /api/account/addresses/{id}.
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.account.DeleteAddress(r.Context(), domain.RequireUserID(r.Context()), addressID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}

// ListAuditLogs handles GET /api/account/security/logs.
func (h *AccountHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.account.ListAuditLogs(r.Context(), domain.RequireUserID(r.Context()), queryInt(r, "limit", 20))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, logs)
}

// ListReviews handles GET /api/account/reviews.
func (h *AccountHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByUser(r.Context(), domain.RequireUserID(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, r, http.StatusOK, reviews)
}
