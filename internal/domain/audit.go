package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded on the account security log.
const (
	AuditActionLogin           = "login"
	AuditActionRegister        = "register"
	AuditActionProfileUpdated  = "profile_updated"
	AuditActionPasswordChanged = "password_changed"
)

// AuditLog is one entry in a user's security log.
type AuditLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Action    string    `json:"action"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
