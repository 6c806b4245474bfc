package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/copperline/storefront/internal/domain"
)

// AuditStore is an in-memory store.AuditStore. Entries append per user;
// reads return newest first.
type AuditStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]domain.AuditLog
}

// NewAuditStore creates an empty audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{entries: make(map[uuid.UUID][]domain.AuditLog)}
}

// Append records a security log entry.
func (s *AuditStore) Append(_ context.Context, entry *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.UserID] = append(s.entries[entry.UserID], *entry)
	return nil
}

// ListByUser returns up to limit entries, newest first.
func (s *AuditStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.entries[userID]
	if limit < 1 || limit > len(all) {
		limit = len(all)
	}
	out := make([]domain.AuditLog, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
