package memory

import (
	"context"
	"sync"
)

// WebhookStore is an in-memory store.WebhookStore recording processed
// provider event ids.
type WebhookStore struct {
	mu        sync.Mutex
	processed map[string]struct{}
}

// NewWebhookStore creates an empty webhook dedup store.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{processed: make(map[string]struct{})}
}

// MarkProcessed records the event id. Returns false when the event was
// already recorded; the check and the insert happen under one lock so two
// concurrent deliveries of the same event cannot both win.
func (s *WebhookStore) MarkProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.processed[eventID]; seen {
		return false, nil
	}
	s.processed[eventID] = struct{}{}
	return true, nil
}

// Unmark drops the event id so a retried delivery can claim it again.
func (s *WebhookStore) Unmark(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processed, eventID)
	return nil
}
