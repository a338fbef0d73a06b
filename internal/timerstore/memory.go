package timerstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. It satisfies the same atomicity
// contract as the durable store and backs tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.Mutex
	starts map[uuid.UUID]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		starts: make(map[uuid.UUID]time.Time),
	}
}

// GetStart returns the stored start instant for the attempt.
func (s *MemoryStore) GetStart(_ context.Context, attemptID uuid.UUID) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, ok := s.starts[attemptID]
	return start, ok, nil
}

// SetStartIfAbsent stores now for the attempt unless a start already
// exists, returning the winning value.
func (s *MemoryStore) SetStartIfAbsent(_ context.Context, attemptID uuid.UUID, now time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if start, ok := s.starts[attemptID]; ok {
		return start, nil
	}
	s.starts[attemptID] = now
	return now, nil
}
