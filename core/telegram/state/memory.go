package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	value   T
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// on access.
type MemoryStore[T any] struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[int64]memoryEntry[T]

	// Now is the clock used for expiry; tests may replace it.
	Now func() time.Time
}

// NewMemoryStore returns an empty store. A non-positive ttl disables expiry.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		ttl: ttl,
		m:   make(map[int64]memoryEntry[T]),
		Now: time.Now,
	}
}

// Load implements Store.
func (s *MemoryStore[T]) Load(_ context.Context, chatID int64) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.m[chatID]
	if !ok {
		return zero, false, nil
	}
	if !e.expires.IsZero() && !s.Now().Before(e.expires) {
		delete(s.m, chatID)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Save implements Store.
func (s *MemoryStore[T]) Save(_ context.Context, chatID int64, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry[T]{value: v}
	if s.ttl > 0 {
		e.expires = s.Now().Add(s.ttl)
	}
	s.m[chatID] = e
	return nil
}

// Clear implements Store.
func (s *MemoryStore[T]) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
