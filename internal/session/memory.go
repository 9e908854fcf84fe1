package session

import "sync"

// MemoryStore keeps the stored value in process memory. Writes replace the
// value atomically, so concurrent readers see either the old or the new one.
type MemoryStore struct {
	mu     sync.RWMutex
	stored string
}

// NewMemoryStore returns a store seeded with a previously stored value.
// Pass "" for an empty store.
func NewMemoryStore(stored string) *MemoryStore {
	return &MemoryStore{stored: stored}
}

func (s *MemoryStore) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Normalize(s.stored)
}

func (s *MemoryStore) Save(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	s.stored = token
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.stored = ""
	s.mu.Unlock()

	return nil
}

// Stored returns the raw value exactly as saved.
func (s *MemoryStore) Stored() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stored
}
