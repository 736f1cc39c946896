package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process store used in tests and dry runs. It records
// every write so callers can assert on the terminal-write contract.
type MemoryStore struct {
	mu     sync.Mutex
	latest []byte
	writes [][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveTest replaces the latest run output.
func (s *MemoryStore) SaveTest(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	cp := append([]byte(nil), data...)
	s.latest = cp
	s.writes = append(s.writes, cp)

	return nil
}

// LoadTest returns the latest run output.
func (s *MemoryStore) LoadTest(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.latest == nil {
		return nil, ErrNoResults
	}

	return append([]byte(nil), s.latest...), nil
}

// Writes returns every payload saved so far, oldest first.
func (s *MemoryStore) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]byte(nil), s.writes...)
}

// Close marks the store closed; subsequent operations fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	return nil
}
