package feedback

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps counters in process memory. Counts reset on restart.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:     sync.Mutex{},
		counts: make(map[string]int64),
	}
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key]++
	return s.counts[key], nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.counts), nil
}
