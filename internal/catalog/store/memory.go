package store

import (
	"context"
	"sync"

	"caseflow/internal/catalog/models"
)

// InMemoryStore holds catalog data for tests and local runs without Postgres.
type InMemoryStore struct {
	mu    sync.RWMutex
	data  models.Data
	loads int
}

func NewInMemory(d models.Data) *InMemoryStore {
	return &InMemoryStore{data: d}
}

func (s *InMemoryStore) Load(_ context.Context) (models.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.data, nil
}

func (s *InMemoryStore) Replace(_ context.Context, d models.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
	return nil
}

// Loads reports how many times Load ran. Cache tests use it to observe refreshes.
func (s *InMemoryStore) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}
