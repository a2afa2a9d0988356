package drafts

import (
	"context"
	"sync"
	"time"

	"caseflow/pkg/platform/sentinel"
)

// InMemoryStore is the draft store used in tests and when Redis is not configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{drafts: make(map[string]Draft), now: time.Now}
}

// WithClock overrides the clock used for expiry checks.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Save(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = *d
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if d.Expired(s.now()) {
		s.mu.Lock()
		delete(s.drafts, id)
		s.mu.Unlock()
		return nil, sentinel.ErrExpired
	}
	return &d, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
