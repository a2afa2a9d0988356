package store

import (
	"context"
	"sync"
	"time"

	"caseflow/internal/cases/models"
	"caseflow/pkg/platform/sentinel"
)

// InMemoryStore keeps cases behind a single mutex. CompareAndSetStage reads,
// compares and writes under that lock, as PostgresStore does under its row lock.
type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	nextNote int64
	cases    map[int64]*models.Case
	subjects map[int64]models.SubjectInfo
	notes    map[int64][]models.Note
	now      func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		cases:    make(map[int64]*models.Case),
		subjects: make(map[int64]models.SubjectInfo),
		notes:    make(map[int64][]models.Note),
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

// Create honours a preset ID so tests can address well-known cases.
func (s *InMemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextID++
		for s.cases[s.nextID] != nil {
			s.nextID++
		}
		c.ID = s.nextID
	} else if s.cases[c.ID] != nil {
		return sentinel.ErrConflict
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) CompareAndSetStage(_ context.Context, id int64, expected, next models.Stage, mutate Mutator) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if cur.Stage != expected {
		return nil, sentinel.ErrStaleStage
	}
	upd := prepare(cur, next, mutate)
	upd.UpdatedAt = s.now()
	s.cases[id] = upd
	return upd.Clone(), nil
}

func (s *InMemoryStore) FindSubjectInfo(_ context.Context, caseID int64) (*models.SubjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.subjects[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &info, nil
}

func (s *InMemoryStore) SaveSubjectInfo(_ context.Context, info *models.SubjectInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[info.CaseID]; !ok {
		return sentinel.ErrNotFound
	}
	info.UpdatedAt = s.now()
	s.subjects[info.CaseID] = *info
	return nil
}

func (s *InMemoryStore) AddNote(_ context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNote++
	note.ID = s.nextNote
	note.CreatedAt = s.now()
	s.notes[note.CaseID] = append(s.notes[note.CaseID], *note)
	return nil
}

func (s *InMemoryStore) ListNotes(_ context.Context, caseID int64) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Note(nil), s.notes[caseID]...), nil
}
