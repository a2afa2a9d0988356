package searchindex

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	casemodels "caseflow/internal/cases/models"
	"caseflow/pkg/platform/sentinel"
)

// CaseSource is the authoritative data the in-memory index projects from.
type CaseSource interface {
	FindByID(ctx context.Context, id int64) (*casemodels.Case, error)
	FindSubjectInfo(ctx context.Context, caseID int64) (*casemodels.SubjectInfo, error)
}

// ProviderNamer resolves a provider's display name; "" when unknown.
type ProviderNamer func(providerID int64) string

// MemoryIndex is the projection used with the in-memory case store.
type MemoryIndex struct {
	mu      sync.RWMutex
	source  CaseSource
	names   ProviderNamer
	entries map[int64]Entry
	syncs   map[int64]int
	now     func() time.Time
}

func NewMemory(source CaseSource, names ProviderNamer) *MemoryIndex {
	if names == nil {
		names = func(int64) string { return "" }
	}
	return &MemoryIndex{
		source:  source,
		names:   names,
		entries: make(map[int64]Entry),
		syncs:   make(map[int64]int),
		now:     time.Now,
	}
}

func (x *MemoryIndex) Sync(ctx context.Context, caseID int64) error {
	c, err := x.source.FindByID(ctx, caseID)
	if err != nil {
		return err
	}
	e := Entry{
		CaseID:             c.ID,
		ClientID:           c.ClientID,
		CaseName:           c.CaseName,
		CaseType:           c.CaseType,
		Stage:              string(c.Stage),
		Region:             c.Region,
		Department:         c.Department,
		Requestor:          c.Requestor,
		AssignedProviderID: c.AssignedProviderID,
		ProviderName:       x.names(c.AssignedProviderID),
		BudgetAmountCents:  c.BudgetAmountCents,
		DueDate:            c.DueDate,
		ComplianceFlagged:  c.ComplianceFlagged,
		CaseCreatedAt:      c.CreatedAt,
		IndexedAt:          x.now(),
	}
	info, err := x.source.FindSubjectInfo(ctx, caseID)
	switch {
	case err == nil:
		e.SubjectName = info.Name
		e.SubjectCountry = info.Country
		e.PrincipalNames = info.PrincipalNames()
	case !errors.Is(err, sentinel.ErrNotFound):
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[caseID] = e
	x.syncs[caseID]++
	return nil
}

func (x *MemoryIndex) Search(_ context.Context, f Filter) (Page, error) {
	x.mu.RLock()
	var matched []Entry
	for _, e := range x.entries {
		if f.matches(&e) {
			matched = append(matched, e)
		}
	}
	x.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CaseCreatedAt.Equal(matched[j].CaseCreatedAt) {
			return matched[i].CaseCreatedAt.After(matched[j].CaseCreatedAt)
		}
		return matched[i].CaseID > matched[j].CaseID
	})

	page := Page{Entries: []Entry{}, Total: len(matched), Limit: f.Limit, Offset: f.Offset}
	if f.Offset < len(matched) {
		end := min(f.Offset+f.Limit, len(matched))
		page.Entries = append(page.Entries, matched[f.Offset:end]...)
	}
	return page, nil
}

// Entry returns the projection row for a case.
func (x *MemoryIndex) Entry(caseID int64) (Entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.entries[caseID]
	return e, ok
}

// SyncCount reports how many times Sync ran for a case.
func (x *MemoryIndex) SyncCount(caseID int64) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.syncs[caseID]
}
