package searchindex

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	casemodels "caseflow/internal/cases/models"
	casestore "caseflow/internal/cases/store"
	"caseflow/pkg/testutil"
)

type MemoryIndexSuite struct {
	suite.Suite
	ctx   context.Context
	cases *casestore.InMemoryStore
	index *MemoryIndex
	clock time.Time
}

func TestMemoryIndexSuite(t *testing.T) {
	suite.Run(t, new(MemoryIndexSuite))
}

func (s *MemoryIndexSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	s.cases = casestore.NewInMemory().WithClock(func() time.Time {
		s.clock = s.clock.Add(time.Minute)
		return s.clock
	})
	s.index = NewMemory(s.cases, func(id int64) string {
		if id == 1 {
			return "Northwind Research"
		}
		return ""
	})
}

func (s *MemoryIndexSuite) addCase(clientID int64, name, scope string, stage casemodels.Stage) *casemodels.Case {
	c := &casemodels.Case{ClientID: clientID, CaseName: name, CaseType: scope, Stage: stage}
	s.Require().NoError(s.cases.Create(s.ctx, c))
	s.Require().NoError(s.index.Sync(s.ctx, c.ID))
	return c
}

// =============================================================================
// Sync
// =============================================================================

func (s *MemoryIndexSuite) TestSyncRecomputesWholeRow() {
	c := s.addCase(42, "Acme SA", "OSRC", casemodels.StageQualification)

	info := &casemodels.SubjectInfo{CaseID: c.ID, Name: "Acme SA", Country: "FR"}
	info.SetPrincipals([]casemodels.Principal{{Name: "Jean"}, {Name: "Marie"}})
	s.Require().NoError(s.cases.SaveSubjectInfo(s.ctx, info))
	_, err := s.cases.CompareAndSetStage(s.ctx, c.ID, casemodels.StageQualification, casemodels.StageBudgetApproved,
		func(c *casemodels.Case) { c.AssignedProviderID = 1 })
	s.Require().NoError(err)

	s.Require().NoError(s.index.Sync(s.ctx, c.ID))
	s.Require().NoError(s.index.Sync(s.ctx, c.ID))

	e, ok := s.index.Entry(c.ID)
	s.Require().True(ok)
	s.Equal("BUDGET_APPROVED", e.Stage)
	s.Equal("Northwind Research", e.ProviderName)
	s.Equal("FR", e.SubjectCountry)
	s.Equal("Jean; Marie", e.PrincipalNames)
	s.Equal(3, s.index.SyncCount(c.ID))
}

func (s *MemoryIndexSuite) TestSyncMissingCase() {
	s.Error(s.index.Sync(s.ctx, 404))
}

// =============================================================================
// Search
// =============================================================================

func (s *MemoryIndexSuite) TestSearchFiltersAndPages() {
	s.addCase(42, "Acme SA", "OSRC", casemodels.StageQualification)
	s.addCase(42, "Globex GmbH", "FIELD", casemodels.StageQualification)
	s.addCase(42, "Initech", "OSRC", casemodels.StageAssigned)
	s.addCase(43, "Acme Holdings", "OSRC", casemodels.StageQualification)

	f := Filter{ClientID: 42, CaseType: "osrc"}
	f.Normalize()
	page, err := s.index.Search(s.ctx, f)
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Equal("Initech", page.Entries[0].CaseName, "newest first")

	f = Filter{ClientID: 42, Text: "acme"}
	f.Normalize()
	page, _ = s.index.Search(s.ctx, f)
	s.Require().Len(page.Entries, 1)
	s.Equal(int64(42), page.Entries[0].ClientID)

	f = Filter{ClientID: 42, Limit: 2, Offset: 2}
	f.Normalize()
	page, _ = s.index.Search(s.ctx, f)
	s.Equal(3, page.Total)
	s.Len(page.Entries, 1)
}

func (s *MemoryIndexSuite) TestFilterDefaults() {
	f := Filter{ClientID: 42, Limit: 1000, Offset: -3, Stage: " qualification "}
	f.Normalize()
	s.Equal(maxLimit, f.Limit)
	s.Equal(0, f.Offset)
	s.Equal("QUALIFICATION", f.Stage)

	f = Filter{}
	s.Error(f.Validate())
}

// =============================================================================
// Handler
// =============================================================================

func (s *MemoryIndexSuite) TestHandlerScopesToActorClient() {
	s.addCase(42, "Acme SA", "OSRC", casemodels.StageQualification)
	s.addCase(43, "Acme Holdings", "OSRC", casemodels.StageQualification)

	r := chi.NewRouter()
	NewHandler(s.index, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/cases/search?q=acme"), "u-1", 42, string(casemodels.CapSearch))
	rr := testutil.DoRequest(r, req)
	s.Equal(http.StatusOK, rr.Code)
	page := testutil.UnmarshalResponse[Page](s.T(), rr)
	s.Require().Len(page.Entries, 1)
	s.Equal("Acme SA", page.Entries[0].CaseName)
}

func (s *MemoryIndexSuite) TestHandlerRequiresCapability() {
	r := chi.NewRouter()
	NewHandler(s.index, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/cases/search"), "u-1", 42)
	rr := testutil.DoRequest(r, req)
	s.Equal(http.StatusForbidden, rr.Code)

	req = testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/cases/search?limit=abc"), "u-1", 42, string(casemodels.CapSearch))
	rr = testutil.DoRequest(r, req)
	s.Equal(http.StatusBadRequest, rr.Code)
}
