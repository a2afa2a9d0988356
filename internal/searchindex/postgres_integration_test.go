//go:build integration

package searchindex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	casemodels "caseflow/internal/cases/models"
	casestore "caseflow/internal/cases/store"
	"caseflow/internal/searchindex"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/testutil/containers"
)

type PostgresIndexSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	cases    *casestore.PostgresStore
	index    *searchindex.PostgresIndex
}

func TestPostgresIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIndexSuite))
}

func (s *PostgresIndexSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.cases = casestore.NewPostgres(s.postgres.DB)
	s.index = searchindex.NewPostgres(s.postgres.DB)
}

func (s *PostgresIndexSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"case_search_index", "case_notes", "subject_principals", "subject_info", "cases",
		"client_preferred_providers", "client_pricing", "delivery_options", "provider_offers", "providers"))
	_, err := s.postgres.Exec(ctx, `INSERT INTO providers (id, name, lite, active) VALUES (1, 'Northwind Research', FALSE, TRUE)`)
	s.Require().NoError(err)
}

func (s *PostgresIndexSuite) TestSyncProjectsJoinedRow() {
	ctx := context.Background()
	c := &casemodels.Case{ClientID: 42, CaseName: "Acme SA", CaseType: "OSRC", Stage: casemodels.StageQualification}
	s.Require().NoError(s.cases.Create(ctx, c))

	info := &casemodels.SubjectInfo{CaseID: c.ID, Name: "Acme Subject", Country: "FR"}
	info.SetPrincipals([]casemodels.Principal{{Name: "Jean"}, {Name: "Marie"}})
	s.Require().NoError(s.cases.SaveSubjectInfo(ctx, info))

	_, err := s.cases.CompareAndSetStage(ctx, c.ID, casemodels.StageQualification, casemodels.StageBudgetApproved,
		func(c *casemodels.Case) { c.AssignedProviderID = 1; c.BudgetAmountCents = 40000 })
	s.Require().NoError(err)

	s.Require().NoError(s.index.Sync(ctx, c.ID))
	s.Require().NoError(s.index.Sync(ctx, c.ID), "sync is idempotent")

	f := searchindex.Filter{ClientID: 42, Text: "mari"}
	f.Normalize()
	page, err := s.index.Search(ctx, f)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	e := page.Entries[0]
	s.Equal(1, page.Total)
	s.Equal("BUDGET_APPROVED", e.Stage)
	s.Equal("Northwind Research", e.ProviderName)
	s.Equal("Jean; Marie", e.PrincipalNames)
	s.Equal(int64(40000), e.BudgetAmountCents)
}

func (s *PostgresIndexSuite) TestSearchFiltersByClientAndEscapesLike() {
	ctx := context.Background()
	for _, c := range []*casemodels.Case{
		{ClientID: 42, CaseName: "100% Widgets", CaseType: "OSRC", Stage: casemodels.StageQualification},
		{ClientID: 42, CaseName: "Widgets Ltd", CaseType: "FIELD", Stage: casemodels.StageAssigned},
		{ClientID: 43, CaseName: "100% Other", CaseType: "OSRC", Stage: casemodels.StageQualification},
	} {
		s.Require().NoError(s.cases.Create(ctx, c))
		s.Require().NoError(s.index.Sync(ctx, c.ID))
	}

	f := searchindex.Filter{ClientID: 42, Text: "100%"}
	f.Normalize()
	page, err := s.index.Search(ctx, f)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal("100% Widgets", page.Entries[0].CaseName)

	f = searchindex.Filter{ClientID: 42, Stage: "assigned"}
	f.Normalize()
	page, err = s.index.Search(ctx, f)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal("FIELD", page.Entries[0].CaseType)
}

func (s *PostgresIndexSuite) TestSyncUnknownCase() {
	err := s.index.Sync(context.Background(), 987654)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
