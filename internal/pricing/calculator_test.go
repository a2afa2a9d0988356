package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"caseflow/internal/catalog/catalogtest"
	"caseflow/internal/catalog/models"
	dErrors "caseflow/pkg/domain-errors"
)

type CalculatorSuite struct {
	suite.Suite
	catalog *models.Snapshot
	monday  time.Time
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) SetupTest() {
	s.catalog = catalogtest.Snapshot()
	s.monday = time.Date(2026, time.January, 5, 10, 30, 0, 0, time.UTC)
}

func (s *CalculatorSuite) baseInput() Input {
	return Input{
		ProviderID: catalogtest.ProviderNorthwind,
		ClientID:   catalogtest.ClientAcme,
		Scope:      "OSRC",
		Country:    "FR",
		StartDate:  s.monday,
	}
}

// =============================================================================
// Base price
// =============================================================================

func (s *CalculatorSuite) TestOnlineResearchInFranceNeedsNoNegotiation() {
	q, err := Calculate(s.catalog, s.baseInput())
	s.Require().NoError(err)

	s.False(q.BudgetNegotiation)
	s.Equal(BudgetTypeClientRate, q.BudgetType)
	s.Equal(int64(40000), q.BaseCents, "client price overrides the offer's base cost")
	s.Equal(int64(40000), q.BudgetAmountCents)
	s.Equal(catalogtest.ProductOSRCFR, q.ProductID)
	s.Equal(5, q.TurnaroundDays)
	s.Equal(time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), q.DueDate)
	s.Empty(q.Surcharges)
}

func (s *CalculatorSuite) TestOfferPriceWithoutClientOverride() {
	in := s.baseInput()
	in.ProviderID = catalogtest.ProviderAtlas

	q, err := Calculate(s.catalog, in)
	s.Require().NoError(err)
	s.Equal(BudgetTypeFixed, q.BudgetType)
	s.Equal(int64(42000), q.BudgetAmountCents)
}

func (s *CalculatorSuite) TestUnpublishedCostForcesNegotiation() {
	in := s.baseInput()
	in.ProviderID = catalogtest.ProviderAtlas
	in.Scope = "FIELD"

	q, err := Calculate(s.catalog, in)
	s.Require().NoError(err)
	s.True(q.BudgetNegotiation)
	s.Equal(BudgetTypeUnpublished, q.BudgetType)
	s.Zero(q.BudgetAmountCents)
	s.Equal(15, q.TurnaroundDays)
}

func (s *CalculatorSuite) TestAgnosticOfferIsUsedWhenNoCountryOffer() {
	in := s.baseInput()
	in.ProviderID = catalogtest.ProviderHouse
	in.Country = "US"

	q, err := Calculate(s.catalog, in)
	s.Require().NoError(err)
	s.Equal(int64(9001), q.ProductID)
	s.Equal(int64(50000), q.BudgetAmountCents)
	s.Equal(8, q.TurnaroundDays)
}

func (s *CalculatorSuite) TestMissingOfferIsConfigurationError() {
	in := s.baseInput()
	in.Scope = "FIELD"
	in.Country = "XX"

	_, err := Calculate(s.catalog, in)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

// =============================================================================
// Surcharges
// =============================================================================

func (s *CalculatorSuite) TestAllPricedSurcharges() {
	in := s.baseInput()
	in.ExtraSubjects = 2
	in.InvestigatePrincipals = true
	in.PrincipalCount = 3
	in.DeliveryOptionID = catalogtest.DeliveryRush
	in.Bilingual = true

	q, err := Calculate(s.catalog, in)
	s.Require().NoError(err)

	s.False(q.BudgetNegotiation)
	s.Require().Len(q.Surcharges, 4)
	s.Equal(LineItem{Kind: SurchargeExtraSubjects, Description: "Additional subjects", Quantity: 2, UnitCents: 15000, AmountCents: 30000, Priced: true}, q.Surcharges[0])
	s.Equal(int64(15000), q.Surcharges[1].AmountCents)
	s.Equal(int64(20000), q.Surcharges[2].AmountCents)
	s.Equal(int64(10000), q.Surcharges[3].AmountCents)
	s.Equal(int64(40000+30000+15000+20000+10000), q.BudgetAmountCents)
	s.Equal(5-2+2, q.TurnaroundDays, "rush shortens, bilingual lengthens")
}

func (s *CalculatorSuite) TestPrincipalsIgnoredUnlessInvestigated() {
	in := s.baseInput()
	in.PrincipalCount = 4

	q, err := Calculate(s.catalog, in)
	s.Require().NoError(err)
	s.Empty(q.Surcharges)
}

func (s *CalculatorSuite) TestUnpricedSurchargeForcesNegotiation() {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"unpriced delivery option", func(in *Input) { in.DeliveryOptionID = catalogtest.DeliveryCourier }},
		{"unpriced principals", func(in *Input) {
			in.ProviderID = catalogtest.ProviderAtlas
			in.InvestigatePrincipals = true
			in.PrincipalCount = 1
		}},
		{"unpriced bilingual report", func(in *Input) {
			in.ProviderID = catalogtest.ProviderAtlas
			in.Bilingual = true
		}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := s.baseInput()
			tt.mutate(&in)
			q, err := Calculate(s.catalog, in)
			s.Require().NoError(err)
			s.True(q.BudgetNegotiation)
		})
	}
}

func (s *CalculatorSuite) TestForeignDeliveryOptionIsRejected() {
	in := s.baseInput()
	in.ProviderID = catalogtest.ProviderAtlas
	in.DeliveryOptionID = catalogtest.DeliveryRush

	_, err := Calculate(s.catalog, in)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CalculatorSuite) TestInvalidInputs() {
	in := s.baseInput()
	in.ExtraSubjects = -1
	_, err := Calculate(s.catalog, in)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	in = s.baseInput()
	in.StartDate = time.Time{}
	_, err = Calculate(s.catalog, in)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// =============================================================================
// Determinism
// =============================================================================

func (s *CalculatorSuite) TestIdenticalInputsGiveIdenticalQuotes() {
	in := s.baseInput()
	in.ExtraSubjects = 1
	in.DeliveryOptionID = catalogtest.DeliveryCourier
	in.Bilingual = true

	first, err := Calculate(s.catalog, in)
	s.Require().NoError(err)
	for i := 0; i < 5; i++ {
		again, err := Calculate(s.catalog, in)
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func TestFormatCents(t *testing.T) {
	out := FormatCents(123450, "USD", language.English)
	require.Contains(t, out, "USD")
	assert.Contains(t, out, "1,234.50")

	assert.Contains(t, FormatCents(500, "not-a-code", language.English), "USD")
}
