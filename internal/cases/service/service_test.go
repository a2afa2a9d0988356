package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"caseflow/internal/cases/models"
	"caseflow/internal/cases/service/mocks"
	"caseflow/internal/cases/store"
	"caseflow/internal/catalog/catalogtest"
	catalogmodels "caseflow/internal/catalog/models"
	"caseflow/internal/drafts"
	"caseflow/internal/notify"
	"caseflow/internal/provider"
	"caseflow/internal/searchindex"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	auditmemory "caseflow/pkg/platform/audit/store/memory"
	txcontext "caseflow/pkg/platform/tx"
	"caseflow/pkg/requestcontext"
	"caseflow/pkg/testutil"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=CaseStore,TxRunner,Indexer,DraftReader

type staticCatalog struct {
	snap *catalogmodels.Snapshot
}

func (c staticCatalog) Snapshot(context.Context) (*catalogmodels.Snapshot, error) {
	return c.snap, nil
}

// stalledRunner never runs the callback and waits for the deadline.
type stalledRunner struct{}

func (stalledRunner) RunInTx(ctx context.Context, _ func(ctx context.Context) error) error {
	<-ctx.Done()
	return ctx.Err()
}

var allCaps = []models.Capability{
	models.CapCreate, models.CapEdit, models.CapConvert, models.CapApproveBudget,
	models.CapSubmitBudget, models.CapInvestigate, models.CapReject, models.CapAccept,
	models.CapReopen, models.CapHold, models.CapClose, models.CapCancel,
}

type ServiceSuite struct {
	suite.Suite
	now      time.Time
	snap     *catalogmodels.Snapshot
	cases    *store.InMemoryStore
	index    *searchindex.MemoryIndex
	audit    *auditmemory.InMemoryStore
	notes    *notify.Recorder
	drafts   *drafts.Service
	service  *Service
	liteCode string
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.snap = catalogtest.Snapshot()
	s.cases = store.NewInMemory().WithClock(clock)
	s.index = searchindex.NewMemory(s.cases, func(id int64) string {
		p, _ := s.snap.Provider(id)
		return p.Name
	})
	s.audit = auditmemory.NewInMemoryStore()
	s.notes = notify.NewRecorder()
	s.drafts = drafts.NewService(drafts.NewInMemoryStore().WithClock(clock), 30*time.Minute)
	s.liteCode = "lite-token-1"
	s.service = s.newService()
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithNotifier(s.notes),
		WithAuditStore(s.audit),
		WithDrafts(s.drafts),
		WithTokenGenerator(func() string { return s.liteCode }),
	}
	return New(s.cases, txcontext.NopRunner{}, staticCatalog{snap: s.snap},
		provider.NewSelector(catalogtest.ProviderHouse), s.index, append(base, opts...)...)
}

func (s *ServiceSuite) actorFor(clientID int64, caps ...models.Capability) context.Context {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	ctx := requestcontext.WithActor(context.Background(), "user-7", clientID, names)
	ctx = requestcontext.WithTime(ctx, s.now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	return requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0")
}

func (s *ServiceSuite) actor(caps ...models.Capability) context.Context {
	return s.actorFor(catalogtest.ClientAcme, caps...)
}

// seed stores a case directly, bypassing the engine, so tests start from
// any stage. An empty country leaves the case without a subject.
func (s *ServiceSuite) seed(id int64, stage models.Stage, scope, country string) *models.Case {
	s.T().Helper()
	ctx := context.Background()
	c := &models.Case{ID: id, ClientID: catalogtest.ClientAcme, CaseName: "Case", CaseType: scope, Stage: stage}
	s.Require().NoError(s.cases.Create(ctx, c))
	if country != "" {
		info := &models.SubjectInfo{CaseID: id, Name: "Subject Ltd", Country: country}
		s.Require().NoError(s.cases.SaveSubjectInfo(ctx, info))
	}
	return c
}

func (s *ServiceSuite) stageOf(id int64) models.Stage {
	c, err := s.cases.FindByID(context.Background(), id)
	s.Require().NoError(err)
	return c.Stage
}

func convertReq() models.ConvertRequest {
	return models.ConvertRequest{TermsAccepted: true}
}

// =============================================================================
// Conversion scenarios
// =============================================================================

func (s *ServiceSuite) TestOnlineResearchInFranceConvertsStraightToBudgetApproved() {
	s.seed(100, models.StageQualification, "OSRC", "FR")

	res := s.service.Convert(s.actor(allCaps...), 100, convertReq())

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(models.StageQualification, res.From)
	s.Equal(models.StageBudgetApproved, res.To)
	s.Require().NotNil(res.Quote)
	s.False(res.Quote.BudgetNegotiation)
	s.Equal(int64(40000), res.Case.BudgetAmountCents)
	s.Equal(catalogtest.ProviderNorthwind, res.Case.AssignedProviderID)
	s.Equal(catalogtest.ProductOSRCFR, res.Case.AssignedProductID)
	s.Require().NotNil(res.Case.DueDate)
	s.Equal(time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), *res.Case.DueDate)
	s.Equal(models.StageBudgetApproved, s.stageOf(100))

	s.Equal(1, s.notes.Count(notify.TemplateConvertedBudgetApproved))
	s.Len(s.notes.Sent(), 1)
	s.Equal(1, s.audit.Count(100, string(audit.EventCaseConverted)))

	entry, ok := s.index.Entry(100)
	s.Require().True(ok)
	s.Equal(string(models.StageBudgetApproved), entry.Stage)
	s.Equal(catalogtest.ProviderNorthwind, entry.AssignedProviderID)
}

func (s *ServiceSuite) TestMissingCatalogEntryIsConfigurationError() {
	s.seed(101, models.StageQualification, "FIELD", "XX")

	res := s.service.Convert(s.actor(allCaps...), 101, convertReq())

	s.Equal(models.OutcomeConfigError, res.Outcome)
	s.Equal(dErrors.CodeConfiguration, res.Code)
	s.Contains(res.Message, "no eligible provider")
	s.Equal(models.StageQualification, s.stageOf(101))
	s.Empty(s.notes.Sent())
	s.Zero(s.audit.Count(101, ""))
	s.Zero(s.index.SyncCount(101))
}

func (s *ServiceSuite) TestSanctionedCountryQueuesOneComplianceNotification() {
	s.seed(102, models.StageQualification, "OSRC", "IR")

	res := s.service.Convert(s.actor(allCaps...), 102, convertReq())

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(models.StageBudgetApproved, s.stageOf(102))
	s.True(res.Case.ComplianceFlagged)
	s.Equal(1, s.notes.Count(notify.TemplateSanctionedCountry))
	s.Equal(1, s.notes.Count(notify.TemplateConvertedBudgetApproved))
	s.Len(s.notes.Sent(), 2)
	s.Equal(1, s.audit.Count(102, string(audit.EventSanctionedCountry)))
}

func (s *ServiceSuite) TestProhibitedCountryNeverChangesStage() {
	s.seed(103, models.StageQualification, "OSRC", "KP")

	res := s.service.Convert(s.actor(allCaps...), 103, convertReq())

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	s.Equal(dErrors.CodePolicyBlocked, res.Code)
	s.Equal(models.StageQualification, s.stageOf(103))
	s.Empty(s.notes.Sent())
	s.Zero(s.index.SyncCount(103))
	s.Equal(1, s.audit.Count(103, string(audit.EventProhibitedCountry)))
}

func (s *ServiceSuite) TestProhibitedCostCountryBlocksNeutralSubject() {
	s.seed(104, models.StageQualification, "OSRC", "FR")
	req := convertReq()
	req.Selections.CostCountry = "kp"

	res := s.service.Convert(s.actor(allCaps...), 104, req)

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	s.Equal(models.StageQualification, s.stageOf(104))
}

func (s *ServiceSuite) TestUnpricedWorkGoesToAssigned() {
	s.seed(105, models.StageUnassigned, "FIELD", "FR")

	res := s.service.Convert(s.actor(allCaps...), 105, convertReq())

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(models.StageAssigned, res.To)
	s.True(res.Quote.BudgetNegotiation)
	s.Equal(catalogtest.ProviderAtlas, res.Case.AssignedProviderID)
	s.Equal(1, s.notes.Count(notify.TemplateConvertedAwaitingBudget))
}

func (s *ServiceSuite) TestLiteProviderGetsAccessTokenAndInvitation() {
	s.seed(106, models.StageQualification, "FIELD", "DE")
	req := convertReq()
	req.InvestigatorUserID = "inv-1"

	res := s.service.Convert(s.actor(allCaps...), 106, req)

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.True(res.Selection.IsLite)
	s.Equal(s.liteCode, res.Case.LiteAccessToken)
	s.Empty(res.Case.InvestigatorUserID, "lite providers work without an internal investigator")
	s.Require().Equal(1, s.notes.Count(notify.TemplateLiteInvitation))
	for _, n := range s.notes.Sent() {
		if n.TemplateID == notify.TemplateLiteInvitation {
			s.Equal(s.liteCode, n.Substitutions["access_token"])
			s.Equal("Lantern Lite", n.Substitutions["provider_name"])
		}
	}
}

func (s *ServiceSuite) TestOverrideProviderIsUsedWhenEligible() {
	s.seed(107, models.StageQualification, "OSRC", "FR")
	req := convertReq()
	req.Selections.ProviderID = catalogtest.ProviderAtlas

	res := s.service.Convert(s.actor(allCaps...), 107, req)

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(provider.TierOverride, res.Selection.Tier)
	s.Equal(int64(42000), res.Case.BudgetAmountCents)
}

// =============================================================================
// Conversion validation
// =============================================================================

func (s *ServiceSuite) TestConversionProblemsAccumulate() {
	s.seed(110, models.StageQualification, "", "")

	res := s.service.Convert(s.actor(allCaps...), 110, models.ConvertRequest{})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.ElementsMatch([]string{
		"subject information is required",
		"case type is required",
		"terms and conditions must be accepted",
	}, res.Problems)
	s.Equal(models.StageQualification, s.stageOf(110))
}

func (s *ServiceSuite) TestClientPolicyRequiresThirdPartyLink() {
	ctx := s.actorFor(catalogtest.ClientGlobex, allCaps...)
	c := &models.Case{ID: 111, ClientID: catalogtest.ClientGlobex, CaseName: "Globex", CaseType: "OSRC", Stage: models.StageQualification}
	s.Require().NoError(s.cases.Create(context.Background(), c))
	s.Require().NoError(s.cases.SaveSubjectInfo(context.Background(), &models.SubjectInfo{CaseID: 111, Name: "S", Country: "FR"}))

	res := s.service.Convert(ctx, 111, convertReq())
	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Contains(res.Problems, "a third-party profile link is required for this client")

	link := s.service.LinkThirdParty(ctx, 111, models.LinkThirdPartyRequest{ThirdPartyProfileID: 900})
	s.Require().Equal(models.OutcomeSuccess, link.Outcome, link.Message)

	res = s.service.Convert(ctx, 111, convertReq())
	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(catalogtest.ProviderAtlas, res.Case.AssignedProviderID)
}

func (s *ServiceSuite) TestConvertFromAssignedIsRejected() {
	s.seed(112, models.StageAssigned, "OSRC", "FR")

	res := s.service.Convert(s.actor(allCaps...), 112, convertReq())

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Equal(models.StageAssigned, s.stageOf(112))
}

func (s *ServiceSuite) TestCasesOfOtherClientsAreNotFound() {
	s.seed(113, models.StageQualification, "OSRC", "FR")

	res := s.service.Convert(s.actorFor(catalogtest.ClientGlobex, allCaps...), 113, convertReq())

	s.Equal(models.OutcomeFault, res.Outcome)
	s.Equal(dErrors.CodeNotFound, res.Code)
}

// =============================================================================
// No-op property
// =============================================================================

func (s *ServiceSuite) TestStaleExpectedStageIsNoOpWithoutSideEffects() {
	seeded := s.seed(120, models.StageBudgetApproved, "OSRC", "FR")
	before, err := s.cases.FindByID(context.Background(), 120)
	s.Require().NoError(err)

	req := convertReq()
	req.ExpectedStage = models.StageQualification
	s.now = s.now.Add(time.Hour)
	res := s.service.Convert(s.actor(allCaps...), seeded.ID, req)

	s.Equal(models.OutcomeNoOp, res.Outcome)
	s.Equal(models.StageBudgetApproved, res.Case.Stage)
	after, err := s.cases.FindByID(context.Background(), 120)
	s.Require().NoError(err)
	s.Equal(before.UpdatedAt, after.UpdatedAt, "a no-op writes nothing")
	s.Empty(s.notes.Sent())
	s.Zero(s.audit.Count(120, ""))
	s.Zero(s.index.SyncCount(120))
}

func (s *ServiceSuite) TestNoOpNeverNotifies() {
	ctrl := gomock.NewController(s.T())
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
	svc := s.newService(WithNotifier(notifier))
	s.seed(121, models.StageAcceptedByRequestor, "OSRC", "FR")

	res := svc.AcceptWithOutcome(s.actor(allCaps...), 121, models.AcceptRequest{
		ExpectedStage: models.StageCompletedByInvestigator,
		Outcome:       models.OutcomePass,
	})

	s.Equal(models.OutcomeNoOp, res.Outcome)
}

func (s *ServiceSuite) TestConcurrentConversionsHaveExactlyOneWinner() {
	s.seed(122, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(allCaps...)

	const racers = 8
	results := make([]models.Result, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			req := convertReq()
			req.ExpectedStage = models.StageQualification
			results[i] = s.service.Convert(ctx, 122, req)
		}()
	}
	close(start)
	wg.Wait()

	wins, noops := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeSuccess:
			wins++
		case models.OutcomeNoOp:
			noops++
		}
	}
	s.Equal(1, wins)
	s.Equal(racers-1, noops)
	s.Equal(1, s.audit.Count(122, string(audit.EventCaseConverted)))
	s.Equal(1, s.notes.Count(notify.TemplateConvertedBudgetApproved))
	s.Equal(1, s.index.SyncCount(122))
}

func (s *ServiceSuite) TestTimedOutWriteReportsUnknownOutcome() {
	svc := New(s.cases, stalledRunner{}, staticCatalog{snap: s.snap},
		provider.NewSelector(catalogtest.ProviderHouse), s.index,
		WithNotifier(s.notes), WithTransitionTimeout(20*time.Millisecond))
	s.seed(123, models.StageQualification, "OSRC", "FR")

	res := svc.Convert(s.actor(allCaps...), 123, convertReq())

	s.Equal(models.OutcomeFault, res.Outcome)
	s.Equal(dErrors.CodeTimeout, res.Code)
	s.Equal("outcome unknown", res.Message)
	s.Empty(s.notes.Sent())
}

func (s *ServiceSuite) TestCatalogFailureIsFault() {
	ctrl := gomock.NewController(s.T())
	catalog := mocks.NewMockCatalogSource(ctrl)
	catalog.EXPECT().Snapshot(gomock.Any()).Return(nil, errors.New("connection refused"))
	svc := New(s.cases, txcontext.NopRunner{}, catalog, provider.NewSelector(0), s.index)
	s.seed(124, models.StageQualification, "OSRC", "FR")

	res := svc.Convert(s.actor(allCaps...), 124, convertReq())

	s.Equal(models.OutcomeFault, res.Outcome)
	s.Equal(dErrors.CodeInternal, res.Code)
	s.Equal(models.StageQualification, s.stageOf(124))
}

// =============================================================================
// Drafts, recalculation and approval requests
// =============================================================================

func (s *ServiceSuite) TestConvertUsesDraftSelections() {
	s.seed(130, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(allCaps...)
	draft, err := s.drafts.Create(ctx, 130, drafts.Selections{
		ProviderID:    catalogtest.ProviderAtlas,
		ExtraSubjects: 1,
		TermsAccepted: true,
	})
	s.Require().NoError(err)

	res := s.service.Convert(ctx, 130, models.ConvertRequest{DraftID: draft.ID})

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(catalogtest.ProviderAtlas, res.Case.AssignedProviderID)
	s.Equal(int64(42000+12000), res.Case.BudgetAmountCents)
	_, err = s.drafts.Get(ctx, draft.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "a used draft is removed")
}

func (s *ServiceSuite) TestDraftForAnotherCaseIsInvalid() {
	s.seed(131, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(allCaps...)
	draft, err := s.drafts.Create(ctx, 999, drafts.Selections{TermsAccepted: true})
	s.Require().NoError(err)

	res := s.service.Convert(ctx, 131, models.ConvertRequest{DraftID: draft.ID})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Contains(res.Problems, "draft belongs to another case")
}

func (s *ServiceSuite) TestExpiredDraftIsInvalid() {
	s.seed(132, models.StageQualification, "OSRC", "FR")
	draft, err := s.drafts.Create(s.actor(allCaps...), 132, drafts.Selections{TermsAccepted: true})
	s.Require().NoError(err)

	s.now = s.now.Add(time.Hour)
	res := s.service.Convert(s.actor(allCaps...), 132, models.ConvertRequest{DraftID: draft.ID})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Contains(res.Problems, "draft not found or expired")
}

func (s *ServiceSuite) TestRecalculateIsPureAndRepeatable() {
	s.seed(133, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(models.CapApproveConvert)
	req := models.RecalculateRequest{Selections: models.ConversionSelections{Bilingual: true}}

	first := s.service.Recalculate(ctx, 133, req)
	second := s.service.Recalculate(ctx, 133, req)

	s.Require().Equal(models.OutcomeSuccess, first.Outcome, first.Message)
	s.Equal(first.Quote, second.Quote)
	s.Equal(int64(40000+10000), first.Quote.BudgetAmountCents)
	s.Equal(7, first.Quote.TurnaroundDays)
	s.Equal(models.StageQualification, s.stageOf(133))
	s.Zero(s.index.SyncCount(133))
}

func (s *ServiceSuite) TestApproverWithoutConvertRightRequestsApproval() {
	s.seed(134, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(models.CapApproveConvert)

	convert := s.service.Convert(ctx, 134, convertReq())
	s.Equal(dErrors.CodeForbidden, convert.Code)
	s.Contains(convert.Message, "request approval")

	res := s.service.RequestApproval(ctx, 134, models.ApprovalRequest{Note: "urgent vendor review"})
	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(models.StageQualification, s.stageOf(134))
	s.Equal(1, s.notes.Count(notify.TemplateApprovalRequested))
	s.Equal(1, s.audit.Count(134, string(audit.EventConversionApprovalRq)))
}

func (s *ServiceSuite) TestConverterDoesNotNeedApproval() {
	s.seed(135, models.StageQualification, "OSRC", "FR")

	res := s.service.RequestApproval(s.actor(models.CapConvert, models.CapApproveConvert), 135, models.ApprovalRequest{})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Empty(s.notes.Sent())
}

func (s *ServiceSuite) TestApprovalRequestNeedsApprovalRight() {
	s.seed(136, models.StageQualification, "OSRC", "FR")

	res := s.service.RequestApproval(s.actor(models.CapEdit), 136, models.ApprovalRequest{})

	s.Equal(dErrors.CodeForbidden, res.Code)
}

// =============================================================================
// Reopen, reject, accept
// =============================================================================

func (s *ServiceSuite) TestReopenLandsInQualificationAndReevaluatesGate() {
	testutil.Given(s.T(), "a canceled case whose subject is in a sanctioned country", func(t *testing.T) {
		c := s.seed(140, models.StageCaseCanceled, "OSRC", "IR")
		_, err := s.cases.CompareAndSetStage(context.Background(), c.ID, models.StageCaseCanceled, models.StageCaseCanceled, func(c *models.Case) {
			c.QuestionnaireReturned = true
		})
		require.NoError(t, err)

		testutil.When(t, "it is reopened", func(t *testing.T) {
			res := s.service.Reopen(s.actor(allCaps...), 140, models.ReopenRequest{})

			testutil.Then(t, "it lands in QUALIFICATION, flagged, with the questionnaire flag cleared", func(t *testing.T) {
				require.Equal(t, models.OutcomeSuccess, res.Outcome, res.Message)
				assert.Equal(t, models.StageQualification, res.To)
				assert.False(t, res.Case.QuestionnaireReturned)
				assert.True(t, res.Case.ComplianceFlagged)
				assert.Equal(t, 1, s.notes.Count(notify.TemplateReopened))
			})
		})
	})
}

func (s *ServiceSuite) TestReopenBlockedForProhibitedSubject() {
	s.seed(141, models.StageClosedHeld, "OSRC", "KP")

	res := s.service.Reopen(s.actor(allCaps...), 141, models.ReopenRequest{})

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	s.Equal(models.StageClosedHeld, s.stageOf(141))
}

func (s *ServiceSuite) TestReopenOnlyFromClosedStages() {
	s.seed(142, models.StageClosed, "OSRC", "FR")

	res := s.service.Reopen(s.actor(allCaps...), 142, models.ReopenRequest{})

	s.Equal(models.OutcomeValidationError, res.Outcome)
}

func (s *ServiceSuite) TestRejectKeepsReasonAsNote() {
	s.seed(143, models.StageAssigned, "OSRC", "FR")
	ctx := s.actor(allCaps...)

	res := s.service.Reject(ctx, 143, models.RejectRequest{Reason: " conflict of interest "})

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal(models.StageUnassigned, s.stageOf(143))
	notes, err := s.service.ListNotes(ctx, 143)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(models.NoteRejection, notes[0].Kind)
	s.Equal("conflict of interest", notes[0].Body)
	s.Equal(1, s.notes.Count(notify.TemplateRejected))
}

func (s *ServiceSuite) TestRejectNeedsReason() {
	s.seed(144, models.StageBudgetApproved, "OSRC", "FR")

	res := s.service.Reject(s.actor(allCaps...), 144, models.RejectRequest{})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Equal(models.StageBudgetApproved, s.stageOf(144))
}

func (s *ServiceSuite) TestAcceptRecordsOutcome() {
	s.seed(145, models.StageCompletedByInvestigator, "OSRC", "FR")
	ctx := s.actor(allCaps...)
	req := models.AcceptRequest{ExpectedStage: models.StageCompletedByInvestigator, Outcome: "PASS", ReasonCode: "clean"}

	first := s.service.AcceptWithOutcome(ctx, 145, req)
	second := s.service.AcceptWithOutcome(ctx, 145, req)

	s.Require().Equal(models.OutcomeSuccess, first.Outcome, first.Message)
	s.Equal(models.OutcomePass, first.Case.Outcome)
	s.Equal("clean", first.Case.OutcomeReason)
	s.Equal(models.OutcomeNoOp, second.Outcome, "a double submit is already processed")
	s.Equal(1, s.notes.Count(notify.TemplateAccepted))
	s.Equal(1, s.audit.Count(145, string(audit.EventCaseAccepted)))
}

// =============================================================================
// Transition table
// =============================================================================

func (s *ServiceSuite) TestInvestigatorWalksTheCaseToCompletion() {
	s.seed(150, models.StageBudgetApproved, "OSRC", "FR")
	ctx := s.actor(allCaps...)

	for _, step := range []struct {
		action models.Action
		want   models.Stage
	}{
		{models.ActionHold, models.StageOnHold},
		{models.ActionResume, models.StageBudgetApproved},
		{models.ActionAcceptAssignment, models.StageAcceptedByInvestigator},
		{models.ActionComplete, models.StageCompletedByInvestigator},
	} {
		res := s.service.Transition(ctx, 150, models.TransitionRequest{Action: step.action})
		s.Require().Equal(models.OutcomeSuccess, res.Outcome, "%s: %s", step.action, res.Message)
		s.Equal(step.want, s.stageOf(150))
	}
	s.Equal(4, s.audit.Count(150, string(audit.EventStageChanged)))
	s.Equal(4, s.notes.Count(notify.TemplateStageChanged))
}

func (s *ServiceSuite) TestTransitionNeedsItsCapability() {
	s.seed(151, models.StageAssigned, "OSRC", "FR")

	res := s.service.Transition(s.actor(models.CapHold), 151, models.TransitionRequest{Action: models.ActionApproveBudget})

	s.Equal(dErrors.CodeForbidden, res.Code)
	s.Equal(models.StageAssigned, s.stageOf(151))
}

func (s *ServiceSuite) TestTransitionFromWrongStageIsInvalid() {
	s.seed(152, models.StageQualification, "OSRC", "FR")

	res := s.service.Transition(s.actor(allCaps...), 152, models.TransitionRequest{Action: models.ActionComplete})

	s.Equal(models.OutcomeValidationError, res.Outcome)
}

func (s *ServiceSuite) TestUnknownActionIsInvalid() {
	s.seed(153, models.StageQualification, "OSRC", "FR")

	res := s.service.Transition(s.actor(allCaps...), 153, models.TransitionRequest{Action: "teleport"})

	s.Equal(models.OutcomeValidationError, res.Outcome)
}

func (s *ServiceSuite) TestForwardTransitionBlockedForProhibitedSubject() {
	s.seed(154, models.StageAssigned, "OSRC", "KP")

	res := s.service.Transition(s.actor(allCaps...), 154, models.TransitionRequest{Action: models.ActionApproveBudget})

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	s.Equal(models.StageAssigned, s.stageOf(154))
	s.Zero(s.audit.Count(154, string(audit.EventStageChanged)))
	s.Zero(s.notes.Count(notify.TemplateStageChanged))
}

func (s *ServiceSuite) TestProhibitedCaseCanStillBeParked() {
	s.seed(155, models.StageAssigned, "OSRC", "KP")
	ctx := s.actor(allCaps...)

	held := s.service.Transition(ctx, 155, models.TransitionRequest{Action: models.ActionHold})
	s.Require().Equal(models.OutcomeSuccess, held.Outcome, held.Message)

	closed := s.service.Transition(ctx, 155, models.TransitionRequest{Action: models.ActionCloseHeld})
	s.Require().Equal(models.OutcomeSuccess, closed.Outcome, closed.Message)
	s.Equal(models.StageClosedHeld, s.stageOf(155))
}

// =============================================================================
// Editing
// =============================================================================

func (s *ServiceSuite) TestCreatePicksInitialStageFromOrigin() {
	ctx := s.actor(allCaps...)

	manual := s.service.Create(ctx, models.CreateCaseRequest{CaseName: "Manual", CaseType: "osrc"})
	returned := s.service.Create(ctx, models.CreateCaseRequest{CaseName: "Q1", Origin: models.OriginQuestionnaire, QuestionnaireReturned: true})
	pending := s.service.Create(ctx, models.CreateCaseRequest{CaseName: "Q2", Origin: models.OriginQuestionnaire})

	s.Require().Equal(models.OutcomeSuccess, manual.Outcome, manual.Message)
	s.Equal(models.StageRequestedDraft, manual.Case.Stage)
	s.Equal("OSRC", manual.Case.CaseType)
	s.Equal("user-7", manual.Case.Requestor)
	s.Equal(models.StageQualification, returned.Case.Stage)
	s.Equal(models.StageUnassigned, pending.Case.Stage)

	entry, ok := s.index.Entry(manual.Case.ID)
	s.Require().True(ok)
	s.Equal("Manual", entry.CaseName)
	s.Equal(1, s.audit.Count(manual.Case.ID, string(audit.EventCaseCreated)))
}

func (s *ServiceSuite) TestCreateWithProhibitedSubjectIsBlocked() {
	res := s.service.Create(s.actor(allCaps...), models.CreateCaseRequest{
		CaseName: "Blocked",
		Subject:  &models.SubjectInput{Name: "Acme Pyongyang", Country: "kp"},
	})

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	page, err := s.index.Search(context.Background(), searchindex.Filter{ClientID: catalogtest.ClientAcme, Limit: 10})
	s.Require().NoError(err)
	s.Zero(page.Total)
}

func (s *ServiceSuite) TestCreateNeedsCapability() {
	res := s.service.Create(s.actor(models.CapEdit), models.CreateCaseRequest{CaseName: "x"})

	s.Equal(dErrors.CodeForbidden, res.Code)
}

func (s *ServiceSuite) TestUpdateOnlyInIntakeStages() {
	s.seed(160, models.StageQualification, "OSRC", "FR")
	s.seed(161, models.StageAssigned, "OSRC", "FR")
	ctx := s.actor(allCaps...)
	name := "Renamed"

	ok := s.service.Update(ctx, 160, models.UpdateCaseRequest{CaseName: &name})
	blocked := s.service.Update(ctx, 161, models.UpdateCaseRequest{CaseName: &name})

	s.Require().Equal(models.OutcomeSuccess, ok.Outcome, ok.Message)
	s.Equal("Renamed", ok.Case.CaseName)
	s.Equal(models.StageQualification, ok.Case.Stage)
	entry, _ := s.index.Entry(160)
	s.Equal("Renamed", entry.CaseName)
	s.Equal(models.OutcomeValidationError, blocked.Outcome)
}

func (s *ServiceSuite) TestCreateRejectsUnknownCaseType() {
	res := s.service.Create(s.actor(allCaps...), models.CreateCaseRequest{CaseName: "Typo", CaseType: "osrcx"})

	s.Equal(models.OutcomeValidationError, res.Outcome)
	s.Equal([]string{"unknown case type OSRCX"}, res.Problems)
	page, err := s.index.Search(context.Background(), searchindex.Filter{ClientID: catalogtest.ClientAcme, Limit: 10})
	s.Require().NoError(err)
	s.Zero(page.Total)
}

func (s *ServiceSuite) TestUpdateRejectsUnknownCaseType() {
	s.seed(165, models.StageQualification, "OSRC", "FR")
	ctx := s.actor(allCaps...)
	unknown, known := "ZZZZ", "field"

	bad := s.service.Update(ctx, 165, models.UpdateCaseRequest{CaseType: &unknown})
	s.Equal(models.OutcomeValidationError, bad.Outcome)
	stored, err := s.cases.FindByID(context.Background(), 165)
	s.Require().NoError(err)
	s.Equal("OSRC", stored.CaseType)

	good := s.service.Update(ctx, 165, models.UpdateCaseRequest{CaseType: &known})
	s.Require().Equal(models.OutcomeSuccess, good.Outcome, good.Message)
	s.Equal("FIELD", good.Case.CaseType)
}

func (s *ServiceSuite) TestSetSubjectInfoFillsSlotsAndFlagsSanctions() {
	s.seed(162, models.StageRequestedDraft, "OSRC", "")
	ctx := s.actor(allCaps...)

	res := s.service.SetSubjectInfo(ctx, 162, models.SubjectInfoRequest{SubjectInput: models.SubjectInput{
		Name:    "Caspian Trading",
		Country: "ir",
		Principals: []models.Principal{
			{Name: "A. Rahimi", IsOwner: true, OwnershipPercent: 60},
			{Name: "B. Karimi", IsDirector: true},
		},
	}})

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.True(res.Case.ComplianceFlagged)
	view, err := s.service.Get(ctx, 162)
	s.Require().NoError(err)
	s.Require().NotNil(view.Subject)
	s.Equal("IR", view.Subject.Country)
	s.Equal(2, view.Subject.PrincipalCount())
	s.True(view.Subject.Principals[2].IsBlank())
	s.Equal(1, s.audit.Count(162, string(audit.EventSubjectInfoUpdated)))
}

func (s *ServiceSuite) TestSetSubjectInfoRejectsProhibitedCountry() {
	s.seed(163, models.StageQualification, "OSRC", "FR")

	res := s.service.SetSubjectInfo(s.actor(allCaps...), 163, models.SubjectInfoRequest{
		SubjectInput: models.SubjectInput{Name: "X", Country: "KP"},
	})

	s.Equal(models.OutcomePolicyBlock, res.Outcome)
	view, err := s.service.Get(s.actor(allCaps...), 163)
	s.Require().NoError(err)
	s.Equal("FR", view.Subject.Country)
}

func (s *ServiceSuite) TestReassignWorksInAnyStage() {
	s.seed(164, models.StageAcceptedByInvestigator, "OSRC", "FR")

	res := s.service.Reassign(s.actor(allCaps...), 164, models.ReassignRequest{Requestor: "jane"})

	s.Require().Equal(models.OutcomeSuccess, res.Outcome, res.Message)
	s.Equal("jane", res.Case.Requestor)
	s.Equal(models.StageAcceptedByInvestigator, res.Case.Stage)
	entry, _ := s.index.Entry(164)
	s.Equal("jane", entry.Requestor)
}
