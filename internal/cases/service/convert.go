package service

import (
	"context"

	"caseflow/internal/cases/models"
	catalogmodels "caseflow/internal/catalog/models"
	"caseflow/internal/compliance"
	"caseflow/internal/notify"
	"caseflow/internal/pricing"
	"caseflow/internal/provider"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

// conversionPlan is everything a conversion decides before it writes.
type conversionPlan struct {
	selection provider.Selection
	quote     pricing.Quote
	next      models.Stage
}

// Convert selects a provider, prices the work and moves the case to
// BUDGET_APPROVED, or to ASSIGNED when the budget must be negotiated.
func (s *Service) Convert(ctx context.Context, id int64, req models.ConvertRequest) models.Result {
	ctx, c := s.begin(ctx, "convert", id)
	return s.end(ctx, c, s.convert(ctx, id, req))
}

func (s *Service) convert(ctx context.Context, id int64, req models.ConvertRequest) models.Result {
	if err := s.require(ctx, models.CapConvert); err != nil {
		if s.authorizer.Can(ctx, models.CapApproveConvert) {
			err = dErrors.New(dErrors.CodeForbidden, "conversion needs approval; request approval instead")
		}
		return models.Rejected(err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Rejected(err)
	}
	cur, err := s.loadCase(ctx, id)
	if err != nil {
		return models.Rejected(err)
	}
	if superseded(req.ExpectedStage, cur) {
		return s.alreadyProcessed(cur)
	}
	if !cur.Stage.CanConvert() {
		return models.Invalid("cannot convert a case in stage " + string(cur.Stage))
	}

	subject, err := s.loadSubject(ctx, id)
	if err != nil {
		return models.Fault(err)
	}
	sel, terms, problems, err := s.conversionInputs(ctx, id, req.DraftID, req.Selections, req.TermsAccepted)
	if err != nil {
		return models.Fault(err)
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.Fault(err)
	}
	if subject == nil {
		problems = append(problems, "subject information is required")
	}
	if cur.CaseType == "" {
		problems = append(problems, "case type is required")
	}
	if snap.ClientSettings(cur.ClientID).RequireThirdParty && cur.ThirdPartyProfileID == 0 {
		problems = append(problems, "a third-party profile link is required for this client")
	}
	if !terms {
		problems = append(problems, "terms and conditions must be accepted")
	}
	if len(problems) > 0 {
		return models.Invalid(problems...)
	}

	country := costCountry(sel, subject)
	verdict := compliance.ClassifyAll(snap, subject.Country, country)
	if verdict.Prohibited() {
		return s.blockProhibited(ctx, "convert", cur, verdict)
	}
	plan, err := s.plan(ctx, snap, cur, subject, sel, country)
	if err != nil {
		return models.Rejected(err)
	}

	investigator := req.InvestigatorUserID
	token := ""
	if plan.selection.IsLite {
		investigator = ""
		token = s.newToken()
	}
	events := []audit.AuditEvent{audit.EventCaseConverted}
	sanctioned := ""
	if verdict.Sanctioned() {
		sanctioned = verdict.Country
		events = append(events, audit.EventSanctionedCountry)
	}
	due := plan.quote.DueDate

	updated, err := s.commit(ctx, change{
		op:      "convert",
		current: cur,
		next:    plan.next,
		events:  events,
		reason:  plan.selection.ProviderName,
		mutate: func(c *models.Case) {
			c.BudgetType = string(plan.quote.BudgetType)
			c.BudgetAmountCents = plan.quote.BudgetAmountCents
			c.DueDate = &due
			c.TurnaroundDays = plan.quote.TurnaroundDays
			c.AssignedProviderID = plan.selection.ProviderID
			c.AssignedProductID = plan.selection.ProductID
			c.DeliveryOptionID = sel.DeliveryOptionID
			c.InvestigatorUserID = investigator
			c.LiteAccessToken = token
			c.ComplianceFlagged = c.ComplianceFlagged || sanctioned != ""
			c.Outcome = ""
			c.OutcomeReason = ""
		},
	})
	res := s.settle(ctx, "convert", cur, updated, err)
	if !res.Succeeded() {
		return res
	}
	res.Quote = &plan.quote
	res.Selection = &plan.selection

	if sanctioned != "" && s.metrics != nil {
		s.metrics.IncrementSanctioned()
	}
	if req.DraftID != "" && s.drafts != nil {
		if err := s.drafts.Delete(ctx, req.DraftID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete used draft", "draft_id", req.DraftID, "error", err)
		}
	}
	s.dispatch(ctx, s.conversionNotifications(updated, plan.selection, plan.quote, sanctioned)...)
	return res
}

// Recalculate prices a conversion without writing anything.
func (s *Service) Recalculate(ctx context.Context, id int64, req models.RecalculateRequest) models.Result {
	ctx, c := s.begin(ctx, "recalculate", id)
	return s.end(ctx, c, s.recalculate(ctx, id, req))
}

func (s *Service) recalculate(ctx context.Context, id int64, req models.RecalculateRequest) models.Result {
	if !s.authorizer.Can(ctx, models.CapConvert) && !s.authorizer.Can(ctx, models.CapApproveConvert) {
		return models.Rejected(dErrors.New(dErrors.CodeForbidden, "missing capability "+string(models.CapConvert)))
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Rejected(err)
	}
	cur, err := s.loadCase(ctx, id)
	if err != nil {
		return models.Rejected(err)
	}
	subject, err := s.loadSubject(ctx, id)
	if err != nil {
		return models.Fault(err)
	}
	sel, _, problems, err := s.conversionInputs(ctx, id, req.DraftID, req.Selections, false)
	if err != nil {
		return models.Fault(err)
	}
	if cur.CaseType == "" {
		problems = append(problems, "case type is required")
	}
	if len(problems) > 0 {
		return models.Invalid(problems...)
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.Fault(err)
	}

	country := costCountry(sel, subject)
	subjectCountry := ""
	if subject != nil {
		subjectCountry = subject.Country
	}
	if verdict := compliance.ClassifyAll(snap, subjectCountry, country); verdict.Prohibited() {
		return s.blockProhibited(ctx, "recalculate", cur, verdict)
	}
	plan, err := s.plan(ctx, snap, cur, subject, sel, country)
	if err != nil {
		return models.Rejected(err)
	}
	res := models.Success(cur, cur.Stage, cur.Stage)
	res.Quote = &plan.quote
	res.Selection = &plan.selection
	return res
}

// RequestApproval asks someone with conversion rights to convert the case.
// It is only for actors who hold the approval right but cannot convert.
func (s *Service) RequestApproval(ctx context.Context, id int64, req models.ApprovalRequest) models.Result {
	ctx, c := s.begin(ctx, "request_approval", id)
	return s.end(ctx, c, s.requestApproval(ctx, id, req))
}

func (s *Service) requestApproval(ctx context.Context, id int64, req models.ApprovalRequest) models.Result {
	if s.authorizer.Can(ctx, models.CapConvert) {
		return models.Invalid("actor may convert directly; approval is not needed")
	}
	if err := s.require(ctx, models.CapApproveConvert); err != nil {
		return models.Rejected(err)
	}
	req.Normalize()
	cur, err := s.loadCase(ctx, id)
	if err != nil {
		return models.Rejected(err)
	}
	if !cur.Stage.CanConvert() {
		return models.Invalid("cannot request conversion of a case in stage " + string(cur.Stage))
	}
	if err := s.appendAudit(ctx, audit.EventConversionApprovalRq, cur.Stage, cur, req.Note); err != nil {
		return models.Fault(err)
	}
	s.logAudit(ctx, string(audit.EventConversionApprovalRq),
		"case_id", cur.ID,
		"client_id", cur.ClientID,
		"user_id", requestcontext.UserID(ctx),
	)
	s.dispatch(ctx, notification(notify.TemplateApprovalRequested, cur, map[string]string{
		"requested_by": requestcontext.UserID(ctx),
		"note":         req.Note,
	}))
	return models.Success(cur, cur.Stage, cur.Stage)
}

// conversionInputs resolves the selections and terms flag, reading the draft
// when one is referenced. Problems are user-facing; err is a storage fault.
func (s *Service) conversionInputs(ctx context.Context, caseID int64, draftID string, inline models.ConversionSelections, terms bool) (models.ConversionSelections, bool, []string, error) {
	if draftID == "" {
		return inline, terms, nil, nil
	}
	if s.drafts == nil {
		return inline, terms, []string{"conversion drafts are not available"}, nil
	}
	d, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeNotFound, dErrors.CodeBadRequest:
			return inline, terms, []string{"draft not found or expired"}, nil
		}
		return inline, terms, nil, err
	}
	if d.CaseID != caseID {
		return inline, terms, []string{"draft belongs to another case"}, nil
	}
	sel := models.ConversionSelections{
		ProviderID:            d.Selections.ProviderID,
		DeliveryOptionID:      d.Selections.DeliveryOptionID,
		ExtraSubjects:         d.Selections.ExtraSubjects,
		InvestigatePrincipals: d.Selections.InvestigatePrincipals,
		Bilingual:             d.Selections.Bilingual,
		CostCountry:           d.Selections.CostCountry,
	}
	sel.Normalize()
	return sel, terms || d.Selections.TermsAccepted, sel.Problems(), nil
}

// plan runs provider selection and pricing. Errors carry configuration or
// validation codes.
func (s *Service) plan(ctx context.Context, snap *catalogmodels.Snapshot, c *models.Case, subject *models.SubjectInfo, sel models.ConversionSelections, country string) (conversionPlan, error) {
	selection, err := s.selector.Select(snap, provider.Request{
		AllowList:          snap.ClientSettings(c.ClientID).AllowedProviderIDs,
		Scope:              c.CaseType,
		ClientID:           c.ClientID,
		Country:            country,
		OverrideProviderID: sel.ProviderID,
		PreviousProviderID: c.AssignedProviderID,
	})
	if err != nil {
		return conversionPlan{}, err
	}
	principals := 0
	if subject != nil {
		principals = subject.PrincipalCount()
	}
	quote, err := pricing.Calculate(snap, pricing.Input{
		ProviderID:            selection.ProviderID,
		ClientID:              c.ClientID,
		Scope:                 c.CaseType,
		Country:               country,
		ExtraSubjects:         sel.ExtraSubjects,
		InvestigatePrincipals: sel.InvestigatePrincipals,
		PrincipalCount:        principals,
		DeliveryOptionID:      sel.DeliveryOptionID,
		Bilingual:             sel.Bilingual,
		StartDate:             requestcontext.Now(ctx),
	})
	if err != nil {
		return conversionPlan{}, err
	}
	next := models.StageBudgetApproved
	if quote.BudgetNegotiation {
		next = models.StageAssigned
	}
	return conversionPlan{selection: selection, quote: quote, next: next}, nil
}

// costCountry is the country the work is priced in: the selected cost
// country, else the subject's country.
func costCountry(sel models.ConversionSelections, subject *models.SubjectInfo) string {
	if sel.CostCountry != "" {
		return sel.CostCountry
	}
	if subject != nil {
		return subject.Country
	}
	return ""
}
