package service

import (
	"context"

	"caseflow/internal/cases/models"
	"caseflow/internal/compliance"
	"caseflow/internal/notify"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

// Reopen returns a canceled or closed-held/internal case to QUALIFICATION and
// re-runs the compliance gate on the subject's country.
func (s *Service) Reopen(ctx context.Context, id int64, req models.ReopenRequest) models.Result {
	ctx, c := s.begin(ctx, "reopen", id)
	return s.end(ctx, c, s.reopen(ctx, id, req))
}

func (s *Service) reopen(ctx context.Context, id int64, req models.ReopenRequest) models.Result {
	if err := s.require(ctx, models.CapReopen); err != nil {
		return models.Rejected(err)
	}
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
	if !cur.Stage.CanReopen() {
		return models.Invalid("cannot reopen a case in stage " + string(cur.Stage))
	}
	verdict, err := s.subjectVerdict(ctx, id)
	if err != nil {
		return models.Fault(err)
	}
	if verdict.Prohibited() {
		return s.blockProhibited(ctx, "reopen", cur, verdict)
	}

	updated, err := s.commit(ctx, change{
		op:      "reopen",
		current: cur,
		next:    models.StageQualification,
		events:  []audit.AuditEvent{audit.EventCaseReopened},
		mutate: func(c *models.Case) {
			c.QuestionnaireReturned = false
			c.ComplianceFlagged = verdict.Sanctioned()
		},
	})
	res := s.settle(ctx, "reopen", cur, updated, err)
	if res.Succeeded() {
		s.dispatch(ctx, notification(notify.TemplateReopened, updated, map[string]string{
			"previous_stage": string(cur.Stage),
		}))
	}
	return res
}

// Reject sends an assigned case back to UNASSIGNED with a mandatory reason,
// kept as a case note.
func (s *Service) Reject(ctx context.Context, id int64, req models.RejectRequest) models.Result {
	ctx, c := s.begin(ctx, "reject", id)
	return s.end(ctx, c, s.reject(ctx, id, req))
}

func (s *Service) reject(ctx context.Context, id int64, req models.RejectRequest) models.Result {
	if err := s.require(ctx, models.CapReject); err != nil {
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
	if !cur.Stage.CanReject() {
		return models.Invalid("cannot reject a case in stage " + string(cur.Stage))
	}

	updated, err := s.commit(ctx, change{
		op:      "reject",
		current: cur,
		next:    models.StageUnassigned,
		events:  []audit.AuditEvent{audit.EventCaseRejected},
		reason:  req.Reason,
		mutate: func(c *models.Case) {
			c.InvestigatorUserID = ""
			c.LiteAccessToken = ""
		},
		also: func(ctx context.Context, upd *models.Case) error {
			return s.cases.AddNote(ctx, &models.Note{
				CaseID:    upd.ID,
				Kind:      models.NoteRejection,
				Author:    requestcontext.UserID(ctx),
				Body:      req.Reason,
				CreatedAt: requestcontext.Now(ctx),
			})
		},
	})
	res := s.settle(ctx, "reject", cur, updated, err)
	if res.Succeeded() {
		s.dispatch(ctx, notification(notify.TemplateRejected, updated, map[string]string{
			"reason":         req.Reason,
			"previous_stage": string(cur.Stage),
		}))
	}
	return res
}

// AcceptWithOutcome records the requestor's verdict on a completed case.
func (s *Service) AcceptWithOutcome(ctx context.Context, id int64, req models.AcceptRequest) models.Result {
	ctx, c := s.begin(ctx, "accept", id)
	return s.end(ctx, c, s.accept(ctx, id, req))
}

func (s *Service) accept(ctx context.Context, id int64, req models.AcceptRequest) models.Result {
	if err := s.require(ctx, models.CapAccept); err != nil {
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
	if cur.Stage != models.StageCompletedByInvestigator {
		return models.Invalid("cannot accept a case in stage " + string(cur.Stage))
	}

	ch := change{
		op:      "accept",
		current: cur,
		next:    models.StageAcceptedByRequestor,
		events:  []audit.AuditEvent{audit.EventCaseAccepted},
		reason:  string(req.Outcome),
		mutate: func(c *models.Case) {
			c.Outcome = req.Outcome
			c.OutcomeReason = req.ReasonCode
		},
	}
	if req.ReasonCode != "" {
		ch.also = func(ctx context.Context, upd *models.Case) error {
			return s.cases.AddNote(ctx, &models.Note{
				CaseID:    upd.ID,
				Kind:      models.NoteOutcome,
				Author:    requestcontext.UserID(ctx),
				Body:      string(req.Outcome) + ": " + req.ReasonCode,
				CreatedAt: requestcontext.Now(ctx),
			})
		}
	}
	updated, err := s.commit(ctx, ch)
	res := s.settle(ctx, "accept", cur, updated, err)
	if res.Succeeded() {
		s.dispatch(ctx, notification(notify.TemplateAccepted, updated, map[string]string{
			"outcome":     string(req.Outcome),
			"reason_code": req.ReasonCode,
		}))
	}
	return res
}

// Transition performs one of the payload-free moves in the transition table.
func (s *Service) Transition(ctx context.Context, id int64, req models.TransitionRequest) models.Result {
	req.Normalize()
	op := "transition"
	if _, ok := models.LookupTransition(req.Action); ok {
		op = string(req.Action)
	}
	ctx, c := s.begin(ctx, op, id)
	return s.end(ctx, c, s.transition(ctx, id, req))
}

func (s *Service) transition(ctx context.Context, id int64, req models.TransitionRequest) models.Result {
	if err := req.Validate(); err != nil {
		return models.Rejected(err)
	}
	tr, _ := models.LookupTransition(req.Action)
	if err := s.require(ctx, tr.Capability); err != nil {
		return models.Rejected(err)
	}
	cur, err := s.loadCase(ctx, id)
	if err != nil {
		return models.Rejected(err)
	}
	if superseded(req.ExpectedStage, cur) {
		return s.alreadyProcessed(cur)
	}
	if !tr.Allows(cur.Stage) {
		return models.Invalid("cannot " + string(tr.Action) + " a case in stage " + string(cur.Stage))
	}
	if tr.Gated {
		verdict, err := s.subjectVerdict(ctx, id)
		if err != nil {
			return models.Fault(err)
		}
		if verdict.Prohibited() {
			return s.blockProhibited(ctx, string(tr.Action), cur, verdict)
		}
	}

	updated, err := s.commit(ctx, change{
		op:      string(tr.Action),
		current: cur,
		next:    tr.To,
		events:  []audit.AuditEvent{audit.EventStageChanged},
		reason:  string(tr.Action),
	})
	res := s.settle(ctx, string(tr.Action), cur, updated, err)
	if res.Succeeded() {
		s.dispatch(ctx, notification(notify.TemplateStageChanged, updated, map[string]string{
			"action":         string(tr.Action),
			"previous_stage": string(cur.Stage),
		}))
	}
	return res
}

// subjectVerdict classifies the case's subject country against the current
// catalog. A case without a subject is neutral.
func (s *Service) subjectVerdict(ctx context.Context, caseID int64) (compliance.Verdict, error) {
	subject, err := s.loadSubject(ctx, caseID)
	if err != nil {
		return compliance.Verdict{}, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return compliance.Verdict{}, err
	}
	country := ""
	if subject != nil {
		country = subject.Country
	}
	return compliance.Classify(snap, country), nil
}
