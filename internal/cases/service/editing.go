package service

import (
	"context"
	"time"

	"caseflow/internal/cases/models"
	"caseflow/internal/compliance"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/requestcontext"
)

// Create opens a case for the actor's client. The origin decides the first
// stage; a subject supplied up front is gated and stored with the case.
func (s *Service) Create(ctx context.Context, req models.CreateCaseRequest) models.Result {
	ctx, c := s.begin(ctx, "create", 0)
	return s.end(ctx, c, s.create(ctx, req))
}

func (s *Service) create(ctx context.Context, req models.CreateCaseRequest) models.Result {
	if err := s.require(ctx, models.CapCreate); err != nil {
		return models.Rejected(err)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Rejected(err)
	}
	clientID := requestcontext.ClientID(ctx)
	if clientID == 0 {
		return models.Rejected(dErrors.New(dErrors.CodeForbidden, "actor is not bound to a client"))
	}

	flagged := false
	if req.Subject != nil || req.CaseType != "" {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return models.Fault(err)
		}
		if req.Subject != nil {
			verdict := compliance.Classify(snap, req.Subject.Country)
			if verdict.Prohibited() {
				return s.blockProhibited(ctx, "create", nil, verdict)
			}
			flagged = verdict.Sanctioned()
		}
		if req.CaseType != "" && !snap.HasScope(req.CaseType) {
			return models.Invalid("unknown case type " + req.CaseType)
		}
	}

	now := requestcontext.Now(ctx)
	requestor := req.Requestor
	if requestor == "" {
		requestor = requestcontext.UserID(ctx)
	}
	c := &models.Case{
		ClientID:              clientID,
		CaseName:              req.CaseName,
		CaseType:              req.CaseType,
		Region:                req.Region,
		Department:            req.Department,
		Stage:                 models.InitialStage(req.Origin, req.QuestionnaireReturned),
		Requestor:             requestor,
		CreatorUID:            requestcontext.UserID(ctx),
		CreatedAt:             now,
		UpdatedAt:             now,
		LinkedCaseID:          req.LinkedCaseID,
		BillingUnitID:         req.BillingUnitID,
		BillingUnitPOID:       req.BillingUnitPOID,
		QuestionnaireReturned: req.QuestionnaireReturned,
		ComplianceFlagged:     flagged,
	}

	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.tx.RunInTx(txCtx, func(ctx context.Context) error {
		if err := s.cases.Create(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
		}
		if req.Subject != nil {
			if err := s.cases.SaveSubjectInfo(ctx, subjectInfo(c.ID, req.Subject, now)); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save subject info")
			}
		}
		if err := s.appendAudit(ctx, audit.EventCaseCreated, "", c, ""); err != nil {
			return err
		}
		if err := s.index.Sync(ctx, c.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync search index")
		}
		return nil
	})
	if err != nil {
		return models.Fault(unknownOutcome(txCtx, err))
	}
	s.logAudit(ctx, string(audit.EventCaseCreated),
		"case_id", c.ID,
		"client_id", c.ClientID,
		"to_stage", c.Stage,
	)
	return models.Success(c, "", c.Stage)
}

// Update changes editable fields while the case is still in an intake stage.
func (s *Service) Update(ctx context.Context, id int64, req models.UpdateCaseRequest) models.Result {
	ctx, c := s.begin(ctx, "update", id)
	return s.end(ctx, c, s.update(ctx, id, req))
}

func (s *Service) update(ctx context.Context, id int64, req models.UpdateCaseRequest) models.Result {
	if err := s.require(ctx, models.CapEdit); err != nil {
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
	if !cur.Stage.Editable() {
		return models.Invalid("case details cannot be edited in stage " + string(cur.Stage))
	}
	if req.CaseType != nil && *req.CaseType != "" {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return models.Fault(err)
		}
		if !snap.HasScope(*req.CaseType) {
			return models.Invalid("unknown case type " + *req.CaseType)
		}
	}
	updated, err := s.commit(ctx, change{
		op:      "update",
		current: cur,
		next:    cur.Stage,
		events:  []audit.AuditEvent{audit.EventCaseUpdated},
		mutate:  req.Apply,
	})
	return s.settle(ctx, "update", cur, updated, err)
}

// SetSubjectInfo replaces the subject and all ten principal slots. The write
// is guarded by the case's stage so it cannot race a conversion.
func (s *Service) SetSubjectInfo(ctx context.Context, id int64, req models.SubjectInfoRequest) models.Result {
	ctx, c := s.begin(ctx, "set_subject", id)
	return s.end(ctx, c, s.setSubjectInfo(ctx, id, req))
}

func (s *Service) setSubjectInfo(ctx context.Context, id int64, req models.SubjectInfoRequest) models.Result {
	if err := s.require(ctx, models.CapEdit); err != nil {
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
	if !cur.Stage.Editable() {
		return models.Invalid("subject information cannot be edited in stage " + string(cur.Stage))
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return models.Fault(err)
	}
	verdict := compliance.Classify(snap, req.Country)
	if verdict.Prohibited() {
		return s.blockProhibited(ctx, "set_subject", cur, verdict)
	}

	info := subjectInfo(cur.ID, &req.SubjectInput, requestcontext.Now(ctx))
	updated, err := s.commit(ctx, change{
		op:      "set_subject",
		current: cur,
		next:    cur.Stage,
		events:  []audit.AuditEvent{audit.EventSubjectInfoUpdated},
		mutate: func(c *models.Case) {
			c.ComplianceFlagged = c.ComplianceFlagged || verdict.Sanctioned()
		},
		also: func(ctx context.Context, _ *models.Case) error {
			if err := s.cases.SaveSubjectInfo(ctx, info); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save subject info")
			}
			return nil
		},
	})
	return s.settle(ctx, "set_subject", cur, updated, err)
}

// Reassign changes the requestor. It is allowed in every stage.
func (s *Service) Reassign(ctx context.Context, id int64, req models.ReassignRequest) models.Result {
	ctx, c := s.begin(ctx, "reassign", id)
	return s.end(ctx, c, s.reassign(ctx, id, req))
}

func (s *Service) reassign(ctx context.Context, id int64, req models.ReassignRequest) models.Result {
	if err := s.require(ctx, models.CapEdit); err != nil {
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
	updated, err := s.commit(ctx, change{
		op:      "reassign",
		current: cur,
		next:    cur.Stage,
		events:  []audit.AuditEvent{audit.EventCaseReassigned},
		reason:  req.Requestor,
		mutate: func(c *models.Case) {
			c.Requestor = req.Requestor
		},
	})
	return s.settle(ctx, "reassign", cur, updated, err)
}

// LinkThirdParty attaches a third-party profile. Clients that require the
// link cannot convert without it, so it is allowed wherever conversion is.
func (s *Service) LinkThirdParty(ctx context.Context, id int64, req models.LinkThirdPartyRequest) models.Result {
	ctx, c := s.begin(ctx, "link_third_party", id)
	return s.end(ctx, c, s.linkThirdParty(ctx, id, req))
}

func (s *Service) linkThirdParty(ctx context.Context, id int64, req models.LinkThirdPartyRequest) models.Result {
	if err := s.require(ctx, models.CapEdit); err != nil {
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
	if !cur.Stage.CanConvert() {
		return models.Invalid("a third party cannot be linked in stage " + string(cur.Stage))
	}
	updated, err := s.commit(ctx, change{
		op:      "link_third_party",
		current: cur,
		next:    cur.Stage,
		events:  []audit.AuditEvent{audit.EventThirdPartyLinked},
		mutate: func(c *models.Case) {
			c.ThirdPartyProfileID = req.ThirdPartyProfileID
		},
	})
	return s.settle(ctx, "link_third_party", cur, updated, err)
}

func subjectInfo(caseID int64, in *models.SubjectInput, now time.Time) *models.SubjectInfo {
	info := &models.SubjectInfo{
		CaseID:    caseID,
		Name:      in.Name,
		Address:   in.Address,
		City:      in.City,
		Country:   in.Country,
		UpdatedAt: now,
	}
	info.SetPrincipals(in.Principals)
	return info
}
