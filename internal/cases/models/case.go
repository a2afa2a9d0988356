// Package models holds the case aggregate, its lifecycle stages and the
// request and result types the engine exchanges with its callers.
package models

import (
	"strings"
	"time"
)

// MaxPrincipals is the fixed number of principal slots on a subject.
const MaxPrincipals = 10

// Origin records how a case entered the system; it decides the initial stage.
type Origin string

const (
	OriginManual        Origin = "manual"
	OriginQuestionnaire Origin = "questionnaire"
)

// ReviewOutcome is the requestor's verdict when accepting a completed case.
type ReviewOutcome string

const (
	OutcomePass    ReviewOutcome = "pass"
	OutcomeFail    ReviewOutcome = "fail"
	OutcomeNeither ReviewOutcome = "neither"
)

func (o ReviewOutcome) IsValid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeNeither:
		return true
	}
	return false
}

// Case is the central due-diligence record. Stage is read-only outside the
// store's compare-and-set primitive.
type Case struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	CaseName   string    `json:"case_name"`
	CaseType   string    `json:"case_type"`
	Region     string    `json:"region"`
	Department string    `json:"department"`
	Stage      Stage     `json:"stage"`
	Requestor  string    `json:"requestor"`
	CreatorUID string    `json:"creator_uid"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Conversion payload
	BudgetType         string     `json:"budget_type,omitempty"`
	BudgetAmountCents  int64      `json:"budget_amount_cents"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	TurnaroundDays     int        `json:"turnaround_days"`
	AssignedProviderID int64      `json:"assigned_provider_id,omitempty"`
	AssignedProductID  int64      `json:"assigned_product_id,omitempty"`
	InvestigatorUserID string     `json:"investigator_user_id,omitempty"`
	DeliveryOptionID   int64      `json:"delivery_option_id,omitempty"`
	LiteAccessToken    string     `json:"-"`

	// Linkage
	ThirdPartyProfileID int64 `json:"third_party_profile_id,omitempty"`
	LinkedCaseID        int64 `json:"linked_case_id,omitempty"`
	BillingUnitID       int64 `json:"billing_unit_id,omitempty"`
	BillingUnitPOID     int64 `json:"billing_unit_po_id,omitempty"`

	QuestionnaireReturned bool          `json:"questionnaire_returned"`
	ComplianceFlagged     bool          `json:"compliance_flagged"`
	Outcome               ReviewOutcome `json:"outcome,omitempty"`
	OutcomeReason         string        `json:"outcome_reason,omitempty"`
}

// Clone returns a deep copy so mutators never alias a stored value.
func (c *Case) Clone() *Case {
	cp := *c
	if c.DueDate != nil {
		d := *c.DueDate
		cp.DueDate = &d
	}
	return &cp
}

// InitialStage picks the creation stage from the origin.
func InitialStage(origin Origin, questionnaireReturned bool) Stage {
	if origin != OriginQuestionnaire {
		return StageRequestedDraft
	}
	if questionnaireReturned {
		return StageQualification
	}
	return StageUnassigned
}

// Principal is one positional slot on a subject. A blank slot has a zero value.
type Principal struct {
	Name             string  `json:"name"`
	Relationship     string  `json:"relationship,omitempty"`
	OwnershipPercent float64 `json:"ownership_percent,omitempty"`
	IsOwner          bool    `json:"is_owner,omitempty"`
	IsOfficer        bool    `json:"is_officer,omitempty"`
	IsDirector       bool    `json:"is_director,omitempty"`
	IsKeyManager     bool    `json:"is_key_manager,omitempty"`
}

func (p Principal) IsBlank() bool {
	return p == Principal{}
}

// SubjectInfo is the investigated subject, one per case.
type SubjectInfo struct {
	CaseID     int64                    `json:"case_id"`
	Name       string                   `json:"name"`
	Address    string                   `json:"address,omitempty"`
	City       string                   `json:"city,omitempty"`
	Country    string                   `json:"country"`
	Principals [MaxPrincipals]Principal `json:"principals"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// SetPrincipals fills slots from the front and blank-clears the rest.
func (s *SubjectInfo) SetPrincipals(ps []Principal) {
	for i := range s.Principals {
		if i < len(ps) {
			s.Principals[i] = ps[i]
		} else {
			s.Principals[i] = Principal{}
		}
	}
}

// PrincipalCount counts the non-blank slots.
func (s *SubjectInfo) PrincipalCount() int {
	n := 0
	for _, p := range s.Principals {
		if !p.IsBlank() {
			n++
		}
	}
	return n
}

// PrincipalNames joins non-blank principal names for search.
func (s *SubjectInfo) PrincipalNames() string {
	names := make([]string, 0, MaxPrincipals)
	for _, p := range s.Principals {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, "; ")
}

// NoteKind tags why a note was written.
type NoteKind string

const (
	NoteRejection NoteKind = "rejection"
	NoteOutcome   NoteKind = "outcome"
	NoteGeneral   NoteKind = "general"
)

type Note struct {
	ID        int64     `json:"id"`
	CaseID    int64     `json:"case_id"`
	Kind      NoteKind  `json:"kind"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseView is a case with its subject, as shown on the case page.
type CaseView struct {
	Case    *Case        `json:"case"`
	Subject *SubjectInfo `json:"subject,omitempty"`
}
