package models

import (
	"fmt"
	"strings"

	catalogmodels "caseflow/internal/catalog/models"
	dErrors "caseflow/pkg/domain-errors"
)

// validationError joins problems into one coded error.
func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; "))
}

// SubjectInput is the writable part of SubjectInfo.
type SubjectInput struct {
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	Country    string      `json:"country"`
	Principals []Principal `json:"principals"`
}

func (r *SubjectInput) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.Country = catalogmodels.NormalizeCountry(r.Country)
	for i := range r.Principals {
		r.Principals[i].Name = strings.TrimSpace(r.Principals[i].Name)
		r.Principals[i].Relationship = strings.TrimSpace(r.Principals[i].Relationship)
	}
}

func (r *SubjectInput) Problems() []string {
	var problems []string
	if r.Name == "" {
		problems = append(problems, "subject name is required")
	}
	if len(r.Country) != 2 {
		problems = append(problems, "subject country must be a two-letter code")
	}
	if len(r.Principals) > MaxPrincipals {
		problems = append(problems, fmt.Sprintf("at most %d principals are allowed", MaxPrincipals))
	}
	for i, p := range r.Principals {
		if p.Name == "" {
			problems = append(problems, fmt.Sprintf("principal %d: name is required", i+1))
		}
		if p.OwnershipPercent < 0 || p.OwnershipPercent > 100 {
			problems = append(problems, fmt.Sprintf("principal %d: ownership percent must be between 0 and 100", i+1))
		}
	}
	return problems
}

func (r *SubjectInput) Validate() error {
	return validationError(r.Problems())
}

// SubjectInfoRequest replaces a case's subject and all ten principal slots.
type SubjectInfoRequest struct {
	ExpectedStage Stage `json:"expected_stage,omitempty"`
	SubjectInput
}

func (r *SubjectInfoRequest) Validate() error {
	problems := r.Problems()
	if r.ExpectedStage != "" && !r.ExpectedStage.IsValid() {
		problems = append(problems, "unknown expected stage")
	}
	return validationError(problems)
}

type CreateCaseRequest struct {
	CaseName              string        `json:"case_name"`
	CaseType              string        `json:"case_type"`
	Region                string        `json:"region"`
	Department            string        `json:"department"`
	Requestor             string        `json:"requestor"`
	Origin                Origin        `json:"origin"`
	QuestionnaireReturned bool          `json:"questionnaire_returned"`
	LinkedCaseID          int64         `json:"linked_case_id"`
	BillingUnitID         int64         `json:"billing_unit_id"`
	BillingUnitPOID       int64         `json:"billing_unit_po_id"`
	Subject               *SubjectInput `json:"subject,omitempty"`
}

func (r *CreateCaseRequest) Normalize() {
	r.CaseName = strings.TrimSpace(r.CaseName)
	r.CaseType = catalogmodels.NormalizeScope(r.CaseType)
	r.Region = strings.TrimSpace(r.Region)
	r.Department = strings.TrimSpace(r.Department)
	r.Requestor = strings.TrimSpace(r.Requestor)
	if r.Origin == "" {
		r.Origin = OriginManual
	}
	if r.Subject != nil {
		r.Subject.Normalize()
	}
}

func (r *CreateCaseRequest) Validate() error {
	var problems []string
	if r.CaseName == "" {
		problems = append(problems, "case name is required")
	}
	if r.Origin != OriginManual && r.Origin != OriginQuestionnaire {
		problems = append(problems, "origin must be manual or questionnaire")
	}
	if r.LinkedCaseID < 0 || r.BillingUnitID < 0 || r.BillingUnitPOID < 0 {
		problems = append(problems, "ids cannot be negative")
	}
	if r.Subject != nil {
		problems = append(problems, r.Subject.Problems()...)
	}
	return validationError(problems)
}

// UpdateCaseRequest changes editable fields; nil leaves a field untouched.
type UpdateCaseRequest struct {
	ExpectedStage   Stage   `json:"expected_stage,omitempty"`
	CaseName        *string `json:"case_name,omitempty"`
	CaseType        *string `json:"case_type,omitempty"`
	Region          *string `json:"region,omitempty"`
	Department      *string `json:"department,omitempty"`
	LinkedCaseID    *int64  `json:"linked_case_id,omitempty"`
	BillingUnitID   *int64  `json:"billing_unit_id,omitempty"`
	BillingUnitPOID *int64  `json:"billing_unit_po_id,omitempty"`
}

func (r *UpdateCaseRequest) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(r.CaseName)
	trim(r.Region)
	trim(r.Department)
	if r.CaseType != nil {
		*r.CaseType = catalogmodels.NormalizeScope(*r.CaseType)
	}
}

func (r *UpdateCaseRequest) Validate() error {
	var problems []string
	if r.ExpectedStage != "" && !r.ExpectedStage.IsValid() {
		problems = append(problems, "unknown expected stage")
	}
	if r.CaseName != nil && *r.CaseName == "" {
		problems = append(problems, "case name cannot be blank")
	}
	for _, id := range []*int64{r.LinkedCaseID, r.BillingUnitID, r.BillingUnitPOID} {
		if id != nil && *id < 0 {
			problems = append(problems, "ids cannot be negative")
			break
		}
	}
	return validationError(problems)
}

// Apply copies the set fields onto c.
func (r *UpdateCaseRequest) Apply(c *Case) {
	if r.CaseName != nil {
		c.CaseName = *r.CaseName
	}
	if r.CaseType != nil {
		c.CaseType = *r.CaseType
	}
	if r.Region != nil {
		c.Region = *r.Region
	}
	if r.Department != nil {
		c.Department = *r.Department
	}
	if r.LinkedCaseID != nil {
		c.LinkedCaseID = *r.LinkedCaseID
	}
	if r.BillingUnitID != nil {
		c.BillingUnitID = *r.BillingUnitID
	}
	if r.BillingUnitPOID != nil {
		c.BillingUnitPOID = *r.BillingUnitPOID
	}
}

type ReassignRequest struct {
	ExpectedStage Stage  `json:"expected_stage,omitempty"`
	Requestor     string `json:"requestor"`
}

func (r *ReassignRequest) Normalize() { r.Requestor = strings.TrimSpace(r.Requestor) }

func (r *ReassignRequest) Validate() error {
	if r.Requestor == "" {
		return dErrors.New(dErrors.CodeValidation, "requestor is required")
	}
	return nil
}

type LinkThirdPartyRequest struct {
	ExpectedStage       Stage `json:"expected_stage,omitempty"`
	ThirdPartyProfileID int64 `json:"third_party_profile_id"`
}

func (r *LinkThirdPartyRequest) Normalize() {}

func (r *LinkThirdPartyRequest) Validate() error {
	if r.ThirdPartyProfileID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "third_party_profile_id must be positive")
	}
	return nil
}

// ConversionSelections are the user's choices feeding provider selection and pricing.
type ConversionSelections struct {
	ProviderID            int64  `json:"provider_id,omitempty"`
	DeliveryOptionID      int64  `json:"delivery_option_id,omitempty"`
	ExtraSubjects         int    `json:"extra_subjects,omitempty"`
	InvestigatePrincipals bool   `json:"investigate_principals,omitempty"`
	Bilingual             bool   `json:"bilingual,omitempty"`
	CostCountry           string `json:"cost_country,omitempty"`
}

func (s *ConversionSelections) Normalize() {
	s.CostCountry = catalogmodels.NormalizeCountry(s.CostCountry)
}

func (s *ConversionSelections) Problems() []string {
	var problems []string
	if s.ExtraSubjects < 0 {
		problems = append(problems, "extra subjects cannot be negative")
	}
	if s.ProviderID < 0 || s.DeliveryOptionID < 0 {
		problems = append(problems, "ids cannot be negative")
	}
	if s.CostCountry != "" && len(s.CostCountry) != 2 {
		problems = append(problems, "cost country must be a two-letter code")
	}
	return problems
}

// ConvertRequest starts an investigation. When DraftID is set the selections
// come from the stored draft; terms may be accepted on the draft or here.
type ConvertRequest struct {
	ExpectedStage      Stage                `json:"expected_stage,omitempty"`
	DraftID            string               `json:"draft_id,omitempty"`
	Selections         ConversionSelections `json:"selections"`
	TermsAccepted      bool                 `json:"terms_accepted"`
	InvestigatorUserID string               `json:"investigator_user_id,omitempty"`
}

func (r *ConvertRequest) Normalize() {
	r.DraftID = strings.TrimSpace(r.DraftID)
	r.InvestigatorUserID = strings.TrimSpace(r.InvestigatorUserID)
	r.Selections.Normalize()
}

func (r *ConvertRequest) Validate() error {
	problems := r.Selections.Problems()
	if r.ExpectedStage != "" && !r.ExpectedStage.IsValid() {
		problems = append(problems, "unknown expected stage")
	}
	return validationError(problems)
}

type RecalculateRequest struct {
	DraftID    string               `json:"draft_id,omitempty"`
	Selections ConversionSelections `json:"selections"`
}

func (r *RecalculateRequest) Normalize() {
	r.DraftID = strings.TrimSpace(r.DraftID)
	r.Selections.Normalize()
}

func (r *RecalculateRequest) Validate() error {
	return validationError(r.Selections.Problems())
}

type RejectRequest struct {
	ExpectedStage Stage  `json:"expected_stage,omitempty"`
	Reason        string `json:"reason"`
}

func (r *RejectRequest) Normalize() { r.Reason = strings.TrimSpace(r.Reason) }

func (r *RejectRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}
	return nil
}

type AcceptRequest struct {
	ExpectedStage Stage         `json:"expected_stage,omitempty"`
	Outcome       ReviewOutcome `json:"outcome"`
	ReasonCode    string        `json:"reason_code,omitempty"`
}

func (r *AcceptRequest) Normalize() {
	r.Outcome = ReviewOutcome(strings.ToLower(strings.TrimSpace(string(r.Outcome))))
	r.ReasonCode = strings.TrimSpace(r.ReasonCode)
}

func (r *AcceptRequest) Validate() error {
	if !r.Outcome.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "outcome must be pass, fail or neither")
	}
	return nil
}

type TransitionRequest struct {
	Action        Action `json:"action"`
	ExpectedStage Stage  `json:"expected_stage,omitempty"`
}

func (r *TransitionRequest) Normalize() {
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
}

func (r *TransitionRequest) Validate() error {
	if _, ok := LookupTransition(r.Action); !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown action")
	}
	if r.ExpectedStage != "" && !r.ExpectedStage.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown expected stage")
	}
	return nil
}

type ReopenRequest struct {
	ExpectedStage Stage `json:"expected_stage,omitempty"`
}

func (r *ReopenRequest) Normalize() {}

func (r *ReopenRequest) Validate() error {
	if r.ExpectedStage != "" && !r.ExpectedStage.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown expected stage")
	}
	return nil
}

type ApprovalRequest struct {
	Note string `json:"note,omitempty"`
}

func (r *ApprovalRequest) Normalize() { r.Note = strings.TrimSpace(r.Note) }

func (r *ApprovalRequest) Validate() error { return nil }
