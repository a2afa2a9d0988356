package models

import "slices"

// Stage is a case's lifecycle state. It changes only through the engine's
// compare-and-set primitive.
type Stage string

const (
	StageRequestedDraft          Stage = "REQUESTED_DRAFT"
	StageQualification           Stage = "QUALIFICATION"
	StageUnassigned              Stage = "UNASSIGNED"
	StageAwaitingBudgetApproval  Stage = "AWAITING_BUDGET_APPROVAL"
	StageAssigned                Stage = "ASSIGNED"
	StageBudgetApproved          Stage = "BUDGET_APPROVED"
	StageAcceptedByInvestigator  Stage = "ACCEPTED_BY_INVESTIGATOR"
	StageCompletedByInvestigator Stage = "COMPLETED_BY_INVESTIGATOR"
	StageAcceptedByRequestor     Stage = "ACCEPTED_BY_REQUESTOR"
	StageOnHold                  Stage = "ON_HOLD"
	StageClosed                  Stage = "CLOSED"
	StageClosedHeld              Stage = "CLOSED_HELD"
	StageClosedInternal          Stage = "CLOSED_INTERNAL"
	StageCaseCanceled            Stage = "CASE_CANCELED"
	StageAIReportGenerated       Stage = "AI_REPORT_GENERATED"
)

var allStages = []Stage{
	StageRequestedDraft, StageQualification, StageUnassigned, StageAwaitingBudgetApproval,
	StageAssigned, StageBudgetApproved, StageAcceptedByInvestigator, StageCompletedByInvestigator,
	StageAcceptedByRequestor, StageOnHold, StageClosed, StageClosedHeld, StageClosedInternal,
	StageCaseCanceled, StageAIReportGenerated,
}

// AllStages lists every stage in lifecycle order.
func AllStages() []Stage {
	return slices.Clone(allStages)
}

func (s Stage) IsValid() bool {
	return slices.Contains(allStages, s)
}

func (s Stage) String() string {
	return string(s)
}

var (
	convertibleFrom = []Stage{
		StageQualification, StageRequestedDraft, StageUnassigned, StageClosed,
		StageClosedHeld, StageClosedInternal, StageCaseCanceled, StageAIReportGenerated,
	}
	reopenableFrom = []Stage{StageCaseCanceled, StageClosedHeld, StageClosedInternal}
	rejectableFrom = []Stage{StageAssigned, StageBudgetApproved, StageAcceptedByInvestigator}
	editableIn     = []Stage{StageRequestedDraft, StageQualification, StageUnassigned}
)

func (s Stage) CanConvert() bool { return slices.Contains(convertibleFrom, s) }
func (s Stage) CanReopen() bool  { return slices.Contains(reopenableFrom, s) }
func (s Stage) CanReject() bool  { return slices.Contains(rejectableFrom, s) }

// Editable reports whether case details may still be changed in this stage.
func (s Stage) Editable() bool { return slices.Contains(editableIn, s) }

// Action names a simple transition that carries no payload.
type Action string

const (
	ActionApproveBudget           Action = "approve_budget"
	ActionSubmitForBudgetApproval Action = "submit_for_budget_approval"
	ActionAcceptAssignment        Action = "accept_assignment"
	ActionComplete                Action = "complete"
	ActionHold                    Action = "hold"
	ActionResume                  Action = "resume"
	ActionClose                   Action = "close"
	ActionCloseHeld               Action = "close_held"
	ActionCloseInternal           Action = "close_internal"
	ActionCancel                  Action = "cancel"
)

// Transition is one row of the static transition table. Gated moves push an
// investigation forward and re-check the subject's country first; hold, close
// and cancel stay open so a prohibited case can always be parked.
type Transition struct {
	Action     Action
	From       []Stage
	To         Stage
	Capability Capability
	Gated      bool
}

var transitions = map[Action]Transition{
	ActionApproveBudget: {
		Action: ActionApproveBudget, To: StageBudgetApproved, Capability: CapApproveBudget, Gated: true,
		From: []Stage{StageAssigned, StageAwaitingBudgetApproval},
	},
	ActionSubmitForBudgetApproval: {
		Action: ActionSubmitForBudgetApproval, To: StageAwaitingBudgetApproval, Capability: CapSubmitBudget, Gated: true,
		From: []Stage{StageAssigned},
	},
	ActionAcceptAssignment: {
		Action: ActionAcceptAssignment, To: StageAcceptedByInvestigator, Capability: CapInvestigate, Gated: true,
		From: []Stage{StageBudgetApproved},
	},
	ActionComplete: {
		Action: ActionComplete, To: StageCompletedByInvestigator, Capability: CapInvestigate, Gated: true,
		From: []Stage{StageAcceptedByInvestigator},
	},
	ActionHold: {
		Action: ActionHold, To: StageOnHold, Capability: CapHold,
		From: []Stage{StageAssigned, StageBudgetApproved, StageAcceptedByInvestigator},
	},
	ActionResume: {
		Action: ActionResume, To: StageBudgetApproved, Capability: CapHold, Gated: true,
		From: []Stage{StageOnHold},
	},
	ActionClose: {
		Action: ActionClose, To: StageClosed, Capability: CapClose,
		From: []Stage{StageAcceptedByRequestor},
	},
	ActionCloseHeld: {
		Action: ActionCloseHeld, To: StageClosedHeld, Capability: CapClose,
		From: []Stage{StageOnHold},
	},
	ActionCloseInternal: {
		Action: ActionCloseInternal, To: StageClosedInternal, Capability: CapClose,
		From: []Stage{StageQualification, StageUnassigned, StageRequestedDraft},
	},
	ActionCancel: {
		Action: ActionCancel, To: StageCaseCanceled, Capability: CapCancel,
		From: []Stage{StageRequestedDraft, StageQualification, StageUnassigned, StageAssigned, StageAwaitingBudgetApproval},
	},
}

// LookupTransition returns the table row for action.
func LookupTransition(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// Allows reports whether the transition may start from stage.
func (t Transition) Allows(from Stage) bool {
	return slices.Contains(t.From, from)
}
