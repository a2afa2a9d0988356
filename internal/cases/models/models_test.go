package models

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caseflow/pkg/domain-errors"
)

func TestStageGuards(t *testing.T) {
	for _, s := range AllStages() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Stage("ARCHIVED").IsValid())

	convertible := []Stage{
		StageQualification, StageRequestedDraft, StageUnassigned, StageClosed,
		StageClosedHeld, StageClosedInternal, StageCaseCanceled, StageAIReportGenerated,
	}
	for _, s := range AllStages() {
		assert.Equal(t, slices.Contains(convertible, s), s.CanConvert(), "convert from %s", s)
	}

	reopenable := []Stage{StageCaseCanceled, StageClosedHeld, StageClosedInternal}
	for _, s := range AllStages() {
		assert.Equal(t, slices.Contains(reopenable, s), s.CanReopen(), "reopen from %s", s)
	}
	assert.False(t, StageClosed.CanReopen())

	assert.True(t, StageAcceptedByInvestigator.CanReject())
	assert.False(t, StageCompletedByInvestigator.CanReject())
	assert.True(t, StageUnassigned.Editable())
	assert.False(t, StageAssigned.Editable())
}

func TestTransitionTable(t *testing.T) {
	for _, action := range []Action{
		ActionApproveBudget, ActionSubmitForBudgetApproval, ActionAcceptAssignment, ActionComplete,
		ActionHold, ActionResume, ActionClose, ActionCloseHeld, ActionCloseInternal, ActionCancel,
	} {
		tr, ok := LookupTransition(action)
		require.True(t, ok, action)
		assert.True(t, tr.To.IsValid())
		assert.NotEmpty(t, tr.Capability)
		assert.False(t, tr.Allows(tr.To), "%s must not be a self-loop", action)
	}

	tr, _ := LookupTransition(ActionApproveBudget)
	assert.True(t, tr.Allows(StageAwaitingBudgetApproval))
	assert.False(t, tr.Allows(StageQualification))

	_, ok := LookupTransition("teleport")
	assert.False(t, ok)
}

func TestForwardTransitionsAreGated(t *testing.T) {
	gated := []Action{ActionApproveBudget, ActionSubmitForBudgetApproval, ActionAcceptAssignment, ActionComplete, ActionResume}
	open := []Action{ActionHold, ActionClose, ActionCloseHeld, ActionCloseInternal, ActionCancel}
	for _, action := range gated {
		tr, _ := LookupTransition(action)
		assert.True(t, tr.Gated, action)
	}
	for _, action := range open {
		tr, _ := LookupTransition(action)
		assert.False(t, tr.Gated, action)
	}
}

func TestInitialStage(t *testing.T) {
	assert.Equal(t, StageRequestedDraft, InitialStage(OriginManual, false))
	assert.Equal(t, StageRequestedDraft, InitialStage(OriginManual, true))
	assert.Equal(t, StageQualification, InitialStage(OriginQuestionnaire, true))
	assert.Equal(t, StageUnassigned, InitialStage(OriginQuestionnaire, false))
}

func TestSetPrincipalsBlankClearsTrailingSlots(t *testing.T) {
	var info SubjectInfo
	info.SetPrincipals([]Principal{{Name: "A"}, {Name: "B"}, {Name: "C", IsOwner: true}})
	require.Equal(t, 3, info.PrincipalCount())

	info.SetPrincipals([]Principal{{Name: "A"}})
	assert.Equal(t, 1, info.PrincipalCount())
	assert.Len(t, info.Principals, MaxPrincipals)
	for i := 1; i < MaxPrincipals; i++ {
		assert.True(t, info.Principals[i].IsBlank(), "slot %d", i+1)
	}
	assert.Equal(t, "A", info.PrincipalNames())
}

func TestCloneDoesNotAlias(t *testing.T) {
	due := mustDate(t)
	c := &Case{ID: 1, DueDate: &due}
	cp := c.Clone()
	*cp.DueDate = cp.DueDate.AddDate(0, 0, 1)
	assert.NotEqual(t, *c.DueDate, *cp.DueDate)
}

func TestSubjectInputProblems(t *testing.T) {
	in := SubjectInput{Name: " ", Country: "fra", Principals: make([]Principal, 11)}
	in.Normalize()
	problems := in.Problems()
	assert.Contains(t, problems, "subject name is required")
	assert.Contains(t, problems, "subject country must be a two-letter code")
	assert.Contains(t, problems, "at most 10 principals are allowed")

	err := in.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRequestValidation(t *testing.T) {
	reject := RejectRequest{Reason: "  "}
	reject.Normalize()
	assert.True(t, dErrors.HasCode(reject.Validate(), dErrors.CodeValidation))

	accept := AcceptRequest{Outcome: " PASS "}
	accept.Normalize()
	assert.NoError(t, accept.Validate())

	accept = AcceptRequest{Outcome: "maybe"}
	assert.Error(t, accept.Validate())

	tr := TransitionRequest{Action: "Hold"}
	tr.Normalize()
	assert.NoError(t, tr.Validate())

	conv := ConvertRequest{Selections: ConversionSelections{ExtraSubjects: -1, CostCountry: "fra"}}
	conv.Normalize()
	err := conv.Validate()
	require.Error(t, err)
	assert.Contains(t, dErrors.MessageOf(err), "extra subjects cannot be negative")
	assert.Contains(t, dErrors.MessageOf(err), "cost country")
}

func TestResultShapes(t *testing.T) {
	r := Fault(dErrors.New(dErrors.CodeTimeout, "deadline"))
	assert.Equal(t, OutcomeFault, r.Outcome)
	assert.Equal(t, "outcome unknown", r.Message)
	assert.Equal(t, dErrors.CodeTimeout, r.Code)

	r = Fault(errors.New("disk"))
	assert.Equal(t, dErrors.CodeInternal, r.Code)

	r = Rejected(dErrors.New(dErrors.CodeNotFound, "case not found"))
	assert.Equal(t, dErrors.CodeNotFound, r.Code)

	r = Rejected(dErrors.New(dErrors.CodeConfiguration, "no provider"))
	assert.Equal(t, OutcomeConfigError, r.Outcome)

	assert.True(t, Success(&Case{}, StageQualification, StageBudgetApproved).Changed())
	assert.False(t, Success(&Case{}, StageQualification, StageQualification).Changed())
}

func mustDate(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
}
