package models

import (
	"caseflow/internal/pricing"
	"caseflow/internal/provider"
	dErrors "caseflow/pkg/domain-errors"
)

// Outcome classifies how an engine call ended.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeNoOp            Outcome = "noop"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeConfigError     Outcome = "config_error"
	OutcomePolicyBlock     Outcome = "policy_block"
	OutcomeFault           Outcome = "fault"
)

// Result is the single return shape of every stage-changing operation.
// NoOp is informational: another request already moved the case.
type Result struct {
	Outcome   Outcome             `json:"outcome"`
	Case      *Case               `json:"case,omitempty"`
	From      Stage               `json:"from_stage,omitempty"`
	To        Stage               `json:"to_stage,omitempty"`
	Problems  []string            `json:"problems,omitempty"`
	Message   string              `json:"message,omitempty"`
	Code      dErrors.Code        `json:"code,omitempty"`
	Quote     *pricing.Quote      `json:"quote,omitempty"`
	Selection *provider.Selection `json:"selection,omitempty"`
	Cause     error               `json:"-"`
}

func (r Result) Succeeded() bool { return r.Outcome == OutcomeSuccess }

// Changed reports whether the call persisted a stage change.
func (r Result) Changed() bool { return r.Outcome == OutcomeSuccess && r.From != r.To }

func Success(c *Case, from, to Stage) Result {
	return Result{Outcome: OutcomeSuccess, Case: c, From: from, To: to}
}

func NoOp(current *Case, msg string) Result {
	return Result{Outcome: OutcomeNoOp, Case: current, Message: msg}
}

func Invalid(problems ...string) Result {
	return Result{
		Outcome:  OutcomeValidationError,
		Problems: problems,
		Message:  "validation failed",
		Code:     dErrors.CodeValidation,
	}
}

func ConfigFailure(err error) Result {
	return Result{
		Outcome: OutcomeConfigError,
		Message: dErrors.MessageOf(err),
		Code:    dErrors.CodeConfiguration,
		Cause:   err,
	}
}

func Blocked(msg string) Result {
	return Result{Outcome: OutcomePolicyBlock, Message: msg, Code: dErrors.CodePolicyBlocked}
}

// Fault reports a storage or infrastructure failure. Timeouts keep the
// timeout code so callers know to re-read the case.
func Fault(err error) Result {
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return Result{Outcome: OutcomeFault, Message: "outcome unknown", Code: dErrors.CodeTimeout, Cause: err}
	}
	return Result{Outcome: OutcomeFault, Message: "internal error", Code: dErrors.CodeInternal, Cause: err}
}

// Rejected maps a coded request error (forbidden, not found, bad request)
// onto a result so every engine call has one return shape.
func Rejected(err error) Result {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		r := Invalid(dErrors.MessageOf(err))
		r.Code = code
		return r
	case dErrors.CodeConfiguration:
		return ConfigFailure(err)
	case dErrors.CodePolicyBlocked:
		return Blocked(dErrors.MessageOf(err))
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		return Fault(err)
	}
	// Forbidden and not-found are request errors, not engine outcomes; they
	// travel as Fault-shaped results carrying their own code.
	return Result{Outcome: OutcomeFault, Message: dErrors.MessageOf(err), Code: code, Cause: err}
}
