package models

// Capability is an ACL right supplied by the identity provider in the
// actor's token. The engine only consumes these checks.
type Capability string

const (
	CapCreate         Capability = "case.create"
	CapEdit           Capability = "case.edit"
	CapConvert        Capability = "case.convert"
	CapApproveConvert Capability = "case.approve_convert"
	CapApproveBudget  Capability = "case.approve_budget"
	CapSubmitBudget   Capability = "case.submit_budget"
	CapInvestigate    Capability = "case.investigate"
	CapReject         Capability = "case.reject"
	CapAccept         Capability = "case.accept"
	CapReopen         Capability = "case.reopen"
	CapHold           Capability = "case.hold"
	CapClose          Capability = "case.close"
	CapCancel         Capability = "case.cancel"
	CapSearch         Capability = "case.search"
)
