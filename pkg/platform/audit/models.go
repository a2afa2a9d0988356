package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This drives retention and which downstream topic consumes the event.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// stage changes, conversions, sanctioned-country flags.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to misuse detection, such as a
	// prohibited country submitted past client-side validation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine edits useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CaseID    int64
	ClientID  int64
	ActorID   string
	Action    string
	FromStage string
	ToStage   string
	Reason    string
	RequestID string
	ClientIP  string
}

// Store persists audit events. Postgres writes land in the transactional outbox.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Case lifecycle events
	EventCaseCreated          AuditEvent = "case_created"
	EventCaseUpdated          AuditEvent = "case_updated"
	EventCaseReassigned       AuditEvent = "case_reassigned"
	EventSubjectInfoUpdated   AuditEvent = "subject_info_updated"
	EventThirdPartyLinked     AuditEvent = "third_party_linked"
	EventCaseConverted        AuditEvent = "case_converted"
	EventCaseReopened         AuditEvent = "case_reopened"
	EventCaseRejected         AuditEvent = "case_rejected"
	EventCaseAccepted         AuditEvent = "case_accepted"
	EventStageChanged         AuditEvent = "stage_changed"
	EventConversionApprovalRq AuditEvent = "conversion_approval_requested"

	// Compliance gate events
	EventSanctionedCountry AuditEvent = "sanctioned_country_flagged"
	EventProhibitedCountry AuditEvent = "prohibited_country_blocked"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventCaseConverted:     CategoryCompliance,
	EventCaseReopened:      CategoryCompliance,
	EventCaseRejected:      CategoryCompliance,
	EventCaseAccepted:      CategoryCompliance,
	EventStageChanged:      CategoryCompliance,
	EventSanctionedCountry: CategoryCompliance,
	EventThirdPartyLinked:  CategoryCompliance,

	EventProhibitedCountry: CategorySecurity,

	EventCaseCreated:          CategoryOperations,
	EventCaseUpdated:          CategoryOperations,
	EventCaseReassigned:       CategoryOperations,
	EventSubjectInfoUpdated:   CategoryOperations,
	EventConversionApprovalRq: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
