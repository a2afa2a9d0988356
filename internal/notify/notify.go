// Package notify delivers stage-change notifications. Delivery is
// fire-and-forget: a Notifier never returns an error to the caller, and
// failures are only logged.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"caseflow/pkg/requestcontext"
)

// TemplateID names the message template the dispatcher renders.
type TemplateID string

const (
	TemplateConvertedBudgetApproved TemplateID = "case.converted.budget_approved"
	TemplateConvertedAwaitingBudget TemplateID = "case.converted.awaiting_budget"
	TemplateLiteInvitation          TemplateID = "case.lite.invitation"
	TemplateRejected                TemplateID = "case.rejected"
	TemplateAccepted                TemplateID = "case.accepted"
	TemplateReopened                TemplateID = "case.reopened"
	TemplateApprovalRequested       TemplateID = "case.approval_requested"
	TemplateStageChanged            TemplateID = "case.stage_changed"
	TemplateSanctionedCountry       TemplateID = "compliance.sanctioned_country"
)

type Notification struct {
	TemplateID    TemplateID        `json:"template_id"`
	CaseID        int64             `json:"case_id"`
	ClientID      int64             `json:"client_id"`
	Substitutions map[string]string `json:"substitutions"`
}

// Publisher is the asynchronous half of the Kafka producer.
type Publisher interface {
	PublishAsync(ctx context.Context, topic string, key, value []byte, headers map[string]string)
}

// KafkaNotifier publishes notifications as JSON records keyed by case ID so
// every notification for one case lands on the same partition.
type KafkaNotifier struct {
	publisher Publisher
	topic     string
	logger    *slog.Logger
}

func NewKafka(publisher Publisher, topic string, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, topic: topic, logger: logger}
}

type envelope struct {
	Notification
	RequestID string    `json:"request_id,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

func (n *KafkaNotifier) Notify(ctx context.Context, note Notification) {
	value, err := json.Marshal(envelope{
		Notification: note,
		RequestID:    requestcontext.RequestID(ctx),
		QueuedAt:     requestcontext.Now(ctx),
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to encode notification",
			"template_id", note.TemplateID,
			"case_id", note.CaseID,
			"error", err,
		)
		return
	}
	// The request context is cancelled once the response is written; the
	// record must outlive it.
	n.publisher.PublishAsync(context.WithoutCancel(ctx), n.topic,
		[]byte(strconv.FormatInt(note.CaseID, 10)), value,
		map[string]string{"template_id": string(note.TemplateID)},
	)
}

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	n.logger.InfoContext(ctx, "notification queued",
		"template_id", note.TemplateID,
		"case_id", note.CaseID,
		"client_id", note.ClientID,
		"substitutions", note.Substitutions,
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Recorder keeps notifications in memory for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, note Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, note)
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Count returns how many notifications used template.
func (r *Recorder) Count(template TemplateID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.TemplateID == template {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
