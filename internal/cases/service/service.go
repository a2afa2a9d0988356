// Package service is the case stage-transition engine. Every stage change and
// every edit of an existing case goes through one compare-and-set write; the
// audit record and the search index row commit in the same transaction, and
// notifications go out only after the commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/cases/metrics"
	"caseflow/internal/cases/models"
	"caseflow/internal/cases/store"
	catalogmodels "caseflow/internal/catalog/models"
	"caseflow/internal/compliance"
	"caseflow/internal/drafts"
	"caseflow/internal/notify"
	"caseflow/internal/provider"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/audit"
	"caseflow/pkg/platform/middleware/metadata"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

const defaultTransitionTimeout = 10 * time.Second

type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id int64) (*models.Case, error)
	CompareAndSetStage(ctx context.Context, id int64, expected, next models.Stage, mutate store.Mutator) (*models.Case, error)
	FindSubjectInfo(ctx context.Context, caseID int64) (*models.SubjectInfo, error)
	SaveSubjectInfo(ctx context.Context, info *models.SubjectInfo) error
	AddNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, caseID int64) ([]models.Note, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalogmodels.Snapshot, error)
}

// Indexer recomputes one search projection row from authoritative data.
type Indexer interface {
	Sync(ctx context.Context, caseID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}

type DraftReader interface {
	Get(ctx context.Context, id string) (*drafts.Draft, error)
	Delete(ctx context.Context, id string) error
}

// Authorizer answers ACL questions for the actor in ctx.
type Authorizer interface {
	Can(ctx context.Context, capability models.Capability) bool
}

// ContextAuthorizer reads the capabilities the auth middleware put in the context.
type ContextAuthorizer struct{}

func (ContextAuthorizer) Can(ctx context.Context, capability models.Capability) bool {
	return requestcontext.HasCapability(ctx, string(capability))
}

// Service orchestrates case creation, editing and stage transitions.
type Service struct {
	cases    CaseStore
	tx       TxRunner
	catalog  CatalogSource
	selector *provider.Selector
	index    Indexer

	notifier   Notifier
	audit      audit.Store
	drafts     DraftReader
	authorizer Authorizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	timeout    time.Duration
	currency   string
	newToken   func() string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithAuditStore(a audit.Store) Option {
	return func(s *Service) {
		s.audit = a
	}
}

func WithDrafts(d DraftReader) Option {
	return func(s *Service) {
		s.drafts = d
	}
}

func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) {
		s.authorizer = a
	}
}

// WithTransitionTimeout bounds each write transaction. A write that times out
// is reported as a fault with an unknown outcome.
func WithTransitionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCurrency sets the ISO code used to format budgets in notifications.
func WithCurrency(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.currency = code
		}
	}
}

// WithTokenGenerator replaces the lite access token source.
func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newToken = fn
	}
}

// New constructs a Service.
func New(cases CaseStore, tx TxRunner, catalog CatalogSource, selector *provider.Selector, index Indexer, opts ...Option) *Service {
	s := &Service{
		cases:      cases,
		tx:         tx,
		catalog:    catalog,
		selector:   selector,
		index:      index,
		authorizer: ContextAuthorizer{},
		tracer:     otel.Tracer("caseflow/cases"),
		timeout:    defaultTransitionTimeout,
		currency:   "USD",
		newToken:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Call bookkeeping
// -----------------------------------------------------------------------------

type call struct {
	op    string
	start time.Time
	span  trace.Span
}

func (s *Service) begin(ctx context.Context, op string, caseID int64) (context.Context, *call) {
	ctx, span := s.tracer.Start(ctx, "cases."+op, trace.WithAttributes(
		attribute.Int64("case.id", caseID),
		attribute.String("request.id", requestcontext.RequestID(ctx)),
	))
	return ctx, &call{op: op, start: time.Now(), span: span}
}

func (s *Service) end(ctx context.Context, c *call, res models.Result) models.Result {
	c.span.SetAttributes(attribute.String("case.outcome", string(res.Outcome)))
	if res.Outcome == models.OutcomeFault {
		if res.Cause != nil {
			c.span.RecordError(res.Cause)
		}
		c.span.SetStatus(codes.Error, res.Message)
		if s.logger != nil && (res.Code == dErrors.CodeInternal || res.Code == dErrors.CodeTimeout) {
			s.logger.ErrorContext(ctx, "case operation failed",
				"operation", c.op,
				"code", res.Code,
				"error", res.Cause,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	c.span.End()
	if s.metrics != nil {
		s.metrics.Observe(c.op, string(res.Outcome), c.start)
	}
	return res
}

// -----------------------------------------------------------------------------
// Shared steps
// -----------------------------------------------------------------------------

func (s *Service) require(ctx context.Context, capability models.Capability) error {
	if !s.authorizer.Can(ctx, capability) {
		return dErrors.New(dErrors.CodeForbidden, "missing capability "+string(capability))
	}
	return nil
}

// loadCase reads a case owned by the actor's client. Cases of other clients
// are reported as not found.
func (s *Service) loadCase(ctx context.Context, id int64) (*models.Case, error) {
	c, err := s.cases.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	if c.ClientID != requestcontext.ClientID(ctx) {
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return c, nil
}

// loadSubject returns nil without error when the case has no subject yet.
func (s *Service) loadSubject(ctx context.Context, caseID int64) (*models.SubjectInfo, error) {
	info, err := s.cases.FindSubjectInfo(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject info")
	}
	return info, nil
}

func (s *Service) snapshot(ctx context.Context) (*catalogmodels.Snapshot, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}
	return snap, nil
}

// superseded reports whether the caller's view of the case is out of date.
func superseded(expected models.Stage, c *models.Case) bool {
	return expected != "" && expected != c.Stage
}

func (s *Service) alreadyProcessed(c *models.Case) models.Result {
	return models.NoOp(c, "case already processed; now in stage "+string(c.Stage))
}

// change is one compare-and-set write and the side effects that commit with it.
type change struct {
	op      string
	current *models.Case
	next    models.Stage
	mutate  store.Mutator
	events  []audit.AuditEvent
	reason  string
	also    func(ctx context.Context, updated *models.Case) error
}

// commit runs the compare-and-set, its extra writes, the audit append and the
// index sync in one transaction. A lost race returns sentinel.ErrStaleStage
// with nothing written.
func (s *Service) commit(ctx context.Context, ch change) (*models.Case, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var updated *models.Case
	err := s.tx.RunInTx(txCtx, func(ctx context.Context) error {
		upd, err := s.cases.CompareAndSetStage(ctx, ch.current.ID, ch.current.Stage, ch.next, ch.mutate)
		if err != nil {
			return err
		}
		if ch.also != nil {
			if err := ch.also(ctx, upd); err != nil {
				return err
			}
		}
		for _, event := range ch.events {
			if err := s.appendAudit(ctx, event, ch.current.Stage, upd, ch.reason); err != nil {
				return err
			}
		}
		if err := s.index.Sync(ctx, upd.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync search index")
		}
		updated = upd
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrStaleStage) {
			return nil, err
		}
		return nil, unknownOutcome(txCtx, err)
	}
	for _, event := range ch.events {
		s.logAudit(ctx, string(event),
			"operation", ch.op,
			"case_id", updated.ID,
			"client_id", updated.ClientID,
			"from_stage", ch.current.Stage,
			"to_stage", updated.Stage,
		)
	}
	return updated, nil
}

// unknownOutcome marks a failure caused by the transaction deadline. The
// commit may or may not have happened; callers must re-read the case.
func unknownOutcome(txCtx context.Context, err error) error {
	if txCtx.Err() != nil && !dErrors.HasCode(err, dErrors.CodeTimeout) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "outcome unknown")
	}
	return err
}

// settle turns the outcome of commit into a Result. A stale write re-reads the
// case so the caller sees where it went.
func (s *Service) settle(ctx context.Context, op string, cur, updated *models.Case, err error) models.Result {
	if errors.Is(err, sentinel.ErrStaleStage) {
		if s.metrics != nil {
			s.metrics.IncrementStaleStage(op)
		}
		latest, rerr := s.cases.FindByID(ctx, cur.ID)
		if rerr != nil {
			latest = cur
		}
		return s.alreadyProcessed(latest)
	}
	if err != nil {
		return models.Fault(err)
	}
	return models.Success(updated, cur.Stage, updated.Stage)
}

func (s *Service) appendAudit(ctx context.Context, event audit.AuditEvent, from models.Stage, c *models.Case, reason string) error {
	if s.audit == nil {
		return nil
	}
	err := s.audit.Append(ctx, audit.Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		CaseID:    c.ID,
		ClientID:  c.ClientID,
		ActorID:   requestcontext.UserID(ctx),
		Action:    string(event),
		FromStage: string(from),
		ToStage:   string(c.Stage),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}

// blockProhibited records a prohibited-country submission. Client-side
// validation hides these countries, so reaching here is treated as a
// possible evasion attempt.
func (s *Service) blockProhibited(ctx context.Context, op string, c *models.Case, verdict compliance.Verdict) models.Result {
	agent := metadata.ParseUserAgent(requestcontext.UserAgent(ctx))
	if s.logger != nil {
		s.logger.WarnContext(ctx, "prohibited country submitted",
			"event", string(audit.EventProhibitedCountry),
			"log_type", "security",
			"operation", op,
			"country", verdict.Country,
			"user_id", requestcontext.UserID(ctx),
			"client_id", requestcontext.ClientID(ctx),
			"client_ip", requestcontext.ClientIP(ctx),
			"browser", agent.Browser,
			"browser_version", agent.BrowserVersion,
			"os", agent.OS,
			"bot", agent.Bot,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementPolicyBlock()
	}
	if s.audit != nil {
		ev := audit.Event{
			Category:  audit.EventProhibitedCountry.Category(),
			Timestamp: requestcontext.Now(ctx),
			ClientID:  requestcontext.ClientID(ctx),
			ActorID:   requestcontext.UserID(ctx),
			Action:    string(audit.EventProhibitedCountry),
			Reason:    "country " + verdict.Country + " is prohibited",
			RequestID: requestcontext.RequestID(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
		}
		if c != nil {
			ev.CaseID = c.ID
			ev.FromStage = string(c.Stage)
			ev.ToStage = string(c.Stage)
		}
		if err := s.audit.Append(ctx, ev); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record policy block", "error", err)
		}
	}
	return models.Blocked("country " + verdict.Country + " is prohibited")
}

// dispatch sends notifications after a successful commit. Failures stay
// inside the notifier.
func (s *Service) dispatch(ctx context.Context, notes ...notify.Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range notes {
		s.notifier.Notify(ctx, n)
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (s *Service) Get(ctx context.Context, id int64) (*models.CaseView, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := s.loadSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CaseView{Case: c, Subject: info}, nil
}

func (s *Service) ListNotes(ctx context.Context, id int64) ([]models.Note, error) {
	if _, err := s.loadCase(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.cases.ListNotes(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notes")
	}
	return notes, nil
}
