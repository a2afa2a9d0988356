// Package drafts persists conversion selections between the recalculate and
// convert steps. A draft is addressed by an opaque ticket and expires.
package drafts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// Selections are the user-chosen conversion inputs.
type Selections struct {
	ProviderID            int64  `json:"provider_id,omitempty"`
	DeliveryOptionID      int64  `json:"delivery_option_id,omitempty"`
	ExtraSubjects         int    `json:"extra_subjects,omitempty"`
	InvestigatePrincipals bool   `json:"investigate_principals,omitempty"`
	Bilingual             bool   `json:"bilingual,omitempty"`
	TermsAccepted         bool   `json:"terms_accepted,omitempty"`
	CostCountry           string `json:"cost_country,omitempty"`
}

// Normalize upper-cases the country code.
func (s *Selections) Normalize() {
	s.CostCountry = strings.ToUpper(strings.TrimSpace(s.CostCountry))
}

func (s *Selections) Validate() error {
	if s.ExtraSubjects < 0 {
		return dErrors.New(dErrors.CodeValidation, "extra_subjects cannot be negative")
	}
	if s.ProviderID < 0 || s.DeliveryOptionID < 0 {
		return dErrors.New(dErrors.CodeValidation, "ids cannot be negative")
	}
	return nil
}

type Draft struct {
	ID         string     `json:"id"`
	CaseID     int64      `json:"case_id"`
	ClientID   int64      `json:"client_id"`
	Selections Selections `json:"selections"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func (d *Draft) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Store persists drafts. Get returns sentinel.ErrNotFound for unknown tickets
// and may return sentinel.ErrExpired for drafts past ExpiresAt.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	Delete(ctx context.Context, id string) error
}

// Service issues and reads drafts on behalf of one client.
type Service struct {
	store Store
	ttl   time.Duration
}

func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{store: store, ttl: ttl}
}

// Create stores a new draft for the actor's client and returns it with its ticket.
func (s *Service) Create(ctx context.Context, caseID int64, sel Selections) (*Draft, error) {
	sel.Normalize()
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	d := &Draft{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		ClientID:   requestcontext.ClientID(ctx),
		Selections: sel,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	return d, nil
}

// Update replaces the selections and extends the expiry.
func (s *Service) Update(ctx context.Context, id string, sel Selections) (*Draft, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sel.Normalize()
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	d.Selections = sel
	d.ExpiresAt = requestcontext.Now(ctx).Add(s.ttl)
	if err := s.store.Save(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	return d, nil
}

// Get loads a draft owned by the actor's client.
func (s *Service) Get(ctx context.Context, id string) (*Draft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid draft ticket")
	}
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeNotFound, "draft not found or expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
	if d.ClientID != requestcontext.ClientID(ctx) || d.Expired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "draft not found or expired")
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete draft")
	}
	return nil
}
