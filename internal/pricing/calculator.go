// Package pricing computes the budget, turnaround and due date of a
// conversion. Calculate is pure: identical inputs and catalog snapshot always
// produce an identical Quote, so the UI can recalculate freely before the
// user commits.
package pricing

import (
	"fmt"
	"time"

	"caseflow/internal/catalog/models"
	dErrors "caseflow/pkg/domain-errors"
)

// BudgetType records where the base price came from.
type BudgetType string

const (
	BudgetTypeFixed       BudgetType = "fixed"
	BudgetTypeClientRate  BudgetType = "client_rate"
	BudgetTypeUnpublished BudgetType = "unpublished"
)

// Surcharge kinds.
const (
	SurchargeExtraSubjects = "extra_subjects"
	SurchargePrincipals    = "principals"
	SurchargeDelivery      = "delivery"
	SurchargeBilingual     = "bilingual"
)

// Catalog is the subset of the catalog snapshot the calculator reads.
type Catalog interface {
	Offer(providerID int64, scope, country string) (models.Offer, bool)
	AgnosticOffer(providerID int64, scope string) (models.Offer, bool)
	DeliveryOption(id int64) (models.DeliveryOption, bool)
	ClientPrice(clientID, providerID int64, scope, country string) (int64, bool)
}

type Input struct {
	ProviderID            int64
	ClientID              int64
	Scope                 string
	Country               string
	ExtraSubjects         int
	InvestigatePrincipals bool
	PrincipalCount        int
	DeliveryOptionID      int64
	Bilingual             bool
	StartDate             time.Time
}

// LineItem is one surcharge. Priced is false when the catalog has no price
// for it; such an item forces budget negotiation.
type LineItem struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
	AmountCents int64  `json:"amount_cents"`
	Priced      bool   `json:"priced"`
}

type Quote struct {
	ProviderID        int64      `json:"provider_id"`
	ProductID         int64      `json:"product_id"`
	BudgetType        BudgetType `json:"budget_type"`
	BaseCents         int64      `json:"base_cents"`
	BudgetAmountCents int64      `json:"budget_amount_cents"`
	Surcharges        []LineItem `json:"surcharges"`
	TurnaroundDays    int        `json:"turnaround_business_days"`
	DueDate           time.Time  `json:"due_date"`
	BudgetNegotiation bool       `json:"budget_negotiation"`
}

// Calculate prices a conversion. The provider's exact scope/country offer is
// used when present, otherwise its country-agnostic offer.
func Calculate(cat Catalog, in Input) (Quote, error) {
	if in.ExtraSubjects < 0 {
		return Quote{}, dErrors.New(dErrors.CodeValidation, "extra subject count cannot be negative")
	}
	if in.PrincipalCount < 0 {
		return Quote{}, dErrors.New(dErrors.CodeValidation, "principal count cannot be negative")
	}
	if in.StartDate.IsZero() {
		return Quote{}, dErrors.New(dErrors.CodeValidation, "start date is required")
	}

	offer, ok := cat.Offer(in.ProviderID, in.Scope, in.Country)
	if !ok {
		offer, ok = cat.AgnosticOffer(in.ProviderID, in.Scope)
	}
	if !ok {
		return Quote{}, dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("provider %d has no offer for scope %s in %s", in.ProviderID, in.Scope, in.Country))
	}

	q := Quote{
		ProviderID:     in.ProviderID,
		ProductID:      offer.ProductID,
		TurnaroundDays: offer.TurnaroundDays,
		Surcharges:     []LineItem{},
	}

	switch {
	case offer.CostMethod == models.CostMethodUnpublished:
		q.BudgetType = BudgetTypeUnpublished
		q.BudgetNegotiation = true
	default:
		q.BudgetType = BudgetTypeFixed
		q.BaseCents = offer.BaseCostCents
		if price, ok := cat.ClientPrice(in.ClientID, in.ProviderID, in.Scope, in.Country); ok {
			q.BudgetType = BudgetTypeClientRate
			q.BaseCents = price
		}
	}

	if in.ExtraSubjects > 0 {
		q.add(lineItem(SurchargeExtraSubjects, "Additional subjects", in.ExtraSubjects, offer.ExtraSubjectCents))
	}
	if in.InvestigatePrincipals && in.PrincipalCount > 0 {
		q.add(lineItem(SurchargePrincipals, "Principal investigations", in.PrincipalCount, offer.PrincipalCents))
	}
	if in.DeliveryOptionID != 0 {
		opt, ok := cat.DeliveryOption(in.DeliveryOptionID)
		if !ok || opt.ProviderID != in.ProviderID {
			return Quote{}, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("delivery option %d is not offered by provider %d", in.DeliveryOptionID, in.ProviderID))
		}
		q.add(lineItem(SurchargeDelivery, opt.Name, 1, opt.SurchargeCents))
		q.TurnaroundDays += opt.DaysDelta
	}
	if in.Bilingual {
		q.add(lineItem(SurchargeBilingual, "Bilingual report", 1, offer.BilingualCents))
		q.TurnaroundDays += offer.BilingualDays
	}

	if q.TurnaroundDays < 1 {
		q.TurnaroundDays = 1
	}
	q.DueDate = AddBusinessDays(in.StartDate, q.TurnaroundDays)

	q.BudgetAmountCents = q.BaseCents
	for _, li := range q.Surcharges {
		q.BudgetAmountCents += li.AmountCents
	}
	return q, nil
}

func lineItem(kind, desc string, qty int, unit *int64) LineItem {
	li := LineItem{Kind: kind, Description: desc, Quantity: qty}
	if unit != nil {
		li.Priced = true
		li.UnitCents = *unit
		li.AmountCents = *unit * int64(qty)
	}
	return li
}

func (q *Quote) add(li LineItem) {
	q.Surcharges = append(q.Surcharges, li)
	if !li.Priced {
		q.BudgetNegotiation = true
	}
}
