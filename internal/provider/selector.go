// Package provider resolves which service provider takes a conversion.
package provider

import (
	"fmt"
	"slices"

	"caseflow/internal/catalog/models"
	dErrors "caseflow/pkg/domain-errors"
)

// Tier names the resolution rule that produced a selection.
type Tier string

const (
	TierOverride  Tier = "override"
	TierPrevious  Tier = "previous"
	TierPreferred Tier = "preferred"
	TierLowestID  Tier = "lowest_id"
	TierDefault   Tier = "default"
)

// Catalog is the subset of the catalog snapshot the selector reads.
type Catalog interface {
	Provider(id int64) (models.Provider, bool)
	Offer(providerID int64, scope, country string) (models.Offer, bool)
	AgnosticOffer(providerID int64, scope string) (models.Offer, bool)
	OfferingProviders(scope, country string) []int64
	HasEntry(scope, country string) bool
	PreferredProvider(clientID int64, scope, country string) (int64, bool)
}

type Request struct {
	AllowList          []int64
	Scope              string
	ClientID           int64
	Country            string
	OverrideProviderID int64
	PreviousProviderID int64
}

type Selection struct {
	ProviderID   int64  `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ProductID    int64  `json:"product_id"`
	IsLite       bool   `json:"is_lite"`
	Tier         Tier   `json:"tier"`
}

// Selector applies the resolution order. It holds no per-request state.
type Selector struct {
	defaultProviderID int64
}

// NewSelector builds a selector. A zero defaultProviderID disables the
// default tier.
func NewSelector(defaultProviderID int64) *Selector {
	return &Selector{defaultProviderID: defaultProviderID}
}

// Select resolves one provider. The first satisfied rule wins:
//  1. the explicit override, if allow-listed and offering scope/country
//  2. the previously assigned provider, under the same condition
//  3. the client's preferred provider, under the same condition
//  4. the lowest-ID allow-listed provider offering scope/country
//  5. the system default provider's country-agnostic offer, only when no
//     provider offers scope/country at all and no override was given
//
// Anything else is a configuration error; a zero provider is never returned.
func (s *Selector) Select(cat Catalog, req Request) (Selection, error) {
	if req.Scope == "" {
		return Selection{}, dErrors.New(dErrors.CodeValidation, "case type is required to select a provider")
	}

	eligible := func(id int64) (Selection, bool) {
		if id == 0 || !slices.Contains(req.AllowList, id) {
			return Selection{}, false
		}
		p, ok := cat.Provider(id)
		if !ok {
			return Selection{}, false
		}
		offer, ok := cat.Offer(id, req.Scope, req.Country)
		if !ok {
			return Selection{}, false
		}
		return selection(p, offer), true
	}

	if sel, ok := eligible(req.OverrideProviderID); ok {
		sel.Tier = TierOverride
		return sel, nil
	}
	if sel, ok := eligible(req.PreviousProviderID); ok {
		sel.Tier = TierPrevious
		return sel, nil
	}
	if pref, ok := cat.PreferredProvider(req.ClientID, req.Scope, req.Country); ok {
		if sel, ok := eligible(pref); ok {
			sel.Tier = TierPreferred
			return sel, nil
		}
	}
	for _, id := range cat.OfferingProviders(req.Scope, req.Country) {
		if sel, ok := eligible(id); ok {
			sel.Tier = TierLowestID
			return sel, nil
		}
	}

	if s.defaultProviderID != 0 && req.OverrideProviderID == 0 && !cat.HasEntry(req.Scope, req.Country) {
		if p, ok := cat.Provider(s.defaultProviderID); ok {
			if offer, ok := cat.AgnosticOffer(p.ID, req.Scope); ok {
				sel := selection(p, offer)
				sel.Tier = TierDefault
				return sel, nil
			}
		}
	}

	return Selection{}, dErrors.New(dErrors.CodeConfiguration,
		fmt.Sprintf("no eligible provider for scope %s in %s", req.Scope, displayCountry(req.Country)))
}

func selection(p models.Provider, offer models.Offer) Selection {
	return Selection{
		ProviderID:   p.ID,
		ProviderName: p.Name,
		ProductID:    offer.ProductID,
		IsLite:       p.Lite,
	}
}

func displayCountry(c string) string {
	if c == "" {
		return "any country"
	}
	return c
}
