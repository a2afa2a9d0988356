package models

import (
	"slices"
	"time"
)

type offerKey struct {
	providerID int64
	scope      string
	country    string
}

type priceKey struct {
	clientID   int64
	providerID int64
	scope      string
	country    string
}

type prefKey struct {
	clientID int64
	scope    string
	country  string
}

// Snapshot is an immutable, indexed view of the catalog. Callers share one
// snapshot across goroutines; nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	countries map[string]Country
	providers map[int64]Provider
	offers    map[offerKey]Offer
	scopes    map[string]struct{}
	delivery  map[int64]DeliveryOption
	prices    map[priceKey]int64
	settings  map[int64]ClientSettings
	preferred map[prefKey]int64
	LoadedAt  time.Time
}

// NewSnapshot indexes d. Codes are normalized so lookups are case-insensitive.
func NewSnapshot(d Data, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		countries: make(map[string]Country, len(d.Countries)),
		providers: make(map[int64]Provider, len(d.Providers)),
		offers:    make(map[offerKey]Offer, len(d.Offers)),
		scopes:    make(map[string]struct{}),
		delivery:  make(map[int64]DeliveryOption, len(d.DeliveryOptions)),
		prices:    make(map[priceKey]int64, len(d.ClientPrices)),
		settings:  make(map[int64]ClientSettings, len(d.ClientSettings)),
		preferred: make(map[prefKey]int64, len(d.PreferredProviders)),
		LoadedAt:  loadedAt,
	}
	for _, c := range d.Countries {
		c.Code = NormalizeCountry(c.Code)
		if !c.Classification.IsValid() {
			c.Classification = ClassificationNeutral
		}
		s.countries[c.Code] = c
	}
	for _, p := range d.Providers {
		s.providers[p.ID] = p
	}
	for _, o := range d.Offers {
		o.Scope = NormalizeScope(o.Scope)
		o.Country = NormalizeCountry(o.Country)
		s.offers[offerKey{o.ProviderID, o.Scope, o.Country}] = o
		s.scopes[o.Scope] = struct{}{}
	}
	for _, o := range d.DeliveryOptions {
		s.delivery[o.ID] = o
	}
	for _, p := range d.ClientPrices {
		s.prices[priceKey{p.ClientID, p.ProviderID, NormalizeScope(p.Scope), NormalizeCountry(p.Country)}] = p.PriceCents
	}
	for _, cs := range d.ClientSettings {
		cs.AllowedProviderIDs = slices.Clone(cs.AllowedProviderIDs)
		s.settings[cs.ClientID] = cs
	}
	for _, p := range d.PreferredProviders {
		s.preferred[prefKey{p.ClientID, NormalizeScope(p.Scope), NormalizeCountry(p.Country)}] = p.ProviderID
	}
	return s
}

// Country returns the country row. Unknown codes are reported as missing.
func (s *Snapshot) Country(code string) (Country, bool) {
	c, ok := s.countries[NormalizeCountry(code)]
	return c, ok
}

// Provider returns an active provider.
func (s *Snapshot) Provider(id int64) (Provider, bool) {
	p, ok := s.providers[id]
	if !ok || !p.Active {
		return Provider{}, false
	}
	return p, true
}

// Offer returns the provider's offer for exactly scope and country.
func (s *Snapshot) Offer(providerID int64, scope, country string) (Offer, bool) {
	if _, ok := s.Provider(providerID); !ok {
		return Offer{}, false
	}
	o, ok := s.offers[offerKey{providerID, NormalizeScope(scope), NormalizeCountry(country)}]
	return o, ok
}

// AgnosticOffer returns the provider's country-agnostic offer for scope.
func (s *Snapshot) AgnosticOffer(providerID int64, scope string) (Offer, bool) {
	return s.Offer(providerID, scope, "")
}

// OfferingProviders lists active providers with an offer for scope and
// country, lowest ID first.
func (s *Snapshot) OfferingProviders(scope, country string) []int64 {
	scope, country = NormalizeScope(scope), NormalizeCountry(country)
	var ids []int64
	for k := range s.offers {
		if k.scope != scope || k.country != country || country == "" {
			continue
		}
		if _, ok := s.Provider(k.providerID); ok {
			ids = append(ids, k.providerID)
		}
	}
	slices.Sort(ids)
	return ids
}

// HasScope reports whether scope is a case type the catalog offers anywhere.
func (s *Snapshot) HasScope(scope string) bool {
	_, ok := s.scopes[NormalizeScope(scope)]
	return ok
}

// HasEntry reports whether any active provider offers scope in country.
func (s *Snapshot) HasEntry(scope, country string) bool {
	return len(s.OfferingProviders(scope, country)) > 0
}

func (s *Snapshot) DeliveryOption(id int64) (DeliveryOption, bool) {
	o, ok := s.delivery[id]
	return o, ok
}

// ClientPrice returns the client's negotiated price, preferring a
// country-specific row over a country-agnostic one.
func (s *Snapshot) ClientPrice(clientID, providerID int64, scope, country string) (int64, bool) {
	scope = NormalizeScope(scope)
	if p, ok := s.prices[priceKey{clientID, providerID, scope, NormalizeCountry(country)}]; ok {
		return p, true
	}
	p, ok := s.prices[priceKey{clientID, providerID, scope, ""}]
	return p, ok
}

// ClientSettings returns the client's policy; unknown clients get the zero
// policy (no third-party requirement, empty allow-list).
func (s *Snapshot) ClientSettings(clientID int64) ClientSettings {
	cs, ok := s.settings[clientID]
	if !ok {
		return ClientSettings{ClientID: clientID}
	}
	cs.AllowedProviderIDs = slices.Clone(cs.AllowedProviderIDs)
	return cs
}

// PreferredProvider returns the client's preferred provider for scope and
// country, falling back to the client's scope-wide preference.
func (s *Snapshot) PreferredProvider(clientID int64, scope, country string) (int64, bool) {
	scope = NormalizeScope(scope)
	if id, ok := s.preferred[prefKey{clientID, scope, NormalizeCountry(country)}]; ok {
		return id, true
	}
	id, ok := s.preferred[prefKey{clientID, scope, ""}]
	return id, ok
}

// Counts reports table sizes for logging after a refresh.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"countries":        len(s.countries),
		"providers":        len(s.providers),
		"offers":           len(s.offers),
		"delivery_options": len(s.delivery),
		"client_prices":    len(s.prices),
		"client_settings":  len(s.settings),
		"preferred":        len(s.preferred),
	}
}
