// Package models holds the read-only reference data that drives provider
// selection, pricing and the compliance gate.
package models

import "strings"

// Classification is a country's standing for compliance purposes.
type Classification string

const (
	ClassificationNeutral    Classification = "neutral"
	ClassificationSanctioned Classification = "sanctioned"
	ClassificationProhibited Classification = "prohibited"
)

func (c Classification) IsValid() bool {
	switch c {
	case ClassificationNeutral, ClassificationSanctioned, ClassificationProhibited:
		return true
	default:
		return false
	}
}

// CostMethod tells the calculator whether an offer has a published price.
type CostMethod string

const (
	CostMethodFixed       CostMethod = "fixed"
	CostMethodUnpublished CostMethod = "unpublished"
)

func (m CostMethod) IsValid() bool {
	return m == CostMethodFixed || m == CostMethodUnpublished
}

type Country struct {
	Code           string         `yaml:"code"`
	Name           string         `yaml:"name"`
	Classification Classification `yaml:"classification"`
}

// Provider is an investigation firm. Lite providers accept work through an
// external token flow instead of an internally assigned investigator.
type Provider struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Lite   bool   `yaml:"lite"`
	Active bool   `yaml:"active"`
}

// Offer is provider x scope x country -> product. Country "" marks the
// provider's country-agnostic offer, used only for the system default provider.
// Nil surcharge prices mean the surcharge is not priced and must be negotiated.
type Offer struct {
	ProviderID        int64      `yaml:"provider_id"`
	Scope             string     `yaml:"scope"`
	Country           string     `yaml:"country"`
	ProductID         int64      `yaml:"product_id"`
	CostMethod        CostMethod `yaml:"cost_method"`
	BaseCostCents     int64      `yaml:"base_cost_cents"`
	TurnaroundDays    int        `yaml:"turnaround_days"`
	ExtraSubjectCents *int64     `yaml:"extra_subject_cents"`
	PrincipalCents    *int64     `yaml:"principal_cents"`
	BilingualCents    *int64     `yaml:"bilingual_cents"`
	BilingualDays     int        `yaml:"bilingual_days"`
}

// DeliveryOption is a provider-specific delivery upgrade (rush, hard copy).
// DaysDelta may be negative for expedited delivery.
type DeliveryOption struct {
	ID             int64  `yaml:"id"`
	ProviderID     int64  `yaml:"provider_id"`
	Name           string `yaml:"name"`
	SurchargeCents *int64 `yaml:"surcharge_cents"`
	DaysDelta      int    `yaml:"days_delta"`
}

// ClientPrice overrides an offer's base cost for one client.
type ClientPrice struct {
	ClientID   int64  `yaml:"client_id"`
	ProviderID int64  `yaml:"provider_id"`
	Scope      string `yaml:"scope"`
	Country    string `yaml:"country"`
	PriceCents int64  `yaml:"price_cents"`
}

// ClientSettings carries the per-client conversion policy.
type ClientSettings struct {
	ClientID           int64   `yaml:"client_id"`
	RequireThirdParty  bool    `yaml:"require_third_party"`
	AllowedProviderIDs []int64 `yaml:"allowed_provider_ids"`
}

type PreferredProvider struct {
	ClientID   int64  `yaml:"client_id"`
	Scope      string `yaml:"scope"`
	Country    string `yaml:"country"`
	ProviderID int64  `yaml:"provider_id"`
}

// Data is the flat form of the catalog: what stores load and the seed file holds.
type Data struct {
	Countries          []Country           `yaml:"countries"`
	Providers          []Provider          `yaml:"providers"`
	Offers             []Offer             `yaml:"offers"`
	DeliveryOptions    []DeliveryOption    `yaml:"delivery_options"`
	ClientPrices       []ClientPrice       `yaml:"client_prices"`
	ClientSettings     []ClientSettings    `yaml:"client_settings"`
	PreferredProviders []PreferredProvider `yaml:"preferred_providers"`
}

// NormalizeCountry upper-cases and trims an ISO country code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeScope upper-cases and trims a scope code.
func NormalizeScope(scope string) string {
	return strings.ToUpper(strings.TrimSpace(scope))
}
