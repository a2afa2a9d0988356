// Package catalogtest provides a small, realistic catalog for tests in other
// packages.
package catalogtest

import (
	"time"

	"caseflow/internal/catalog/models"
)

const (
	ProviderNorthwind int64 = 1
	ProviderAtlas     int64 = 2
	ProviderLantern   int64 = 3 // lite
	ProviderHouse     int64 = 9 // system default

	ClientAcme      int64 = 42 // allow-list {1,2,3}, no third-party requirement
	ClientGlobex    int64 = 43 // allow-list {2}, third-party link required
	ClientUnlisted  int64 = 44 // empty allow-list
	ClientPreferred int64 = 45 // allow-list {1,2}, prefers Atlas for OSRC

	DeliveryRush    int64 = 10
	DeliveryCourier int64 = 11 // unpriced

	ProductOSRCFR int64 = 1001
)

func ptr(v int64) *int64 { return &v }

// Data returns a fresh copy of the fixture catalog.
func Data() models.Data {
	return models.Data{
		Countries: []models.Country{
			{Code: "FR", Name: "France", Classification: models.ClassificationNeutral},
			{Code: "DE", Name: "Germany", Classification: models.ClassificationNeutral},
			{Code: "US", Name: "United States", Classification: models.ClassificationNeutral},
			{Code: "IR", Name: "Iran", Classification: models.ClassificationSanctioned},
			{Code: "RU", Name: "Russia", Classification: models.ClassificationSanctioned},
			{Code: "KP", Name: "North Korea", Classification: models.ClassificationProhibited},
		},
		Providers: []models.Provider{
			{ID: ProviderNorthwind, Name: "Northwind Research", Active: true},
			{ID: ProviderAtlas, Name: "Atlas Diligence", Active: true},
			{ID: ProviderLantern, Name: "Lantern Lite", Lite: true, Active: true},
			{ID: ProviderHouse, Name: "House Default", Active: true},
		},
		Offers: []models.Offer{
			{
				ProviderID: ProviderNorthwind, Scope: "OSRC", Country: "FR", ProductID: ProductOSRCFR,
				CostMethod: models.CostMethodFixed, BaseCostCents: 45000, TurnaroundDays: 5,
				ExtraSubjectCents: ptr(15000), PrincipalCents: ptr(5000), BilingualCents: ptr(10000), BilingualDays: 2,
			},
			{
				ProviderID: ProviderAtlas, Scope: "OSRC", Country: "FR", ProductID: 2001,
				CostMethod: models.CostMethodFixed, BaseCostCents: 42000, TurnaroundDays: 6,
				ExtraSubjectCents: ptr(12000),
			},
			{
				ProviderID: ProviderNorthwind, Scope: "OSRC", Country: "IR", ProductID: 1002,
				CostMethod: models.CostMethodFixed, BaseCostCents: 60000, TurnaroundDays: 7,
			},
			{
				ProviderID: ProviderNorthwind, Scope: "OSRC", Country: "KP", ProductID: 1003,
				CostMethod: models.CostMethodFixed, BaseCostCents: 90000, TurnaroundDays: 10,
			},
			{
				ProviderID: ProviderAtlas, Scope: "FIELD", Country: "FR", ProductID: 2002,
				CostMethod: models.CostMethodUnpublished, TurnaroundDays: 15,
			},
			{
				ProviderID: ProviderLantern, Scope: "FIELD", Country: "DE", ProductID: 3001,
				CostMethod: models.CostMethodFixed, BaseCostCents: 80000, TurnaroundDays: 10,
			},
			{
				ProviderID: ProviderHouse, Scope: "OSRC", Country: "", ProductID: 9001,
				CostMethod: models.CostMethodFixed, BaseCostCents: 50000, TurnaroundDays: 8,
			},
		},
		DeliveryOptions: []models.DeliveryOption{
			{ID: DeliveryRush, ProviderID: ProviderNorthwind, Name: "Rush", SurchargeCents: ptr(20000), DaysDelta: -2},
			{ID: DeliveryCourier, ProviderID: ProviderNorthwind, Name: "Courier hard copy", DaysDelta: 3},
		},
		ClientPrices: []models.ClientPrice{
			{ClientID: ClientAcme, ProviderID: ProviderNorthwind, Scope: "OSRC", Country: "FR", PriceCents: 40000},
		},
		ClientSettings: []models.ClientSettings{
			{ClientID: ClientAcme, AllowedProviderIDs: []int64{ProviderNorthwind, ProviderAtlas, ProviderLantern}},
			{ClientID: ClientGlobex, RequireThirdParty: true, AllowedProviderIDs: []int64{ProviderAtlas}},
			{ClientID: ClientUnlisted},
			{ClientID: ClientPreferred, AllowedProviderIDs: []int64{ProviderNorthwind, ProviderAtlas}},
		},
		PreferredProviders: []models.PreferredProvider{
			{ClientID: ClientPreferred, Scope: "OSRC", Country: "", ProviderID: ProviderAtlas},
		},
	}
}

// Snapshot indexes Data.
func Snapshot() *models.Snapshot {
	return models.NewSnapshot(Data(), time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
}
