package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/catalog/models"
	txcontext "caseflow/pkg/platform/tx"
)

// PostgresStore reads and seeds the catalog tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load reads every catalog table concurrently. The first failing query
// cancels the rest.
func (s *PostgresStore) Load(ctx context.Context) (models.Data, error) {
	var d models.Data
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { d.Countries, err = s.loadCountries(ctx); return })
	g.Go(func() (err error) { d.Providers, err = s.loadProviders(ctx); return })
	g.Go(func() (err error) { d.Offers, err = s.loadOffers(ctx); return })
	g.Go(func() (err error) { d.DeliveryOptions, err = s.loadDeliveryOptions(ctx); return })
	g.Go(func() (err error) { d.ClientPrices, err = s.loadClientPrices(ctx); return })
	g.Go(func() (err error) { d.ClientSettings, err = s.loadClientSettings(ctx); return })
	g.Go(func() (err error) { d.PreferredProviders, err = s.loadPreferred(ctx); return })

	if err := g.Wait(); err != nil {
		return models.Data{}, err
	}
	return d, nil
}

func (s *PostgresStore) loadCountries(ctx context.Context) ([]models.Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, classification FROM countries`)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()
	var out []models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.Code, &c.Name, &c.Classification); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadProviders(ctx context.Context) ([]models.Provider, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, lite, active FROM providers`)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}
	defer rows.Close()
	var out []models.Provider
	for rows.Next() {
		var p models.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Lite, &p.Active); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadOffers(ctx context.Context) ([]models.Offer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider_id, scope, country, product_id, cost_method, base_cost_cents,
		       turnaround_days, extra_subject_cents, principal_cents, bilingual_cents, bilingual_days
		FROM provider_offers`)
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}
	defer rows.Close()
	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		var extra, principal, bilingual sql.NullInt64
		if err := rows.Scan(&o.ProviderID, &o.Scope, &o.Country, &o.ProductID, &o.CostMethod, &o.BaseCostCents,
			&o.TurnaroundDays, &extra, &principal, &bilingual, &o.BilingualDays); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.ExtraSubjectCents = nullablePtr(extra)
		o.PrincipalCents = nullablePtr(principal)
		o.BilingualCents = nullablePtr(bilingual)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadDeliveryOptions(ctx context.Context) ([]models.DeliveryOption, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, provider_id, name, surcharge_cents, days_delta FROM delivery_options`)
	if err != nil {
		return nil, fmt.Errorf("load delivery options: %w", err)
	}
	defer rows.Close()
	var out []models.DeliveryOption
	for rows.Next() {
		var o models.DeliveryOption
		var surcharge sql.NullInt64
		if err := rows.Scan(&o.ID, &o.ProviderID, &o.Name, &surcharge, &o.DaysDelta); err != nil {
			return nil, fmt.Errorf("scan delivery option: %w", err)
		}
		o.SurchargeCents = nullablePtr(surcharge)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadClientPrices(ctx context.Context) ([]models.ClientPrice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id, provider_id, scope, country, price_cents FROM client_pricing`)
	if err != nil {
		return nil, fmt.Errorf("load client pricing: %w", err)
	}
	defer rows.Close()
	var out []models.ClientPrice
	for rows.Next() {
		var p models.ClientPrice
		if err := rows.Scan(&p.ClientID, &p.ProviderID, &p.Scope, &p.Country, &p.PriceCents); err != nil {
			return nil, fmt.Errorf("scan client price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadClientSettings(ctx context.Context) ([]models.ClientSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id, require_third_party, allowed_provider_ids FROM client_settings`)
	if err != nil {
		return nil, fmt.Errorf("load client settings: %w", err)
	}
	defer rows.Close()
	var out []models.ClientSettings
	for rows.Next() {
		var cs models.ClientSettings
		var allowed pq.Int64Array
		if err := rows.Scan(&cs.ClientID, &cs.RequireThirdParty, &allowed); err != nil {
			return nil, fmt.Errorf("scan client settings: %w", err)
		}
		cs.AllowedProviderIDs = []int64(allowed)
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadPreferred(ctx context.Context) ([]models.PreferredProvider, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT client_id, scope, country, provider_id FROM client_preferred_providers`)
	if err != nil {
		return nil, fmt.Errorf("load preferred providers: %w", err)
	}
	defer rows.Close()
	var out []models.PreferredProvider
	for rows.Next() {
		var p models.PreferredProvider
		if err := rows.Scan(&p.ClientID, &p.Scope, &p.Country, &p.ProviderID); err != nil {
			return nil, fmt.Errorf("scan preferred provider: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Replace swaps the whole catalog for d. It must run inside a transaction
// (see tx.PostgresRunner) so readers never observe a half-seeded catalog.
func (s *PostgresStore) Replace(ctx context.Context, d models.Data) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	for _, table := range []string{
		"client_preferred_providers", "client_settings", "client_pricing",
		"delivery_options", "provider_offers", "providers", "countries",
	} {
		if _, err := exec.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range d.Countries {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO countries (code, name, classification) VALUES ($1, $2, $3)`,
			models.NormalizeCountry(c.Code), c.Name, string(c.Classification),
		); err != nil {
			return fmt.Errorf("insert country %s: %w", c.Code, err)
		}
	}
	for _, p := range d.Providers {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO providers (id, name, lite, active) VALUES ($1, $2, $3, $4)`,
			p.ID, p.Name, p.Lite, p.Active,
		); err != nil {
			return fmt.Errorf("insert provider %d: %w", p.ID, err)
		}
	}
	for _, o := range d.Offers {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO provider_offers (provider_id, scope, country, product_id, cost_method, base_cost_cents,
				turnaround_days, extra_subject_cents, principal_cents, bilingual_cents, bilingual_days)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			o.ProviderID, models.NormalizeScope(o.Scope), models.NormalizeCountry(o.Country), o.ProductID,
			string(o.CostMethod), o.BaseCostCents, o.TurnaroundDays,
			nullInt(o.ExtraSubjectCents), nullInt(o.PrincipalCents), nullInt(o.BilingualCents), o.BilingualDays,
		); err != nil {
			return fmt.Errorf("insert offer %d/%s/%s: %w", o.ProviderID, o.Scope, o.Country, err)
		}
	}
	for _, o := range d.DeliveryOptions {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO delivery_options (id, provider_id, name, surcharge_cents, days_delta) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, o.ProviderID, o.Name, nullInt(o.SurchargeCents), o.DaysDelta,
		); err != nil {
			return fmt.Errorf("insert delivery option %d: %w", o.ID, err)
		}
	}
	for _, p := range d.ClientPrices {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO client_pricing (client_id, provider_id, scope, country, price_cents) VALUES ($1, $2, $3, $4, $5)`,
			p.ClientID, p.ProviderID, models.NormalizeScope(p.Scope), models.NormalizeCountry(p.Country), p.PriceCents,
		); err != nil {
			return fmt.Errorf("insert client price: %w", err)
		}
	}
	for _, cs := range d.ClientSettings {
		allowed := cs.AllowedProviderIDs
		if allowed == nil {
			allowed = []int64{}
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO client_settings (client_id, require_third_party, allowed_provider_ids) VALUES ($1, $2, $3)`,
			cs.ClientID, cs.RequireThirdParty, pq.Array(allowed),
		); err != nil {
			return fmt.Errorf("insert client settings %d: %w", cs.ClientID, err)
		}
	}
	for _, p := range d.PreferredProviders {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO client_preferred_providers (client_id, scope, country, provider_id) VALUES ($1, $2, $3, $4)`,
			p.ClientID, models.NormalizeScope(p.Scope), models.NormalizeCountry(p.Country), p.ProviderID,
		); err != nil {
			return fmt.Errorf("insert preferred provider: %w", err)
		}
	}
	return nil
}

func nullablePtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
