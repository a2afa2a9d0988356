// Package seed loads catalog reference data from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"caseflow/internal/catalog/models"
)

// Replacer swaps the stored catalog.
type Replacer interface {
	Replace(ctx context.Context, d models.Data) error
}

// TxRunner scopes the replace to one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) (models.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Data{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses YAML catalog data. Unknown keys are rejected so typos in the
// seed file fail loudly.
func Decode(r io.Reader) (models.Data, error) {
	var d models.Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return models.Data{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := Validate(d); err != nil {
		return models.Data{}, err
	}
	return d, nil
}

// Validate checks referential integrity the database would otherwise reject
// halfway through a seed.
func Validate(d models.Data) error {
	var errs []error
	providers := make(map[int64]bool, len(d.Providers))
	for _, p := range d.Providers {
		if providers[p.ID] {
			errs = append(errs, fmt.Errorf("provider %d: duplicate id", p.ID))
		}
		providers[p.ID] = true
	}
	for _, c := range d.Countries {
		if models.NormalizeCountry(c.Code) == "" {
			errs = append(errs, fmt.Errorf("country %q: empty code", c.Name))
		}
		if !c.Classification.IsValid() {
			errs = append(errs, fmt.Errorf("country %s: invalid classification %q", c.Code, c.Classification))
		}
	}
	for _, o := range d.Offers {
		if !providers[o.ProviderID] {
			errs = append(errs, fmt.Errorf("offer %s/%s: unknown provider %d", o.Scope, o.Country, o.ProviderID))
		}
		if !o.CostMethod.IsValid() {
			errs = append(errs, fmt.Errorf("offer %d/%s/%s: invalid cost method %q", o.ProviderID, o.Scope, o.Country, o.CostMethod))
		}
		if o.TurnaroundDays <= 0 {
			errs = append(errs, fmt.Errorf("offer %d/%s/%s: turnaround must be positive", o.ProviderID, o.Scope, o.Country))
		}
	}
	for _, o := range d.DeliveryOptions {
		if !providers[o.ProviderID] {
			errs = append(errs, fmt.Errorf("delivery option %d: unknown provider %d", o.ID, o.ProviderID))
		}
	}
	for _, cs := range d.ClientSettings {
		for _, id := range cs.AllowedProviderIDs {
			if !providers[id] {
				errs = append(errs, fmt.Errorf("client %d: allow-listed provider %d unknown", cs.ClientID, id))
			}
		}
	}
	for _, p := range d.PreferredProviders {
		if !providers[p.ProviderID] {
			errs = append(errs, fmt.Errorf("client %d: preferred provider %d unknown", p.ClientID, p.ProviderID))
		}
	}
	return errors.Join(errs...)
}

// Apply replaces the stored catalog with d inside one transaction.
func Apply(ctx context.Context, tx TxRunner, store Replacer, d models.Data) error {
	return tx.RunInTx(ctx, func(ctx context.Context) error {
		return store.Replace(ctx, d)
	})
}
