// Package compliance classifies countries for case intake and conversion.
package compliance

import (
	"caseflow/internal/catalog/models"
)

// Verdict is the gate's classification of one country.
type Verdict struct {
	Country        string
	Classification models.Classification
}

func (v Verdict) Prohibited() bool { return v.Classification == models.ClassificationProhibited }
func (v Verdict) Sanctioned() bool { return v.Classification == models.ClassificationSanctioned }

// CountryTable is the subset of the catalog snapshot the gate reads.
type CountryTable interface {
	Country(code string) (models.Country, bool)
}

// Classify returns prohibited, sanctioned or neutral for country. Blank and
// unknown codes are neutral: the gate blocks only what the table names.
func Classify(table CountryTable, country string) Verdict {
	code := models.NormalizeCountry(country)
	v := Verdict{Country: code, Classification: models.ClassificationNeutral}
	if code == "" || table == nil {
		return v
	}
	if c, ok := table.Country(code); ok {
		v.Classification = c.Classification
	}
	return v
}

// ClassifyAll classifies every non-blank country and returns the most severe
// verdict. A case carries several countries (subject, cost/time country) and
// the strictest one decides.
func ClassifyAll(table CountryTable, countries ...string) Verdict {
	worst := Verdict{Classification: models.ClassificationNeutral}
	for _, c := range countries {
		v := Classify(table, c)
		if severity(v.Classification) > severity(worst.Classification) {
			worst = v
		}
	}
	return worst
}

func severity(c models.Classification) int {
	switch c {
	case models.ClassificationProhibited:
		return 2
	case models.ClassificationSanctioned:
		return 1
	default:
		return 0
	}
}
