// Package searchindex maintains the denormalized case projection used by
// listing views. Sync recomputes the whole row for one case; it is idempotent
// and last-write-wins, and callers run it inside the mutating transaction.
package searchindex

import (
	"strings"
	"time"

	catalogmodels "caseflow/internal/catalog/models"
	dErrors "caseflow/pkg/domain-errors"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is one projection row.
type Entry struct {
	CaseID             int64      `json:"case_id"`
	ClientID           int64      `json:"client_id"`
	CaseName           string     `json:"case_name"`
	CaseType           string     `json:"case_type"`
	Stage              string     `json:"stage"`
	Region             string     `json:"region"`
	Department         string     `json:"department"`
	Requestor          string     `json:"requestor"`
	AssignedProviderID int64      `json:"assigned_provider_id"`
	ProviderName       string     `json:"provider_name"`
	SubjectName        string     `json:"subject_name"`
	SubjectCountry     string     `json:"subject_country"`
	PrincipalNames     string     `json:"principal_names"`
	BudgetAmountCents  int64      `json:"budget_amount_cents"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	ComplianceFlagged  bool       `json:"compliance_flagged"`
	CaseCreatedAt      time.Time  `json:"case_created_at"`
	IndexedAt          time.Time  `json:"indexed_at"`
}

// Filter narrows a search to one client. Zero fields do not filter.
type Filter struct {
	ClientID   int64
	Stage      string
	CaseType   string
	ProviderID int64
	Text       string
	Limit      int
	Offset     int
}

func (f *Filter) Normalize() {
	f.Stage = strings.ToUpper(strings.TrimSpace(f.Stage))
	f.CaseType = catalogmodels.NormalizeScope(f.CaseType)
	f.Text = strings.TrimSpace(f.Text)
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

func (f *Filter) Validate() error {
	if f.ClientID <= 0 {
		return dErrors.New(dErrors.CodeForbidden, "search requires a client")
	}
	if f.ProviderID < 0 {
		return dErrors.New(dErrors.CodeValidation, "provider_id cannot be negative")
	}
	return nil
}

// Page is one page of results with the unpaged total.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// matches applies the filter to an entry in memory.
func (f *Filter) matches(e *Entry) bool {
	if e.ClientID != f.ClientID {
		return false
	}
	if f.Stage != "" && e.Stage != f.Stage {
		return false
	}
	if f.CaseType != "" && e.CaseType != f.CaseType {
		return false
	}
	if f.ProviderID != 0 && e.AssignedProviderID != f.ProviderID {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		hay := strings.ToLower(e.CaseName + "\n" + e.SubjectName + "\n" + e.PrincipalNames)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}
