package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
)

// PostgresIndex rebuilds case_search_index rows with one upsert-from-select.
type PostgresIndex struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresIndex {
	return &PostgresIndex{db: db, now: time.Now}
}

const syncQuery = `
	INSERT INTO case_search_index (case_id, client_id, case_name, case_type, stage, region, department,
		requestor, assigned_provider_id, provider_name, subject_name, subject_country, principal_names,
		budget_amount_cents, due_date, compliance_flagged, case_created_at, indexed_at)
	SELECT c.id, c.client_id, c.case_name, c.case_type, c.stage, c.region, c.department,
		c.requestor, c.assigned_provider_id, COALESCE(p.name, ''), COALESCE(si.name, ''),
		COALESCE(si.country, ''),
		COALESCE((
			SELECT string_agg(sp.name, '; ' ORDER BY sp.slot)
			FROM subject_principals sp
			WHERE sp.case_id = c.id AND sp.name <> ''
		), ''),
		c.budget_amount_cents, c.due_date, c.compliance_flagged, c.created_at, $2
	FROM cases c
	LEFT JOIN providers p ON p.id = c.assigned_provider_id
	LEFT JOIN subject_info si ON si.case_id = c.id
	WHERE c.id = $1
	ON CONFLICT (case_id) DO UPDATE SET
		client_id = EXCLUDED.client_id,
		case_name = EXCLUDED.case_name,
		case_type = EXCLUDED.case_type,
		stage = EXCLUDED.stage,
		region = EXCLUDED.region,
		department = EXCLUDED.department,
		requestor = EXCLUDED.requestor,
		assigned_provider_id = EXCLUDED.assigned_provider_id,
		provider_name = EXCLUDED.provider_name,
		subject_name = EXCLUDED.subject_name,
		subject_country = EXCLUDED.subject_country,
		principal_names = EXCLUDED.principal_names,
		budget_amount_cents = EXCLUDED.budget_amount_cents,
		due_date = EXCLUDED.due_date,
		compliance_flagged = EXCLUDED.compliance_flagged,
		case_created_at = EXCLUDED.case_created_at,
		indexed_at = EXCLUDED.indexed_at
`

// Sync recomputes the projection for caseID from the authoritative tables.
// It reads through the caller's transaction, so it sees that transaction's writes.
func (x *PostgresIndex) Sync(ctx context.Context, caseID int64) error {
	res, err := txcontext.ExecutorFor(ctx, x.db).ExecContext(ctx, syncQuery, caseID, x.now())
	if err != nil {
		return fmt.Errorf("sync search index for case %d: %w", caseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sync search index for case %d: %w", caseID, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Search returns one page of projection rows, newest case first.
func (x *PostgresIndex) Search(ctx context.Context, f Filter) (Page, error) {
	where := []string{"client_id = $1"}
	args := []any{f.ClientID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Stage != "" {
		add("stage = $%d", f.Stage)
	}
	if f.CaseType != "" {
		add("case_type = $%d", f.CaseType)
	}
	if f.ProviderID != 0 {
		add("assigned_provider_id = $%d", f.ProviderID)
	}
	if f.Text != "" {
		pattern := "%" + escapeLike(f.Text) + "%"
		args = append(args, pattern)
		n := len(args)
		where = append(where, fmt.Sprintf("(case_name ILIKE $%d OR subject_name ILIKE $%d OR principal_names ILIKE $%d)", n, n, n))
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT case_id, client_id, case_name, case_type, stage, region, department, requestor,
			assigned_provider_id, provider_name, subject_name, subject_country, principal_names,
			budget_amount_cents, due_date, compliance_flagged, case_created_at, indexed_at,
			COUNT(*) OVER ()
		FROM case_search_index
		WHERE %s
		ORDER BY case_created_at DESC, case_id DESC
		LIMIT $%d OFFSET $%d`, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := txcontext.ExecutorFor(ctx, x.db).QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("search cases: %w", err)
	}
	defer rows.Close()

	page := Page{Entries: []Entry{}, Limit: f.Limit, Offset: f.Offset}
	for rows.Next() {
		var (
			e   Entry
			due sql.NullTime
		)
		if err := rows.Scan(&e.CaseID, &e.ClientID, &e.CaseName, &e.CaseType, &e.Stage, &e.Region,
			&e.Department, &e.Requestor, &e.AssignedProviderID, &e.ProviderName, &e.SubjectName,
			&e.SubjectCountry, &e.PrincipalNames, &e.BudgetAmountCents, &due, &e.ComplianceFlagged,
			&e.CaseCreatedAt, &e.IndexedAt, &page.Total); err != nil {
			return Page{}, fmt.Errorf("scan search row: %w", err)
		}
		if due.Valid {
			d := due.Time
			e.DueDate = &d
		}
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate search rows: %w", err)
	}
	return page, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
