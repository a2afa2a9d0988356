package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"caseflow/internal/cases/models"
	"caseflow/internal/platform/postgres"
	"caseflow/pkg/platform/sentinel"
	txcontext "caseflow/pkg/platform/tx"
)

// PostgresStore persists cases in PostgreSQL. Calls join the transaction
// carried by the context, if any.
type PostgresStore struct {
	db  *sql.DB
	tx  *txcontext.PostgresRunner
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewPostgresRunner(db, 0), now: time.Now}
}

const caseColumns = `id, client_id, case_name, case_type, region, department, stage, requestor,
	creator_uid, budget_type, budget_amount_cents, due_date, turnaround_days,
	assigned_provider_id, assigned_product_id, investigator_user_id, delivery_option_id,
	third_party_profile_id, linked_case_id, billing_unit_id, billing_unit_po_id,
	questionnaire_returned, compliance_flagged, outcome, outcome_reason, lite_access_token,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c       models.Case
		stage   string
		outcome string
		due     sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.ClientID, &c.CaseName, &c.CaseType, &c.Region, &c.Department, &stage, &c.Requestor,
		&c.CreatorUID, &c.BudgetType, &c.BudgetAmountCents, &due, &c.TurnaroundDays,
		&c.AssignedProviderID, &c.AssignedProductID, &c.InvestigatorUserID, &c.DeliveryOptionID,
		&c.ThirdPartyProfileID, &c.LinkedCaseID, &c.BillingUnitID, &c.BillingUnitPOID,
		&c.QuestionnaireReturned, &c.ComplianceFlagged, &outcome, &c.OutcomeReason, &c.LiteAccessToken,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Stage = models.Stage(stage)
	c.Outcome = models.ReviewOutcome(outcome)
	if due.Valid {
		d := due.Time
		c.DueDate = &d
	}
	return &c, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a new case and fills in its ID and timestamps.
func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	now := s.now()
	query := `
		INSERT INTO cases (client_id, case_name, case_type, region, department, stage, requestor,
			creator_uid, linked_case_id, billing_unit_id, billing_unit_po_id, questionnaire_returned,
			compliance_flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id, created_at, updated_at
	`
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		c.ClientID, c.CaseName, c.CaseType, c.Region, c.Department, string(c.Stage), c.Requestor,
		c.CreatorUID, c.LinkedCaseID, c.BillingUnitID, c.BillingUnitPOID, c.QuestionnaireReturned,
		c.ComplianceFlagged, now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Case, error) {
	row := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find case %d: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) lockCase(ctx context.Context, id int64) (*models.Case, error) {
	row := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock case %d: %w", id, err)
	}
	return c, nil
}

// CompareAndSetStage writes next and the mutated fields in one UPDATE guarded
// by the expected stage. Zero affected rows returns sentinel.ErrStaleStage.
//
// The row is read FOR UPDATE so the mutator always sees the last committed
// version; a same-stage edit cannot write back columns another writer changed
// in between. Without a transaction in ctx one is opened for the call.
func (s *PostgresStore) CompareAndSetStage(ctx context.Context, id int64, expected, next models.Stage, mutate Mutator) (*models.Case, error) {
	var upd *models.Case
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		upd, err = s.compareAndSet(ctx, id, expected, next, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return upd, nil
}

func (s *PostgresStore) compareAndSet(ctx context.Context, id int64, expected, next models.Stage, mutate Mutator) (*models.Case, error) {
	cur, err := s.lockCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Stage != expected {
		return nil, sentinel.ErrStaleStage
	}
	upd := prepare(cur, next, mutate)
	upd.UpdatedAt = s.now()

	query := `
		UPDATE cases SET
			stage = $3, case_name = $4, case_type = $5, region = $6, department = $7,
			requestor = $8, budget_type = $9, budget_amount_cents = $10, due_date = $11,
			turnaround_days = $12, assigned_provider_id = $13, assigned_product_id = $14,
			investigator_user_id = $15, delivery_option_id = $16, third_party_profile_id = $17,
			linked_case_id = $18, billing_unit_id = $19, billing_unit_po_id = $20,
			questionnaire_returned = $21, compliance_flagged = $22, outcome = $23,
			outcome_reason = $24, lite_access_token = $25, updated_at = $26
		WHERE id = $1 AND stage = $2
	`
	res, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		id, string(expected), string(next), upd.CaseName, upd.CaseType, upd.Region, upd.Department,
		upd.Requestor, upd.BudgetType, upd.BudgetAmountCents, nullDate(upd.DueDate),
		upd.TurnaroundDays, upd.AssignedProviderID, upd.AssignedProductID,
		upd.InvestigatorUserID, upd.DeliveryOptionID, upd.ThirdPartyProfileID,
		upd.LinkedCaseID, upd.BillingUnitID, upd.BillingUnitPOID,
		upd.QuestionnaireReturned, upd.ComplianceFlagged, string(upd.Outcome),
		upd.OutcomeReason, upd.LiteAccessToken, upd.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("compare-and-set stage on case %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("compare-and-set stage on case %d: %w", id, err)
	}
	if n == 0 {
		return nil, sentinel.ErrStaleStage
	}
	return upd, nil
}

func (s *PostgresStore) FindSubjectInfo(ctx context.Context, caseID int64) (*models.SubjectInfo, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	info := models.SubjectInfo{CaseID: caseID}
	err := exec.QueryRowContext(ctx,
		`SELECT name, address, city, country, updated_at FROM subject_info WHERE case_id = $1`, caseID,
	).Scan(&info.Name, &info.Address, &info.City, &info.Country, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subject info for case %d: %w", caseID, err)
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT slot, name, relationship, ownership_percent, is_owner, is_officer, is_director, is_key_manager
		FROM subject_principals WHERE case_id = $1 ORDER BY slot`, caseID)
	if err != nil {
		return nil, fmt.Errorf("find principals for case %d: %w", caseID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			slot int
			p    models.Principal
		)
		if err := rows.Scan(&slot, &p.Name, &p.Relationship, &p.OwnershipPercent,
			&p.IsOwner, &p.IsOfficer, &p.IsDirector, &p.IsKeyManager); err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		if slot >= 1 && slot <= models.MaxPrincipals {
			info.Principals[slot-1] = p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate principals: %w", err)
	}
	return &info, nil
}

// SaveSubjectInfo upserts the subject and all ten principal slots. Callers
// run it inside a transaction so the subject and its slots change together.
func (s *PostgresStore) SaveSubjectInfo(ctx context.Context, info *models.SubjectInfo) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	info.UpdatedAt = s.now()
	_, err := exec.ExecContext(ctx, `
		INSERT INTO subject_info (case_id, name, address, city, country, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (case_id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city,
			country = EXCLUDED.country, updated_at = EXCLUDED.updated_at
	`, info.CaseID, info.Name, info.Address, info.City, info.Country, info.UpdatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("upsert subject info for case %d: %w", info.CaseID, err)
	}

	n := models.MaxPrincipals
	slots, ownership := make([]int64, n), make([]float64, n)
	names, relationships := make([]string, n), make([]string, n)
	owners, officers := make([]bool, n), make([]bool, n)
	directors, keyManagers := make([]bool, n), make([]bool, n)
	for i, p := range info.Principals {
		slots[i] = int64(i + 1)
		names[i] = p.Name
		relationships[i] = p.Relationship
		ownership[i] = p.OwnershipPercent
		owners[i] = p.IsOwner
		officers[i] = p.IsOfficer
		directors[i] = p.IsDirector
		keyManagers[i] = p.IsKeyManager
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO subject_principals (case_id, slot, name, relationship, ownership_percent,
			is_owner, is_officer, is_director, is_key_manager)
		SELECT $1, u.slot, u.name, u.relationship, u.ownership, u.owner, u.officer, u.director, u.key_manager
		FROM unnest($2::smallint[], $3::text[], $4::text[], $5::float8[], $6::bool[], $7::bool[], $8::bool[], $9::bool[])
			AS u(slot, name, relationship, ownership, owner, officer, director, key_manager)
		ON CONFLICT (case_id, slot) DO UPDATE SET
			name = EXCLUDED.name, relationship = EXCLUDED.relationship,
			ownership_percent = EXCLUDED.ownership_percent, is_owner = EXCLUDED.is_owner,
			is_officer = EXCLUDED.is_officer, is_director = EXCLUDED.is_director,
			is_key_manager = EXCLUDED.is_key_manager
	`, info.CaseID, pq.Array(slots), pq.Array(names), pq.Array(relationships), pq.Array(ownership),
		pq.Array(owners), pq.Array(officers), pq.Array(directors), pq.Array(keyManagers))
	if err != nil {
		return fmt.Errorf("upsert principals for case %d: %w", info.CaseID, err)
	}
	return nil
}

func (s *PostgresStore) AddNote(ctx context.Context, note *models.Note) error {
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO case_notes (case_id, kind, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, note.CaseID, string(note.Kind), note.Author, note.Body, s.now()).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert note for case %d: %w", note.CaseID, err)
	}
	return nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, caseID int64) ([]models.Note, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, `
		SELECT id, case_id, kind, author, body, created_at
		FROM case_notes WHERE case_id = $1 ORDER BY created_at, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list notes for case %d: %w", caseID, err)
	}
	defer rows.Close()
	var notes []models.Note
	for rows.Next() {
		var (
			n    models.Note
			kind string
		)
		if err := rows.Scan(&n.ID, &n.CaseID, &kind, &n.Author, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.Kind = models.NoteKind(kind)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
