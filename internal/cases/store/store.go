// Package store persists cases. Every write to an existing case row goes
// through CompareAndSetStage: a locked read, then an UPDATE guarded by the
// expected stage.
package store

import (
	"context"

	"caseflow/internal/cases/models"
)

// Mutator edits the non-stage fields of a case copy before it is written.
// Changes to ID, ClientID, Stage and CreatedAt are discarded.
type Mutator func(c *models.Case)

// Store is implemented by PostgresStore and InMemoryStore.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id int64) (*models.Case, error)
	CompareAndSetStage(ctx context.Context, id int64, expected, next models.Stage, mutate Mutator) (*models.Case, error)
	FindSubjectInfo(ctx context.Context, caseID int64) (*models.SubjectInfo, error)
	SaveSubjectInfo(ctx context.Context, info *models.SubjectInfo) error
	AddNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, caseID int64) ([]models.Note, error)
}

// prepare applies mutate to a copy of cur and pins the fields a mutator may not change.
func prepare(cur *models.Case, next models.Stage, mutate Mutator) *models.Case {
	upd := cur.Clone()
	if mutate != nil {
		mutate(upd)
	}
	upd.ID = cur.ID
	upd.ClientID = cur.ClientID
	upd.CreatedAt = cur.CreatedAt
	upd.Stage = next
	return upd
}
