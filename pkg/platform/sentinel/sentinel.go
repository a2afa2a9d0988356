package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: case, subject info or catalog row does not exist
//   - ErrConflict: unique constraint lost to a concurrent insert
//   - ErrStaleStage: a conditional stage update matched zero rows
//   - ErrExpired: a conversion draft outlived its TTL
//   - ErrUnavailable: backing service temporarily unavailable
//
// Validation failures never use these; see pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrStaleStage  = errors.New("stage changed concurrently")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
