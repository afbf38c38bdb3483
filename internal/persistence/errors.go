package persistence

import "errors"

var (
	// ErrNotFound is returned when no journal entry matches the lookup.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConstraintViolation reports a rejected write, such as a duplicate
	// entry id or a missing required column.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
