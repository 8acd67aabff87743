package storage

import "errors"

var (
	// ErrNotFound is returned when no session matches the given code.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a session code is already taken.
	ErrDuplicateCode = errors.New("duplicate session code")

	// ErrConflict is returned when a conditional update found the row in an
	// unexpected state, e.g. a password already set.
	ErrConflict = errors.New("conflict")
)
