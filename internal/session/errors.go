package session

import "errors"

var (
	// ErrValidation indicates a malformed code, tile list or password.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates no session matches the code.
	ErrNotFound = errors.New("session not found")
	// ErrAuthRequired indicates a protected session was saved without a password.
	ErrAuthRequired = errors.New("password required")
	// ErrAuthInvalid indicates the supplied password does not match.
	ErrAuthInvalid = errors.New("invalid password")
	// ErrConflict indicates the session is already password protected.
	ErrConflict = errors.New("session is already password protected")
	// ErrGenerationExhausted indicates no free session code was found.
	ErrGenerationExhausted = errors.New("failed to generate unique session code")
	// ErrPersistence indicates a storage failure; the transaction was rolled back.
	ErrPersistence = errors.New("persistence failure")
)
