package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bingo/internal/storage"
)

// Guard gates writes to a session behind its optional password.
type Guard struct {
	store CredentialStore
}

// NewGuard creates a guard reading credentials from store.
func NewGuard(store CredentialStore) *Guard {
	return &Guard{store: store}
}

// Check passes for unprotected sessions and for protected sessions when the
// password matches. A nil or empty password on a protected session yields
// ErrAuthRequired; a wrong one yields ErrAuthInvalid.
func (g *Guard) Check(ctx context.Context, code string, password *string) error {
	hash, err := g.store.PasswordHash(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: loading credential: %v", ErrPersistence, err)
	}
	if hash == "" {
		return nil
	}
	if password == nil || *password == "" {
		return ErrAuthRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(*password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrAuthInvalid
		}
		return fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	return nil
}
