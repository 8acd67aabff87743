package session

import (
	"context"
	"time"

	"bingo/internal/models"
)

// Store provides persistence for sessions and their tile trees.
type Store interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateSession(ctx context.Context, sess models.Session) (models.Session, error)
	GetSession(ctx context.Context, code string) (models.Session, error)
	ReplaceTiles(ctx context.Context, code string, tiles []models.Tile, updatedAt time.Time) error
	PasswordHash(ctx context.Context, code string) (string, error)
	SetPasswordHash(ctx context.Context, code, hash string) error
}

// CredentialStore is the subset of Store the access guard needs.
type CredentialStore interface {
	PasswordHash(ctx context.Context, code string) (string, error)
}
