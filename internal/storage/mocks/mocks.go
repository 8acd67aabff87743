package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bingo/internal/models"
)

// SessionStore is a mock for session.Store.
type SessionStore struct {
	mock.Mock
}

func (m *SessionStore) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *SessionStore) CreateSession(ctx context.Context, sess models.Session) (models.Session, error) {
	args := m.Called(ctx, sess)
	if out, ok := args.Get(0).(models.Session); ok {
		return out, args.Error(1)
	}
	return models.Session{}, args.Error(1)
}

func (m *SessionStore) GetSession(ctx context.Context, code string) (models.Session, error) {
	args := m.Called(ctx, code)
	if out, ok := args.Get(0).(models.Session); ok {
		return out, args.Error(1)
	}
	return models.Session{}, args.Error(1)
}

func (m *SessionStore) ReplaceTiles(ctx context.Context, code string, tiles []models.Tile, updatedAt time.Time) error {
	args := m.Called(ctx, code, tiles, updatedAt)
	return args.Error(0)
}

func (m *SessionStore) PasswordHash(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *SessionStore) SetPasswordHash(ctx context.Context, code, hash string) error {
	args := m.Called(ctx, code, hash)
	return args.Error(0)
}
