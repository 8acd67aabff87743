package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Limiter is a mock for ratelimit.Limiter.
type Limiter struct {
	mock.Mock
}

func (m *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
