package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo/internal/config"
	"bingo/internal/ratelimit"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = newLogger(&buf, config.LogConfig{Level: "bogus", Format: "text"})
	logger.Info("fallback")
	assert.Contains(t, buf.String(), "msg=fallback")
}

func TestNewLimiter(t *testing.T) {
	lim, closeFn, err := newLimiter(config.RateLimitConfig{})
	require.NoError(t, err)
	assert.Nil(t, lim)
	closeFn()

	lim, closeFn, err = newLimiter(config.RateLimitConfig{Requests: 1, Window: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.Memory{}, lim)
	closeFn()

	srv := miniredis.RunT(t)
	lim, closeFn, err = newLimiter(config.RateLimitConfig{Requests: 1, Window: time.Minute, RedisURL: "redis://" + srv.Addr()})
	require.NoError(t, err)
	defer closeFn()
	ok, err := lim.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenStoreSQLite(t *testing.T) {
	store, err := openStore(config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "bingo.db")}, nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(context.Background()))
}
