package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bingo/internal/models"
	"bingo/internal/server"
	"bingo/internal/session"
	"bingo/internal/storage/sqlite"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "bingo.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := session.NewService(store, session.WithBcryptCost(bcrypt.MinCost), session.WithLogger(logger))
	srv := httptest.NewServer(server.New(svc, logger, server.Options{}).Engine())
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", nil)
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	tiles := []models.Tile{{
		ID:   "1",
		Name: "Corp",
		Items: []models.Item{
			{Name: "Spirit shield", Quantity: 1, Current: 1},
		},
	}}
	code, err := c.Create(ctx, tiles)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	sess, err := c.Load(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, code, sess.Code)
	require.Len(t, sess.Tiles, 1)
	assert.True(t, sess.Tiles[0].Completed)

	tiles[0].Items[0].Current = 0
	require.NoError(t, c.Save(ctx, code, tiles, ""))
	sess, err = c.Load(ctx, code)
	require.NoError(t, err)
	assert.False(t, sess.Tiles[0].Completed)
}

func TestClientErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Load(ctx, "OSRS-ZZZZZZ")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = c.Load(ctx, "nope")
	require.ErrorIs(t, err, session.ErrValidation)

	code, err := c.Create(ctx, []models.Tile{})
	require.NoError(t, err)
	require.NoError(t, c.Claim(ctx, code, "hunter2"))
	require.ErrorIs(t, c.Claim(ctx, code, "hunter3"), session.ErrConflict)

	err = c.Save(ctx, code, []models.Tile{}, "")
	require.ErrorIs(t, err, session.ErrAuthRequired)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.RequiresPassword)

	require.ErrorIs(t, c.Save(ctx, code, []models.Tile{}, "wrong"), session.ErrAuthInvalid)
	require.NoError(t, c.Save(ctx, code, []models.Tile{}, "hunter2"))
}
