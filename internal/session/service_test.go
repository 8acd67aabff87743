package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bingo/internal/models"
	"bingo/internal/sessioncode"
	"bingo/internal/storage"
	"bingo/internal/storage/mocks"
	"bingo/internal/storage/sqlite"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newSQLiteService(t *testing.T) *Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "bingo.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &stepClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(store, WithClock(clock.Now), WithBcryptCost(bcrypt.MinCost))
}

func godwarsTile() []models.Tile {
	return []models.Tile{{
		ID:      "1",
		Name:    "Godwars Boss",
		OrLogic: false,
		Items: []models.Item{
			{Name: "Armadyl hilt", Quantity: 1, Current: 0},
			{Name: "Bandos chestplate", Quantity: 1, Current: 0},
			{Name: "Saradomin sword", Quantity: 1, Current: 0},
		},
	}}
}

func ptr(s string) *string { return &s }

func TestCreateLoadSaveRoundTrip(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, godwarsTile())
	require.NoError(t, err)
	assert.True(t, sessioncode.Validate(created.Code), "code %q has wrong format", created.Code)
	assert.False(t, created.IsProtected)

	loaded, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, loaded.Tiles, 1)
	require.Len(t, loaded.Tiles[0].Items, 3)
	assert.Equal(t, "Armadyl hilt", loaded.Tiles[0].Items[0].Name)
	assert.False(t, loaded.Tiles[0].Completed)

	tiles := loaded.Tiles
	for i := range tiles[0].Items {
		tiles[0].Items[i].Current = 1
	}
	require.NoError(t, svc.Save(ctx, created.Code, tiles, nil))

	reloaded, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.True(t, reloaded.Tiles[0].Completed)
	assert.Equal(t, 100.0, reloaded.Tiles[0].Progress())
	assert.True(t, reloaded.LastUpdated.After(reloaded.CreatedAt))
	assert.Equal(t, created.CreatedAt.Unix(), reloaded.CreatedAt.Unix())
}

func TestLoadDoesNotModify(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, godwarsTile())
	require.NoError(t, err)

	first, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	second, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateAcceptsEmptyBoard(t *testing.T) {
	svc := newSQLiteService(t)

	created, err := svc.Create(context.Background(), []models.Tile{})
	require.NoError(t, err)

	loaded, err := svc.Load(context.Background(), created.Code)
	require.NoError(t, err)
	assert.Empty(t, loaded.Tiles)
}

func TestCreateRejectsInvalidTiles(t *testing.T) {
	svc := newSQLiteService(t)

	_, err := svc.Create(context.Background(), nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), []models.Tile{{ID: "1"}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLoadErrors(t *testing.T) {
	svc := newSQLiteService(t)

	_, err := svc.Load(context.Background(), "not-a-code")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Load(context.Background(), "OSRS-ZZZZZZ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveUnknownSession(t *testing.T) {
	svc := newSQLiteService(t)

	err := svc.Save(context.Background(), "OSRS-ZZZZZZ", godwarsTile(), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRejectsInvalidTiles(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, godwarsTile())
	require.NoError(t, err)

	err = svc.Save(ctx, created.Code, nil, nil)
	require.ErrorIs(t, err, ErrValidation)

	loaded, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.Len(t, loaded.Tiles, 1)
}

func TestClaimAndGuardedSave(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, godwarsTile())
	require.NoError(t, err)

	require.ErrorIs(t, svc.ClaimPassword(ctx, created.Code, "abc"), ErrValidation)
	require.ErrorIs(t, svc.ClaimPassword(ctx, created.Code, "éé"), ErrValidation, "length counts characters, not bytes")
	require.NoError(t, svc.ClaimPassword(ctx, created.Code, "hunter2"))

	loaded, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.True(t, loaded.IsProtected)

	tiles := loaded.Tiles
	tiles[0].Items[0].Current = 1

	assert.ErrorIs(t, svc.Save(ctx, created.Code, tiles, nil), ErrAuthRequired)
	assert.ErrorIs(t, svc.Save(ctx, created.Code, tiles, ptr("")), ErrAuthRequired)
	assert.ErrorIs(t, svc.Save(ctx, created.Code, tiles, ptr("wrong")), ErrAuthInvalid)

	unchanged, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.Tiles[0].Items[0].Current)

	require.NoError(t, svc.Save(ctx, created.Code, tiles, ptr("hunter2")))
	saved, err := svc.Load(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Tiles[0].Items[0].Current)

	// A second claim never replaces the first password.
	require.ErrorIs(t, svc.ClaimPassword(ctx, created.Code, "other-password"), ErrConflict)
	require.NoError(t, svc.Save(ctx, created.Code, tiles, ptr("hunter2")))
	require.ErrorIs(t, svc.Save(ctx, created.Code, tiles, ptr("other-password")), ErrAuthInvalid)
}

func TestClaimUnknownSession(t *testing.T) {
	svc := newSQLiteService(t)
	require.ErrorIs(t, svc.ClaimPassword(context.Background(), "OSRS-ZZZZZZ", "hunter2"), ErrNotFound)
}

func TestCreateRetriesOnCollision(t *testing.T) {
	store := &mocks.SessionStore{}
	codes := []string{"OSRS-AAAAAA", "OSRS-BBBBBB", "OSRS-CCCCCC"}
	next := 0
	gen := func() string {
		c := codes[next]
		next++
		return c
	}

	store.On("CodeExists", mock.Anything, "OSRS-AAAAAA").Return(true, nil).Once()
	store.On("CodeExists", mock.Anything, "OSRS-BBBBBB").Return(false, nil).Once()
	store.On("CreateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		return s.Code == "OSRS-BBBBBB"
	})).Return(models.Session{}, storage.ErrDuplicateCode).Once()
	store.On("CodeExists", mock.Anything, "OSRS-CCCCCC").Return(false, nil).Once()
	store.On("CreateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		return s.Code == "OSRS-CCCCCC"
	})).Return(models.Session{ID: 7, Code: "OSRS-CCCCCC"}, nil).Once()

	svc := NewService(store, WithCodeGenerator(gen))
	sess, err := svc.Create(context.Background(), godwarsTile())
	require.NoError(t, err)
	assert.Equal(t, "OSRS-CCCCCC", sess.Code)
	store.AssertExpectations(t)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	store := &mocks.SessionStore{}
	store.On("CodeExists", mock.Anything, "OSRS-AAAAAA").Return(true, nil)

	svc := NewService(store, WithCodeGenerator(func() string { return "OSRS-AAAAAA" }))
	_, err := svc.Create(context.Background(), godwarsTile())
	require.ErrorIs(t, err, ErrGenerationExhausted)
	store.AssertNumberOfCalls(t, "CodeExists", sessioncode.MaxAttempts)
	store.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestPersistenceErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk full")
	store := &mocks.SessionStore{}
	store.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	store.On("CreateSession", mock.Anything, mock.Anything).Return(models.Session{}, boom)
	store.On("GetSession", mock.Anything, "OSRS-AAAAAA").Return(models.Session{}, boom)
	store.On("PasswordHash", mock.Anything, "OSRS-AAAAAA").Return("", nil)
	store.On("ReplaceTiles", mock.Anything, "OSRS-AAAAAA", mock.Anything, mock.Anything).Return(boom)

	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, godwarsTile())
	require.ErrorIs(t, err, ErrPersistence)

	_, err = svc.Load(ctx, "OSRS-AAAAAA")
	require.ErrorIs(t, err, ErrPersistence)

	err = svc.Save(ctx, "OSRS-AAAAAA", godwarsTile(), nil)
	require.ErrorIs(t, err, ErrPersistence)
}

func TestSaveNormalizesBeforeStoring(t *testing.T) {
	store := &mocks.SessionStore{}
	store.On("PasswordHash", mock.Anything, "OSRS-AAAAAA").Return("", nil)
	store.On("ReplaceTiles", mock.Anything, "OSRS-AAAAAA", mock.MatchedBy(func(tiles []models.Tile) bool {
		item := tiles[0].Items[0]
		return item.Quantity == 1 && item.Current == 1 && tiles[0].Completed
	}), mock.Anything).Return(nil)

	in := []models.Tile{{ID: "1", Name: "Pet", Items: []models.Item{{Name: "Vorki", Quantity: 0, Current: 3}}}}
	svc := NewService(store)
	require.NoError(t, svc.Save(context.Background(), "OSRS-AAAAAA", in, nil))
	assert.Equal(t, 3, in[0].Items[0].Current, "caller's tiles must not be mutated")
	store.AssertExpectations(t)
}
