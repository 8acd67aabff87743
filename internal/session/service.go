package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"bingo/internal/models"
	"bingo/internal/sessioncode"
	"bingo/internal/storage"
)

// MinPasswordLength is the shortest password ClaimPassword accepts.
const MinPasswordLength = 4

// Service orchestrates session creation, loading, saving and claiming.
type Service struct {
	store      Store
	guard      *Guard
	logger     *slog.Logger
	now        func() time.Time
	generate   func() string
	bcryptCost int
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger used for operational events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator replaces the session code generator.
func WithCodeGenerator(gen func() string) Option {
	return func(s *Service) { s.generate = gen }
}

// WithBcryptCost sets the cost used to hash claimed passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// NewService creates a new session service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		guard:      NewGuard(store),
		logger:     slog.Default(),
		now:        time.Now,
		generate:   sessioncode.Generate,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new board and returns it with its freshly allocated code.
func (s *Service) Create(ctx context.Context, tiles []models.Tile) (models.Session, error) {
	if err := models.ValidateTiles(tiles); err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tiles = models.CloneTiles(tiles)
	models.Normalize(tiles)

	for attempt := 0; attempt < sessioncode.MaxAttempts; attempt++ {
		code := s.generate()
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return models.Session{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if exists {
			s.logger.Debug("session code collision", slog.String("code", code), slog.Int("attempt", attempt+1))
			continue
		}

		now := s.now().UTC()
		sess, err := s.store.CreateSession(ctx, models.Session{
			Code:        code,
			CreatedAt:   now,
			LastUpdated: now,
			Tiles:       tiles,
		})
		if errors.Is(err, storage.ErrDuplicateCode) {
			s.logger.Debug("session code taken concurrently", slog.String("code", code), slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return models.Session{}, fmt.Errorf("%w: creating session: %v", ErrPersistence, err)
		}

		s.logger.Info("session created", slog.String("code", sess.Code), slog.Int("tiles", len(tiles)))
		return sess, nil
	}

	s.logger.Error("session code space exhausted", slog.Int("attempts", sessioncode.MaxAttempts))
	return models.Session{}, ErrGenerationExhausted
}

// Load returns a session by code. It never modifies the session.
func (s *Service) Load(ctx context.Context, code string) (models.Session, error) {
	if !sessioncode.Validate(code) {
		return models.Session{}, invalidCode()
	}

	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, fmt.Errorf("%w: loading session: %v", ErrPersistence, err)
	}
	models.Normalize(sess.Tiles)
	sess.PasswordHash = ""
	return sess, nil
}

// Save replaces the full tile list of an existing session. The last commit
// wins when two clients save concurrently.
func (s *Service) Save(ctx context.Context, code string, tiles []models.Tile, password *string) error {
	if !sessioncode.Validate(code) {
		return invalidCode()
	}
	if err := models.ValidateTiles(tiles); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.guard.Check(ctx, code, password); err != nil {
		return err
	}

	tiles = models.CloneTiles(tiles)
	models.Normalize(tiles)

	if err := s.store.ReplaceTiles(ctx, code, tiles, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: saving session: %v", ErrPersistence, err)
	}

	s.logger.Info("session saved", slog.String("code", code), slog.Int("tiles", len(tiles)))
	return nil
}

// ClaimPassword protects an unprotected session with password. Claiming an
// already protected session fails with ErrConflict and keeps the original.
func (s *Service) ClaimPassword(ctx context.Context, code, password string) error {
	if !sessioncode.Validate(code) {
		return invalidCode()
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	current, err := s.store.PasswordHash(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: loading credential: %v", ErrPersistence, err)
	}
	if current != "" {
		return ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.SetPasswordHash(ctx, code, string(hash)); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, storage.ErrConflict):
			return ErrConflict
		default:
			return fmt.Errorf("%w: storing credential: %v", ErrPersistence, err)
		}
	}

	s.logger.Info("session claimed", slog.String("code", code))
	return nil
}

func invalidCode() error {
	return fmt.Errorf("%w: invalid session code format", ErrValidation)
}
