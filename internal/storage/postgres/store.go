// Package postgres opens the PostgreSQL backend through the pgx stdlib
// driver and prepares its schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bingo/internal/storage/sqlstore"
)

const uniqueViolation = "23505"

// Open connects to databaseURL, verifies the connection and applies the schema.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*sqlstore.Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("empty database url")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug("postgres store ready")
	return sqlstore.New(db, Dialect{}, logger), nil
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id BIGSERIAL PRIMARY KEY,
    session_code TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tiles (
    id BIGSERIAL PRIMARY KEY,
    session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tile_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    or_logic BOOLEAN NOT NULL DEFAULT FALSE,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    position INTEGER NOT NULL,
    UNIQUE (session_id, tile_id)
);

CREATE TABLE IF NOT EXISTS items (
    id BIGSERIAL PRIMARY KEY,
    tile_id BIGINT NOT NULL REFERENCES tiles(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
    current_count INTEGER NOT NULL DEFAULT 0 CHECK (current_count >= 0),
    source TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tiles_session ON tiles(session_id, position);
CREATE INDEX IF NOT EXISTS idx_items_tile ON items(tile_id, position);
`

// Dialect adapts the shared SQL to PostgreSQL.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "postgres" }

// Rebind implements sqlstore.Dialect.
func (Dialect) Rebind(query string) string { return sqlstore.DollarRebind(query) }

// IsUniqueViolation implements sqlstore.Dialect.
func (Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
