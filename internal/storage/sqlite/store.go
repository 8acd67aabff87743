package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"bingo/internal/storage/sqlstore"
)

// Open initializes the SQLite database file and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*sqlstore.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := migrate(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("sqlite store ready", slog.String("path", dbPath))
	return sqlstore.New(conn, Dialect{}, logger), nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_code TEXT NOT NULL UNIQUE,
            password_hash TEXT,
            created_at DATETIME NOT NULL,
            last_updated DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS tiles (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id INTEGER NOT NULL,
            tile_id TEXT NOT NULL,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            or_logic BOOLEAN NOT NULL DEFAULT 0,
            completed BOOLEAN NOT NULL DEFAULT 0,
            position INTEGER NOT NULL,
            FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE,
            UNIQUE(session_id, tile_id)
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tile_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
            current_count INTEGER NOT NULL DEFAULT 0 CHECK (current_count >= 0),
            source TEXT NOT NULL DEFAULT '',
            position INTEGER NOT NULL,
            FOREIGN KEY(tile_id) REFERENCES tiles(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tiles_session ON tiles(session_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_items_tile ON items(tile_id, position);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Dialect adapts the shared SQL to SQLite.
type Dialect struct{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "sqlite" }

// Rebind implements sqlstore.Dialect; SQLite understands '?' natively.
func (Dialect) Rebind(query string) string { return query }

// IsUniqueViolation implements sqlstore.Dialect.
func (Dialect) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
