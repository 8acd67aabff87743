// Package sqlstore persists bingo sessions in a relational database. The
// SQL is shared between backends; the sqlite and postgres packages open the
// connection, create the schema and supply a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bingo/internal/models"
	"bingo/internal/storage"
)

// Store wraps a database handle and exposes session level helpers.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// New builds a Store on top of an already migrated database.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

// DB exposes the underlying handle for schema helpers and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

// withTx runs fn inside a transaction. Any error from fn rolls the whole
// transaction back before it is returned.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", slog.String("backend", s.dialect.Name()), slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CodeExists reports whether a session already uses code.
func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.q(`SELECT EXISTS(SELECT 1 FROM sessions WHERE session_code = ?)`), code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session code: %w", err)
	}
	return exists, nil
}

// CreateSession inserts the session row and its full tile tree in one
// transaction. Tiles are expected to be normalized by the caller.
func (s *Store) CreateSession(ctx context.Context, sess models.Session) (models.Session, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			s.q(`INSERT INTO sessions(session_code, created_at, last_updated) VALUES(?, ?, ?) RETURNING id`),
			sess.Code, sess.CreatedAt, sess.LastUpdated,
		).Scan(&sess.ID)
		if err != nil {
			if s.dialect.IsUniqueViolation(err) {
				return storage.ErrDuplicateCode
			}
			return fmt.Errorf("insert session: %w", err)
		}
		return s.insertTiles(ctx, tx, sess.ID, sess.Tiles)
	})
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// GetSession loads a session with its ordered tiles and items.
func (s *Store) GetSession(ctx context.Context, code string) (models.Session, error) {
	var (
		sess models.Session
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, session_code, password_hash, created_at, last_updated FROM sessions WHERE session_code = ?`), code).
		Scan(&sess.ID, &sess.Code, &hash, &sess.CreatedAt, &sess.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	sess.IsProtected = hash.Valid && hash.String != ""

	tiles, err := s.listTiles(ctx, sess.ID)
	if err != nil {
		return models.Session{}, err
	}
	sess.Tiles = tiles
	return sess, nil
}

// ReplaceTiles swaps the session's whole tile tree and bumps last_updated.
// Either everything is replaced or nothing changes.
func (s *Store) ReplaceTiles(ctx context.Context, code string, tiles []models.Tile, updatedAt time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var sessionID int64
		err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM sessions WHERE session_code = ?`), code).Scan(&sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select session: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM tiles WHERE session_id = ?`), sessionID); err != nil {
			return fmt.Errorf("delete tiles: %w", err)
		}
		if err := s.insertTiles(ctx, tx, sessionID, tiles); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE sessions SET last_updated = ? WHERE id = ?`), updatedAt, sessionID); err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	})
}

// PasswordHash returns the stored credential, or "" for an unprotected
// session.
func (s *Store) PasswordHash(ctx context.Context, code string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, s.q(`SELECT password_hash FROM sessions WHERE session_code = ?`), code).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash.String, nil
}

// SetPasswordHash stores a credential on a session that has none yet.
func (s *Store) SetPasswordHash(ctx context.Context, code, hash string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE sessions SET password_hash = ? WHERE session_code = ? AND password_hash IS NULL`), hash, code)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	exists, err := s.CodeExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

func (s *Store) insertTiles(ctx context.Context, tx *sql.Tx, sessionID int64, tiles []models.Tile) error {
	tileStmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO tiles(session_id, tile_id, name, description, notes, or_logic, completed, position)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`))
	if err != nil {
		return fmt.Errorf("prepare tile insert: %w", err)
	}
	defer tileStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO items(tile_id, name, quantity, current_count, source, position)
        VALUES(?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer itemStmt.Close()

	for i, t := range tiles {
		var tileDBID int64
		err := tileStmt.QueryRowContext(ctx, sessionID, t.ID, t.Name, t.Description, t.Notes, t.OrLogic, t.Completed, i).Scan(&tileDBID)
		if err != nil {
			return fmt.Errorf("insert tile %q: %w", t.ID, err)
		}
		for j, it := range t.Items {
			if _, err := itemStmt.ExecContext(ctx, tileDBID, it.Name, it.Quantity, it.Current, it.Source, j); err != nil {
				return fmt.Errorf("insert item %q of tile %q: %w", it.Name, t.ID, err)
			}
		}
	}
	return nil
}

func (s *Store) listTiles(ctx context.Context, sessionID int64) ([]models.Tile, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, tile_id, name, description, notes, or_logic, completed, position
        FROM tiles WHERE session_id = ? ORDER BY position`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	tiles := []models.Tile{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			dbID int64
			t    models.Tile
		)
		if err := rows.Scan(&dbID, &t.ID, &t.Name, &t.Description, &t.Notes, &t.OrLogic, &t.Completed, &t.Position); err != nil {
			return nil, fmt.Errorf("scan tile: %w", err)
		}
		t.Items = []models.Item{}
		index[dbID] = len(tiles)
		tiles = append(tiles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiles: %w", err)
	}
	if len(tiles) == 0 {
		return tiles, nil
	}

	itemRows, err := s.db.QueryContext(ctx, s.q(`SELECT i.tile_id, i.name, i.quantity, i.current_count, i.source, i.position
        FROM items i JOIN tiles t ON t.id = i.tile_id
        WHERE t.session_id = ? ORDER BY t.position, i.position`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			tileDBID int64
			it       models.Item
		)
		if err := itemRows.Scan(&tileDBID, &it.Name, &it.Quantity, &it.Current, &it.Source, &it.Position); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		idx, ok := index[tileDBID]
		if !ok {
			continue
		}
		tiles[idx].Items = append(tiles[idx].Items, it)
	}
	return tiles, itemRows.Err()
}
