package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS storage_slots (
	visitor_id TEXT NOT NULL,
	item_key   TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (visitor_id, item_key)
)`

// SQLite keeps slots in a single table keyed by (visitor, key).
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (and migrates) the database at dsn. Use ":memory:" for a throwaway database.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("storage: sqlite driver requires a dsn")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate sqlite: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Slot returns the storage for visitorID.
func (s *SQLite) Slot(visitorID string) (Storage, error) {
	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}
	return sqliteSlot{backend: s, visitor: visitorID}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

type sqliteSlot struct {
	backend *SQLite
	visitor string
}

func (s sqliteSlot) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.backend.db.QueryRowContext(ctx,
		`SELECT value FROM storage_slots WHERE visitor_id = ? AND item_key = ?`,
		s.visitor, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s sqliteSlot) SetItem(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.backend.db.ExecContext(ctx,
		`INSERT INTO storage_slots (visitor_id, item_key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id, item_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.visitor, key, value, s.backend.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

func (s sqliteSlot) RemoveItem(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := s.backend.db.ExecContext(ctx,
		`DELETE FROM storage_slots WHERE visitor_id = ? AND item_key = ?`,
		s.visitor, key,
	); err != nil {
		return fmt.Errorf("storage: remove %s: %w", key, err)
	}
	return nil
}
