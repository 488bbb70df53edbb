package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS session_areas (
		session_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_batches (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_batches_session
		ON session_batches (session_id, id)`,
}

// SQLite stores areas in a local database file. Useful when several
// short-lived processes share one machine and memory is tight.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: init sqlite schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Open(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_areas (session_id, created_at) VALUES (?, ?)`,
		key, now(),
	)
	if err != nil {
		return fmt.Errorf("store: sqlite open %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAreaExists
	}
	return nil
}

func (s *SQLite) Append(ctx context.Context, key string, batch Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("store: encode batch: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO session_batches (session_id, payload, created_at)
		 SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM session_areas WHERE session_id = ?)`,
		key, string(data), now(), key,
	)
	if err != nil {
		return fmt.Errorf("store: sqlite append %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotOpen
	}
	return nil
}

func (s *SQLite) ReadAll(ctx context.Context, key string) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM session_batches WHERE session_id = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("store: sqlite read %s: %w", key, err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: sqlite scan: %w", err)
		}
		var b Batch
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, fmt.Errorf("store: decode batch of %s: %w", key, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: sqlite delete %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_batches WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("store: sqlite delete %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_areas WHERE session_id = ?`, key); err != nil {
		return fmt.Errorf("store: sqlite delete %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
