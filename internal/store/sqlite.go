package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/macabreb0b/interpunctbot/engine"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	stage INTEGER NOT NULL,
	state BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLite is a file-backed Store on modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// The driver is single-writer; serializing through one connection avoids
	// SQLITE_BUSY under concurrent presses.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nowMillis() int64 { return time.Now().UTC().UnixMilli() }

func (s *SQLite) Create(ctx context.Context, kind engine.Kind, state json.RawMessage) (engine.GameID, error) {
	now := nowMillis()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (kind, stage, state, created_at, updated_at) VALUES (?, 0, ?, ?, ?)`,
		string(kind), []byte(state), now, now)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return engine.GameID(id), nil
}

func (s *SQLite) Load(ctx context.Context, id engine.GameID) (Record, error) {
	var rec Record
	var kind string
	var state []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, stage, state FROM games WHERE id = ?`, int64(id)).
		Scan(&rec.ID, &kind, &rec.Stage, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %d: %w", id, err)
	}
	rec.Kind = engine.Kind(kind)
	rec.State = state
	return rec, nil
}

func (s *SQLite) Update(ctx context.Context, id engine.GameID, stage int, state json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET stage = ?, state = ?, updated_at = ? WHERE id = ?`,
		stage, []byte(state), nowMillis(), int64(id))
	if err != nil {
		return fmt.Errorf("update game %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
