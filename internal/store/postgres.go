package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macabreb0b/interpunctbot/engine"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id BIGSERIAL PRIMARY KEY,
	kind TEXT NOT NULL,
	stage INTEGER NOT NULL,
	state BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres is a Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and applies the schema.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Create(ctx context.Context, kind engine.Kind, state json.RawMessage) (engine.GameID, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO games (kind, stage, state) VALUES ($1, 0, $2) RETURNING id`,
		string(kind), []byte(state)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return engine.GameID(id), nil
}

func (p *Postgres) Load(ctx context.Context, id engine.GameID) (Record, error) {
	var rec Record
	var kind string
	var state []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id, kind, stage, state FROM games WHERE id = $1`, int64(id)).
		Scan(&rec.ID, &kind, &rec.Stage, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %d: %w", id, err)
	}
	rec.Kind = engine.Kind(kind)
	rec.State = state
	return rec, nil
}

func (p *Postgres) Update(ctx context.Context, id engine.GameID, stage int, state json.RawMessage) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE games SET stage = $1, state = $2, updated_at = now() WHERE id = $3`,
		stage, []byte(state), int64(id))
	if err != nil {
		return fmt.Errorf("update game %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
