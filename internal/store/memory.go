package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/macabreb0b/interpunctbot/engine"
)

// Memory is an in-process Store for tests and the playground.
type Memory struct {
	mu     sync.Mutex
	nextID engine.GameID
	games  map[engine.GameID]Record
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, games: make(map[engine.GameID]Record)}
}

func (m *Memory) Create(ctx context.Context, kind engine.Kind, state json.RawMessage) (engine.GameID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.games[id] = Record{ID: id, Kind: kind, Stage: 0, State: append(json.RawMessage(nil), state...)}
	return id, nil
}

func (m *Memory) Load(ctx context.Context, id engine.GameID) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.State = append(json.RawMessage(nil), rec.State...)
	return rec, nil
}

func (m *Memory) Update(ctx context.Context, id engine.GameID, stage int, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	rec.Stage = stage
	rec.State = append(json.RawMessage(nil), state...)
	m.games[id] = rec
	return nil
}
