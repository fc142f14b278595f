// Package store persists game records. Implementations are last-write-wins:
// racing presses are resolved by the driver's stage check, not here.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/macabreb0b/interpunctbot/engine"
)

// ErrNotFound is returned by Load when no record has the given id.
var ErrNotFound = errors.New("store: game not found")

// Record is one persisted game: its identity, the stage counter embedded in
// every live button, and the engine state as the engine encoded it.
type Record struct {
	ID    engine.GameID
	Kind  engine.Kind
	Stage int
	State json.RawMessage
}

// Store is the persistence surface the driver works against.
type Store interface {
	// Create inserts a stage-zero record and allocates its id.
	Create(ctx context.Context, kind engine.Kind, state json.RawMessage) (engine.GameID, error)
	// Load fetches a record by id, ErrNotFound if absent.
	Load(ctx context.Context, id engine.GameID) (Record, error)
	// Update overwrites the stage and state of an existing record.
	Update(ctx context.Context, id engine.GameID, stage int, state json.RawMessage) error
}
