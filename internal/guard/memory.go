package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/macabreb0b/interpunctbot/engine"
)

// Memory is an in-process Guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]bool)}
}

func markerKey(gameID engine.GameID, userID engine.UserID) string {
	return fmt.Sprintf("%d/%s", gameID, userID)
}

func (m *Memory) Acquire(ctx context.Context, gameID engine.GameID, userID engine.UserID) (func(), bool, error) {
	key := markerKey(gameID, userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, false, nil
	}
	m.held[key] = true
	release := func() {
		m.mu.Lock()
		delete(m.held, key)
		m.mu.Unlock()
	}
	return release, true, nil
}
