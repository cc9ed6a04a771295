// internal/store/memory.go
//
// Checkpoint persistence for in-progress sessions.
//
// Store is the contract; this file holds the in-memory implementation used by
// tests and by the client when no database path is configured.
//
// Characteristics:
//   - Snapshots keyed by game code; Save overwrites.
//   - Concurrency-safe via RWMutex (Async writes from its own goroutine).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/connections/internal/game"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store persists one snapshot per game code.
type Store interface {
	// Save persists or overwrites the snapshot for code.
	Save(ctx context.Context, code string, snap game.Snapshot) error

	// Load returns the last snapshot for code; found is false if none exists.
	Load(ctx context.Context, code string) (snap game.Snapshot, found bool, err error)

	// Delete removes the snapshot for code, if any.
	Delete(ctx context.Context, code string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex
	snaps map[string]game.Snapshot
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{snaps: make(map[string]game.Snapshot)}
}

func (m *memory) Save(ctx context.Context, code string, snap game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[code] = snap
	return nil
}

func (m *memory) Load(ctx context.Context, code string) (game.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[code]
	return snap, ok, nil
}

func (m *memory) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, code)
	return nil
}
