// Package memory keeps cart snapshots in process memory. Snapshots do not
// survive a restart; use it for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/dwikikusuma/atelier/internal/cart/app"
)

type SnapshotStore struct {
	mu    sync.RWMutex
	store map[string][]byte
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{store: make(map[string][]byte)}
}

func (m *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.store[key]
	if !ok {
		return nil, app.ErrNoSnapshot
	}
	return append([]byte(nil), data...), nil
}

func (m *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store[key] = append([]byte(nil), data...)
	return nil
}

func (m *SnapshotStore) Ping(ctx context.Context) error {
	return nil
}
