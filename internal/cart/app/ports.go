package app

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by a SnapshotStore when nothing is stored under a key.
var ErrNoSnapshot = errors.New("no snapshot")

// ErrSnapshotUnavailable wraps a Load failure other than a missing or
// unreadable snapshot. The stored cart may still be intact, so no store is
// built on top of it.
var ErrSnapshotUnavailable = errors.New("cart snapshot unavailable")

// SnapshotStore is the durable storage behind cart stores. Load and Save
// move whole encoded snapshots; a Save either replaces the value or fails.
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
}
