package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dwikikusuma/atelier/internal/cart/app"
)

// SnapshotStore keeps cart snapshots in the cart_snapshots table.
type SnapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

func (r *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM cart_snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, app.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_snapshots (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, r.now().UnixMilli(),
	)
	return err
}

// DeleteOlderThan removes snapshots not written since cutoff.
func (r *SnapshotStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SnapshotStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
