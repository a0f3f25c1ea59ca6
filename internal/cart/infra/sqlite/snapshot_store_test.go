package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwikikusuma/atelier/internal/cart/app"
	"github.com/dwikikusuma/atelier/internal/cart/domain"
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	db, err := sqlitedb.OpenMigrated(context.Background(), sqlitedb.Config{Path: filepath.Join(t.TempDir(), "cart.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSnapshotStore(db)
}

func TestSnapshotStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Load(ctx, "app:s1")
	require.ErrorIs(t, err, app.ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, "app:s1", []byte(`{"version":1,"items":[]}`)))
	require.NoError(t, store.Save(ctx, "app:s1", []byte(`{"version":1,"items":null}`)))

	got, err := store.Load(ctx, "app:s1")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"items":null}`, string(got))
	assert.NoError(t, store.Ping(ctx))
}

func TestSnapshotStore_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now.Add(-48 * time.Hour) }
	require.NoError(t, store.Save(ctx, "app:old", []byte("[]")))
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(ctx, "app:new", []byte("[]")))

	n, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Load(ctx, "app:old")
	assert.ErrorIs(t, err, app.ErrNoSnapshot)
	_, err = store.Load(ctx, "app:new")
	assert.NoError(t, err)
}

func TestSnapshotStore_BacksCartStore(t *testing.T) {
	ctx := context.Background()
	snaps := newTestStore(t)

	sessions := app.NewSessions(snaps, "atelier-cart", nil)
	store, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	_, err = store.AddItem(ctx, lineItem())
	require.NoError(t, err)

	reloaded, err := app.NewStore(ctx, app.SnapshotKey("atelier-cart", "s1"), snaps)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalItems())
	assert.Equal(t, int64(10000), reloaded.TotalCents())
}

func lineItem() domain.LineItem {
	return domain.LineItem{ArtworkID: "a1", Size: "M", UnitPriceCents: 5000, Quantity: 2, Title: "X"}
}
