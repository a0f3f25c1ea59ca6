package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dwikikusuma/atelier/internal/cart/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_Open(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	sessions := NewSessions(snaps, "atelier-cart", nil)

	t.Run("empty id", func(t *testing.T) {
		_, err := sessions.Open(ctx, "  ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("same store per session", func(t *testing.T) {
		a, err := sessions.Open(ctx, "s1")
		require.NoError(t, err)
		b, err := sessions.Open(ctx, "s1")
		require.NoError(t, err)
		assert.Same(t, a, b)
		assert.Equal(t, "atelier-cart:s1", a.Key())
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		a, _ := sessions.Open(ctx, "s2")
		b, _ := sessions.Open(ctx, "s3")
		_, err := a.AddItem(ctx, lineItem("a1", "M", 100, 1))
		require.NoError(t, err)
		assert.Zero(t, b.TotalItems())
	})
}

func TestSessions_SweepRehydrates(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	sessions := NewSessions(snaps, "app", nil)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	store, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	_, err = store.AddItem(ctx, lineItem("a1", "M", 5000, 2))
	require.NoError(t, err)
	store.OpenCart()

	_, _ = sessions.Open(ctx, "s2")
	now = now.Add(10 * time.Minute)
	_, _ = sessions.Open(ctx, "s2")

	assert.Equal(t, 1, sessions.Sweep(5*time.Minute))
	assert.Equal(t, 1, sessions.Len())

	again, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, store, again)
	assert.Equal(t, 2, again.TotalItems())
	assert.False(t, again.State().IsOpen)
}

func TestSessions_RunSweeperStops(t *testing.T) {
	sessions := NewSessions(newFakeSnapshots(), "app", nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sessions.RunSweeper(ctx, time.Millisecond, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessions_LoadFailureKeepsStoredCart(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	sessions := NewSessions(snaps, "app", nil)

	seed, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	for _, it := range []struct {
		id  string
		qty int
	}{{"a1", 1}, {"a2", 2}, {"a3", 3}} {
		_, err := seed.AddItem(ctx, lineItem(it.id, "M", 1000, it.qty))
		require.NoError(t, err)
	}
	sessions.Sweep(-1)
	require.Zero(t, sessions.Len())

	snaps.mu.Lock()
	snaps.loadErr = errors.New("i/o timeout")
	snaps.mu.Unlock()

	_, err = sessions.Open(ctx, "s1")
	require.ErrorIs(t, err, ErrSnapshotUnavailable)
	assert.Zero(t, sessions.Len(), "a store that failed to load is not kept")

	snaps.mu.Lock()
	snaps.loadErr = nil
	snaps.mu.Unlock()

	store, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 6, store.TotalItems())

	_, err = store.AddItem(ctx, lineItem("a4", "M", 1000, 1))
	require.NoError(t, err)

	items, err := domain.DecodeSnapshot(snaps.data["app:s1"])
	require.NoError(t, err)
	assert.Equal(t, 7, domain.State{Items: items}.TotalItems())
}
