package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dwikikusuma/atelier/internal/cart/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSnapshots struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{data: make(map[string][]byte)}
}

func (f *fakeSnapshots) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	d, ok := f.data[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return d, nil
}

func (f *fakeSnapshots) Save(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.data[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeSnapshots) Ping(ctx context.Context) error { return nil }

func mustStore(t *testing.T, ctx context.Context, snaps SnapshotStore, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(ctx, "k", snaps, opts...)
	require.NoError(t, err)
	return s
}

func lineItem(id, size string, cents int64, qty int) domain.LineItem {
	return domain.LineItem{ArtworkID: id, Size: size, UnitPriceCents: cents, Quantity: qty, Title: "Print " + id}
}

func TestStore_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("same key merges", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots())
		_, err := s.AddItem(ctx, lineItem("a1", "M", 5000, 2))
		require.NoError(t, err)
		st, err := s.AddItem(ctx, lineItem("a1", "M", 5000, 3))
		require.NoError(t, err)

		require.Len(t, st.Items, 1)
		assert.Equal(t, 5, st.Items[0].Quantity)
		assert.Equal(t, 5, s.TotalItems())
		assert.Equal(t, int64(25000), s.TotalCents())
	})

	t.Run("default quantity is one", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots())
		st, err := s.AddItem(ctx, lineItem("a1", "M", 100, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, st.TotalItems())
	})

	t.Run("no upper bound", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots())
		st, err := s.AddItem(ctx, lineItem("a1", "M", 100, 1_000_000))
		require.NoError(t, err)
		assert.Equal(t, 1_000_000, st.TotalItems())
	})

	t.Run("invalid input", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots())
		_, err := s.AddItem(ctx, lineItem("  ", "M", 100, 1))
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = s.AddItem(ctx, lineItem("a1", "M", 100, -2))
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = s.AddItem(ctx, lineItem("a1", "M", -1, 1))
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, s.State().Items)
	})

	t.Run("does not open drawer by default", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots())
		st, err := s.AddItem(ctx, lineItem("a1", "M", 100, 1))
		require.NoError(t, err)
		assert.False(t, st.IsOpen)
	})

	t.Run("open on add when configured", func(t *testing.T) {
		s := mustStore(t, ctx, newFakeSnapshots(), WithOpenOnAdd(true))
		st, err := s.AddItem(ctx, lineItem("a1", "M", 100, 1))
		require.NoError(t, err)
		assert.True(t, st.IsOpen)
	})
}

func TestStore_RemoveAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())
	_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 2))
	_, _ = s.AddItem(ctx, lineItem("a2", "S", 1500, 1))

	t.Run("remove absent leaves items unchanged", func(t *testing.T) {
		before := s.State().Items
		st, err := s.RemoveItem(ctx, "nope", "M")
		require.NoError(t, err)
		if diff := cmp.Diff(before, st.Items); diff != "" {
			t.Fatalf("items changed (-before +after):\n%s", diff)
		}
	})

	t.Run("update absent is no-op", func(t *testing.T) {
		before := s.State().Items
		st, err := s.UpdateQuantity(ctx, "a1", "XL", 4)
		require.NoError(t, err)
		assert.True(t, cmp.Equal(before, st.Items))
	})

	t.Run("update sets exactly", func(t *testing.T) {
		st, err := s.UpdateQuantity(ctx, "a2", "S", 4)
		require.NoError(t, err)
		line, ok := st.Find(domain.Key{ArtworkID: "a2", Size: "S"})
		require.True(t, ok)
		assert.Equal(t, 4, line.Quantity)
	})

	t.Run("update to zero removes", func(t *testing.T) {
		st, err := s.UpdateQuantity(ctx, "a1", "M", 0)
		require.NoError(t, err)
		_, ok := st.Find(domain.Key{ArtworkID: "a1", Size: "M"})
		assert.False(t, ok)
		assert.Equal(t, 4, st.TotalItems())
	})

	t.Run("remove present", func(t *testing.T) {
		st, err := s.RemoveItem(ctx, "a2", "S")
		require.NoError(t, err)
		assert.Empty(t, st.Items)
		assert.Zero(t, st.TotalCents())
	})
}

func TestStore_KeysAreTrimmedEverywhere(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())

	_, err := s.AddItem(ctx, lineItem(" a1 ", "M ", 100, 1))
	require.NoError(t, err)
	_, err = s.AddItem(ctx, lineItem("a1", "M", 100, 1))
	require.NoError(t, err)
	require.Len(t, s.State().Items, 1)

	st, err := s.UpdateQuantity(ctx, "a1 ", " M", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalItems())

	st, err = s.RemoveItem(ctx, " a1", "M ")
	require.NoError(t, err)
	assert.Empty(t, st.Items)
}

func TestStore_ClearKeepsDrawer(t *testing.T) {
	ctx := context.Background()
	for _, open := range []bool{true, false} {
		s := mustStore(t, ctx, newFakeSnapshots())
		_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 2))
		if open {
			s.OpenCart()
		}

		st, err := s.Clear(ctx)
		require.NoError(t, err)
		assert.Empty(t, st.Items)
		assert.Zero(t, st.TotalCents())
		assert.Equal(t, open, st.IsOpen)
	}
}

func TestStore_OpenClose(t *testing.T) {
	s := mustStore(t, context.Background(), newFakeSnapshots())
	assert.True(t, s.OpenCart().IsOpen)
	assert.True(t, s.OpenCart().IsOpen)
	assert.False(t, s.CloseCart().IsOpen)
	assert.False(t, s.CloseCart().IsOpen)
}

func TestStore_Hydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("legacy snapshot", func(t *testing.T) {
		snaps := newFakeSnapshots()
		snaps.data["k"] = []byte(`[{"artworkId":"a1","size":"M","unitPriceCents":5000,"quantity":2,"title":"X","imageUrl":"/x.jpg","isOpen":true}]`)

		s := mustStore(t, ctx, snaps)
		assert.Equal(t, 2, s.TotalItems())
		assert.Equal(t, int64(10000), s.TotalCents())
		assert.False(t, s.State().IsOpen)
	})

	t.Run("open flag never restored", func(t *testing.T) {
		snaps := newFakeSnapshots()
		s := mustStore(t, ctx, snaps)
		s.OpenCart()
		_, err := s.AddItem(ctx, lineItem("a1", "M", 100, 1))
		require.NoError(t, err)

		reloaded := mustStore(t, ctx, snaps)
		assert.False(t, reloaded.State().IsOpen)
		assert.Equal(t, 1, reloaded.TotalItems())
	})

	t.Run("corrupt snapshot", func(t *testing.T) {
		snaps := newFakeSnapshots()
		snaps.data["k"] = []byte(`{{{ nope`)

		s := mustStore(t, ctx, snaps)
		assert.Empty(t, s.State().Items)
	})

	t.Run("load failure is reported", func(t *testing.T) {
		snaps := newFakeSnapshots()
		snaps.loadErr = errors.New("i/o timeout")

		s, err := NewStore(ctx, "k", snaps)
		assert.ErrorIs(t, err, ErrSnapshotUnavailable)
		assert.ErrorContains(t, err, "i/o timeout")
		assert.Nil(t, s)
	})
}

func TestStore_PersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	s := mustStore(t, ctx, snaps)
	_, err := s.AddItem(ctx, lineItem("a1", "M", 5000, 1))
	require.NoError(t, err)

	var seen int
	cancel := s.Subscribe(func(domain.State) { seen++ })
	defer cancel()

	snaps.saveErr = errors.New("quota exceeded")
	before := s.State()

	_, err = s.AddItem(ctx, lineItem("a1", "M", 5000, 4))
	require.Error(t, err)
	_, err = s.UpdateQuantity(ctx, "a1", "M", 9)
	require.Error(t, err)
	_, err = s.Clear(ctx)
	require.Error(t, err)

	assert.True(t, cmp.Equal(before, s.State()))
	assert.Zero(t, seen)

	reloaded := mustStore(t, ctx, newFakeSnapshotsFrom(snaps))
	assert.Equal(t, 1, reloaded.TotalItems())
}

func newFakeSnapshotsFrom(f *fakeSnapshots) *fakeSnapshots {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := newFakeSnapshots()
	for k, v := range f.data {
		out.data[k] = v
	}
	return out
}

func TestStore_SnapshotWrittenAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	s := mustStore(t, ctx, snaps)

	_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 1))
	_, _ = s.AddItem(ctx, lineItem("a2", "L", 7000, 1))
	_, _ = s.UpdateQuantity(ctx, "a1", "M", 3)
	_, _ = s.RemoveItem(ctx, "a2", "L")
	s.OpenCart()

	items, err := domain.DecodeSnapshot(snaps.data["k"])
	require.NoError(t, err)
	if diff := cmp.Diff(s.State().Items, items); diff != "" {
		t.Fatalf("snapshot drift (-state +snapshot):\n%s", diff)
	}
	assert.Equal(t, 4, snaps.saves)
}

func TestStore_SubscribersSeeCommits(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())

	var badge, drawer []int
	cancelBadge := s.Subscribe(func(st domain.State) { badge = append(badge, st.TotalItems()) })
	cancelDrawer := s.Subscribe(func(st domain.State) { drawer = append(drawer, st.TotalItems()) })

	_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 2))
	_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 1))
	cancelDrawer()
	_, _ = s.RemoveItem(ctx, "a1", "M")
	cancelBadge()
	_, _ = s.AddItem(ctx, lineItem("a9", "M", 1, 1))

	assert.Equal(t, []int{2, 3, 0}, badge)
	assert.Equal(t, []int{2, 3}, drawer)
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddItem(ctx, lineItem("a1", "M", 100, 1))
		}()
	}
	wg.Wait()

	st := s.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, n, st.Items[0].Quantity)
}

func TestStore_TotalsHoldAfterAnySequence(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())

	ops := []func(){
		func() { _, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 2)) },
		func() { _, _ = s.AddItem(ctx, lineItem("a2", "S", 1999, 1)) },
		func() { _, _ = s.UpdateQuantity(ctx, "a2", "S", 5) },
		func() { _, _ = s.AddItem(ctx, lineItem("a1", "L", 8000, 1)) },
		func() { _, _ = s.RemoveItem(ctx, "a1", "M") },
		func() { _, _ = s.UpdateQuantity(ctx, "a1", "L", -1) },
		func() { _, _ = s.AddItem(ctx, lineItem("a3", "M", 250, 7)) },
	}

	for i, op := range ops {
		op()
		st := s.State()
		var qty int
		var cents int64
		for _, it := range st.Items {
			qty += it.Quantity
			cents += it.UnitPriceCents * int64(it.Quantity)
		}
		assert.Equal(t, qty, st.TotalItems(), "step %d", i)
		assert.Equal(t, cents, st.TotalCents(), "step %d", i)
	}
}

func TestStore_Reprice(t *testing.T) {
	ctx := context.Background()
	s := mustStore(t, ctx, newFakeSnapshots())
	_, _ = s.AddItem(ctx, lineItem("a1", "M", 5000, 2))

	st, err := s.Reprice(ctx, "a1", "M", 5500)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), st.TotalCents())

	_, err = s.Reprice(ctx, "a1", "M", -5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	st, err = s.Reprice(ctx, "zz", "M", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), st.TotalCents())
}
