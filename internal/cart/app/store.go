package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dwikikusuma/atelier/internal/cart/domain"
	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

type Option func(*Store)

// WithOpenOnAdd makes AddItem open the drawer.
func WithOpenOnAdd(open bool) Option {
	return func(s *Store) { s.openOnAdd = open }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Store owns one session's cart. Mutations are serialized and a new item
// sequence is committed only after it has been persisted.
type Store struct {
	key       string
	snapshots SnapshotStore
	log       *zap.Logger
	openOnAdd bool

	mu    sync.Mutex
	state domain.State

	// pubMu is taken before mu is released so subscribers see commits in order.
	pubMu  sync.Mutex
	subsMu sync.Mutex
	subs   map[int]func(domain.State)
	nextID int
}

// NewStore hydrates a store from the snapshot under key. A missing or
// undecodable snapshot starts an empty cart; the drawer always starts closed.
// A failed Load returns ErrSnapshotUnavailable and no store.
func NewStore(ctx context.Context, key string, snapshots SnapshotStore, opts ...Option) (*Store, error) {
	s := &Store{
		key:       key,
		snapshots: snapshots,
		log:       zap.NewNop(),
		subs:      make(map[int]func(domain.State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	items, err := s.hydrate(ctx)
	if err != nil {
		return nil, err
	}
	s.state = domain.State{Items: items}
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) ([]domain.LineItem, error) {
	data, err := s.snapshots.Load(ctx, s.key)
	if errors.Is(err, ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSnapshotUnavailable, s.key, err)
	}

	items, err := domain.DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("cart snapshot unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil, nil
	}
	return items, nil
}

func (s *Store) Key() string { return s.key }

// State returns a copy of the committed state.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) TotalItems() int { return s.State().TotalItems() }

func (s *Store) TotalCents() int64 { return s.State().TotalCents() }

// AddItem merges item into the line with the same (artwork, size) or appends
// it. A zero quantity means one. Edition limits are not checked here.
func (s *Store) AddItem(ctx context.Context, item domain.LineItem) (domain.State, error) {
	item.ArtworkID, item.Size = normalizeKey(item.ArtworkID, item.Size)
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.ArtworkID == "" || item.Quantity < 0 || item.UnitPriceCents < 0 {
		return s.State(), ErrInvalidInput
	}

	return s.mutate(ctx, s.openOnAdd, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return domain.WithAdded(items, item), true
	})
}

// RemoveItem deletes a line; an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, artworkID, size string) (domain.State, error) {
	k := lineKey(artworkID, size)
	return s.mutate(ctx, false, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return domain.WithRemoved(items, k)
	})
}

// UpdateQuantity sets a line's quantity exactly; quantity <= 0 removes it
// and an absent line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, artworkID, size string, quantity int) (domain.State, error) {
	k := lineKey(artworkID, size)
	return s.mutate(ctx, false, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return domain.WithQuantity(items, k, quantity)
	})
}

// Reprice replaces a line's unit price after the shopper accepted a catalog
// change; an absent line is a no-op.
func (s *Store) Reprice(ctx context.Context, artworkID, size string, unitPriceCents int64) (domain.State, error) {
	if unitPriceCents < 0 {
		return s.State(), ErrInvalidInput
	}
	k := lineKey(artworkID, size)
	return s.mutate(ctx, false, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		return domain.WithPrice(items, k, unitPriceCents)
	})
}

// Clear empties the cart and always rewrites the snapshot. IsOpen is kept.
func (s *Store) Clear(ctx context.Context) (domain.State, error) {
	return s.mutate(ctx, false, func([]domain.LineItem) ([]domain.LineItem, bool) {
		return nil, true
	})
}

// normalizeKey trims a line key the same way for every operation.
func normalizeKey(artworkID, size string) (string, string) {
	return strings.TrimSpace(artworkID), strings.TrimSpace(size)
}

func lineKey(artworkID, size string) domain.Key {
	artworkID, size = normalizeKey(artworkID, size)
	return domain.Key{ArtworkID: artworkID, Size: size}
}

func (s *Store) OpenCart() domain.State { return s.setOpen(true) }

func (s *Store) CloseCart() domain.State { return s.setOpen(false) }

// Subscribe registers fn for every committed state and returns a cancel
// func. fn runs synchronously and must not mutate the store.
func (s *Store) Subscribe(fn func(domain.State)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) mutate(ctx context.Context, open bool, fn func([]domain.LineItem) ([]domain.LineItem, bool)) (domain.State, error) {
	s.mu.Lock()

	next, changed := fn(s.state.Items)
	if !changed {
		st := s.copyLocked()
		s.mu.Unlock()
		return st, nil
	}

	if err := s.persistLocked(ctx, next); err != nil {
		st := s.copyLocked()
		s.mu.Unlock()
		return st, err
	}

	s.state.Items = next
	if open {
		s.state.IsOpen = true
	}
	st := s.copyLocked()

	s.pubMu.Lock()
	s.mu.Unlock()
	s.publish(st)
	s.pubMu.Unlock()

	return st, nil
}

func (s *Store) setOpen(open bool) domain.State {
	s.mu.Lock()
	if s.state.IsOpen == open {
		st := s.copyLocked()
		s.mu.Unlock()
		return st
	}
	s.state.IsOpen = open
	st := s.copyLocked()

	s.pubMu.Lock()
	s.mu.Unlock()
	s.publish(st)
	s.pubMu.Unlock()

	return st
}

func (s *Store) persistLocked(ctx context.Context, items []domain.LineItem) error {
	data, err := domain.EncodeSnapshot(items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.snapshots.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (s *Store) publish(st domain.State) {
	s.subsMu.Lock()
	fns := make([]func(domain.State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) copyLocked() domain.State {
	return domain.State{
		Items:  domain.CloneItems(s.state.Items),
		IsOpen: s.state.IsOpen,
	}
}
