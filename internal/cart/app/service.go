package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sessions hands out one Store per storefront session. Idle stores are
// dropped from memory and rehydrate from their snapshot on next use.
type Sessions struct {
	snapshots SnapshotStore
	appKey    string
	log       *zap.Logger
	opts      []Option

	mu     sync.Mutex
	stores map[string]*session
	now    func() time.Time
}

type session struct {
	store    *Store
	lastSeen time.Time
}

func NewSessions(snapshots SnapshotStore, appKey string, log *zap.Logger, opts ...Option) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{
		snapshots: snapshots,
		appKey:    appKey,
		log:       log,
		opts:      append([]Option{WithLogger(log)}, opts...),
		stores:    make(map[string]*session),
		now:       time.Now,
	}
}

// SnapshotKey is the durable key of a session's cart.
func SnapshotKey(appKey, sessionID string) string {
	return appKey + ":" + sessionID
}

// Open returns the session's store, hydrating it on first use. A store whose
// snapshot could not be loaded is not kept, so the next Open retries.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.stores[sessionID]; ok {
		sess.lastSeen = s.now()
		return sess.store, nil
	}

	store, err := NewStore(ctx, SnapshotKey(s.appKey, sessionID), s.snapshots, s.opts...)
	if err != nil {
		return nil, err
	}
	s.stores[sessionID] = &session{store: store, lastSeen: s.now()}
	return store, nil
}

// Sweep drops stores idle for longer than maxIdle and reports how many.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	dropped := 0
	for id, sess := range s.stores {
		if sess.lastSeen.Before(cutoff) {
			delete(s.stores, id)
			dropped++
		}
	}
	return dropped
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 || maxIdle <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				s.log.Debug("idle carts dropped", zap.Int("count", n))
			}
		}
	}
}

func (s *Sessions) Ping(ctx context.Context) error {
	return s.snapshots.Ping(ctx)
}
