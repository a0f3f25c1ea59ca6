package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dwikikusuma/atelier/internal/cart/app"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const field = "cart"

// SnapshotStore keeps each cart snapshot in the "cart" field of a hash
// named after the snapshot key.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewClient accepts either a redis:// URL or a bare host:port.
func NewClient(addr string) *redis.Client {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())
	return client
}

// NewSnapshotStore wraps client. A positive ttl expires carts that have not
// been written for that long.
func NewSnapshotStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *SnapshotStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotStore{client: client, ttl: ttl, log: log}
}

func (r *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, app.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGet: %w", err)
	}
	return val, nil
}

func (r *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, field, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis HSet: %w", err)
	}
	return nil
}

func (r *SnapshotStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.client.Ping(pingCtx).Err()
}

// WaitReady pings with exponential backoff (capped at 30s) until redis
// answers, attempts run out, or ctx is done.
func (r *SnapshotStore) WaitReady(ctx context.Context, attempts int) error {
	for i := 0; i < attempts; i++ {
		err := r.Ping(ctx)
		if err == nil {
			r.log.Info("redis ready", zap.Int("attempt", i+1))
			return nil
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		r.log.Warn("redis not ready", zap.Int("attempt", i+1), zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis not ready after %d attempts", attempts)
}

func (r *SnapshotStore) Close() error {
	return r.client.Close()
}
