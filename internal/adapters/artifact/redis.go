package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only if it still holds our token.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisStore keeps the artifact under one key so several hosts can share it.
type RedisStore struct {
	client RedisClient
	key    string
	s      settings
}

// NewRedisStore connects lazily to the server in uri (redis://host:port/db).
func NewRedisStore(uri, key string, opts ...Option) (*RedisStore, error) {
	ropts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(ropts), key, opts...), nil
}

// NewRedisStoreWithClient binds a store to an existing client.
func NewRedisStoreWithClient(client RedisClient, key string, opts ...Option) *RedisStore {
	return &RedisStore{client: client, key: key, s: newSettings(opts)}
}

// Name implements Store.
func (r *RedisStore) Name() string { return "redis" }

// Read implements Store.
func (r *RedisStore) Read(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return val, nil
}

// Write implements Store.
func (r *RedisStore) Write(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Remove implements Store.
func (r *RedisStore) Remove(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Lock implements Store with SET NX PX and a random token. The lease expires
// on its own if the holder dies.
func (r *RedisStore) Lock(ctx context.Context, wait time.Duration) (func(), error) {
	lockKey := r.key + ":lock"
	token := uuid.NewString()

	err := acquire(ctx, wait, r.s.pollInterval, func() (bool, error) {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.s.lease).Result()
		if err != nil {
			return false, fmt.Errorf("redis lock %s: %w", lockKey, err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = r.client.Eval(context.Background(), unlockScript, []string{lockKey}, token).Err()
	}, nil
}
