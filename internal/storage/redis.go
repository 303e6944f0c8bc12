package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisConfig holds configuration for the Redis-backed store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password for the Redis server, empty for none.
	Password string

	// DB selects the Redis logical database.
	DB int

	// KeyPrefix namespaces all keys (default: "omniroute:").
	KeyPrefix string

	// Logger for store operations.
	Logger zerolog.Logger
}

// RedisStore is a Store backed by Redis. Envelopes are stored as JSON with
// the TTL mirrored onto the Redis key so expired entries vanish server-side.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "omniroute:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: cfg.Logger,
	}, nil
}

// Get returns the value for key. Unreadable payloads are deleted and
// reported as absent.
func (r *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn().
			Str("key", key).
			Err(err).
			Msg("corrupt envelope in redis, evicting")
		r.client.Del(ctx, r.prefix+key)
		return nil, false, nil
	}
	if env.Expired(time.Now()) {
		r.client.Del(ctx, r.prefix+key)
		return nil, false, nil
	}
	return env.Value, true, nil
}

// Set stores value under key with the given TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	env, err := newEnvelope(value, ttl, time.Now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	var expiration time.Duration
	if ttl > 0 {
		expiration = ttl
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, expiration).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear removes all keys under the store's prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
