package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

const redisKeyPrefix = "conductor:handler:"

// RedisStore keeps handler state as JSON values under a key prefix.
// Queries scan the prefix and filter client-side; the handler population
// of a single server stays small enough for that to be cheap.
type RedisStore struct {
	client *redis.Client
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.ErrStorage(fmt.Sprintf("connecting to redis at %s", opts.Addr)).WithCause(err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Update implements core.WorkflowStore.
func (s *RedisStore) Update(ctx context.Context, h core.PersistedHandler) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling handler: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+h.HandlerID, payload, 0).Err(); err != nil {
		return core.ErrStorage("writing handler").WithCause(err)
	}
	return nil
}

// Query implements core.WorkflowStore.
func (s *RedisStore) Query(ctx context.Context, q core.HandlerQuery) ([]core.PersistedHandler, error) {
	var out []core.PersistedHandler

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, core.ErrStorage("reading handler").WithCause(err)
		}

		var h core.PersistedHandler
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			return nil, fmt.Errorf("unmarshaling handler at %s: %w", iter.Val(), err)
		}
		if q.Matches(h) {
			out = append(out, h)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, core.ErrStorage("scanning handlers").WithCause(err)
	}
	return out, nil
}
