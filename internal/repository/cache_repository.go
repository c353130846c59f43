package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

const maxMutateAttempts = 5

// CacheRepository stores JSON documents in Redis and keeps sorted-set indexes over them.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Mutate loads key into dest, applies fn and writes dest back under optimistic locking.
// Concurrent writers cause a bounded number of retries.
func (r *CacheRepository) Mutate(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() error) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("redis get %s: %w", key, err)
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
		}
		if err := fn(); err != nil {
			return err
		}
		payload, err := json.Marshal(dest)
		if err != nil {
			return fmt.Errorf("marshal cache value for %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("redis mutate conflict, retrying", zap.String("key", key), zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
	return fmt.Errorf("redis mutate %s: gave up after %d conflicting writes", key, maxMutateAttempts)
}

// Delete removes keys, ignoring ones that do not exist.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %v: %w", keys, err)
	}
	return nil
}

// Index adds member to the sorted set index with the given score.
func (r *CacheRepository) Index(ctx context.Context, index, member string, score float64) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.ZAdd(ctx, index, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("redis zadd %s: %w", index, err)
	}
	return nil
}

// IndexMembers returns index members in ascending score order.
func (r *CacheRepository) IndexMembers(ctx context.Context, index string) ([]string, error) {
	if r.client == nil {
		return nil, nil
	}
	members, err := r.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange %s: %w", index, err)
	}
	return members, nil
}

// Unindex removes members from the sorted set index.
func (r *CacheRepository) Unindex(ctx context.Context, index string, members ...string) error {
	if r.client == nil || len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := r.client.ZRem(ctx, index, args...).Err(); err != nil {
		return fmt.Errorf("redis zrem %s: %w", index, err)
	}
	return nil
}

// Ping checks connectivity; a repository without a client is never ready.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
