// Package cache provides whole-JSON-document caching for gateway responses
// with a Redis backend, plus the permanent processed ledger for immutable
// resources and the cache-aside orchestration that ties them together.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the requested key was not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Store is the abstract key-value collaborator: JSON documents with a TTL.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore implements Store on Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Get retrieves a cached document. Returns ErrCacheMiss if the key does not
// exist or has expired.
func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	cacheHits.Inc()
	return json.RawMessage(data), nil
}

// Set stores a document under key for ttl. A rewrite of an existing key
// fully replaces both value and TTL. Non-positive TTLs are not cached.
func (s *RedisStore) Set(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, key, []byte(value), ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key. Core logic never deletes; this exists for the health
// self-test.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// SelfTest performs a set/get/delete round trip under a probe key. Used by
// the health endpoint to verify the store is usable end to end.
func (s *RedisStore) SelfTest(ctx context.Context) error {
	key := Key{Category: "health", Discriminators: []string{"selftest"}}.String()
	probe := json.RawMessage(`{"ok": true}`)

	if err := s.Set(ctx, key, probe, 10*time.Second); err != nil {
		return fmt.Errorf("self-test set: %w", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("self-test get: %w", err)
	}
	if string(got) != string(probe) {
		return fmt.Errorf("self-test read back %q", got)
	}
	if err := s.Delete(ctx, key); err != nil {
		return fmt.Errorf("self-test delete: %w", err)
	}
	return nil
}
