package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Ledger records which immutable resource identifiers have been fully
// retrieved at least once, per partition. Membership is permanent: there is
// no TTL and no removal. It distinguishes "never fetched" from "fetched but
// cache since expired", which an expiring cache cannot do.
type Ledger interface {
	Contains(ctx context.Context, partition, id string) (bool, error)
	Add(ctx context.Context, partition, id string) error
}

// RedisLedger implements Ledger on Redis sets, one set per partition.
type RedisLedger struct {
	redis *redis.Client
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(redisClient *redis.Client) *RedisLedger {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisLedger{redis: redisClient}
}

func ledgerKey(partition string) string {
	return "processed:" + partition
}

// Contains reports whether id was ever marked processed in partition.
func (l *RedisLedger) Contains(ctx context.Context, partition, id string) (bool, error) {
	member, err := l.redis.SIsMember(ctx, ledgerKey(partition), id).Result()
	if err != nil {
		cacheErrors.WithLabelValues("ledger_contains").Inc()
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return member, nil
}

// Add marks id processed in partition. No expiry is set on the ledger key.
func (l *RedisLedger) Add(ctx context.Context, partition, id string) error {
	if err := l.redis.SAdd(ctx, ledgerKey(partition), id).Err(); err != nil {
		cacheErrors.WithLabelValues("ledger_add").Inc()
		return fmt.Errorf("redis sadd: %w", err)
	}
	ledgerMarksTotal.Inc()
	return nil
}
