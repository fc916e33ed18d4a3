// Package redis stores feedback counters in a Redis hash.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/kiln/internal/feedback"
	"github.com/davidbz/kiln/internal/observability"
)

const pingTimeout = 5 * time.Second

// Store implements feedback.Store with HINCRBY on a single hash.
type Store struct {
	client *redis.Client
	key    string
}

// NewClient builds a Redis client from feedback configuration.
func NewClient(cfg feedback.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// NewStore creates a store and checks that Redis is reachable.
func NewStore(ctx context.Context, client *redis.Client, key string) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	observability.FromContext(ctx).Info("feedback store connected",
		observability.String("addr", client.Options().Addr),
		observability.String("key", key))

	return &Store{client: client, key: key}, nil
}

// Increment implements feedback.Store.
func (s *Store) Increment(ctx context.Context, field string) (int64, error) {
	count, err := s.client.HIncrBy(ctx, s.key, field, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return count, nil
}

// Counts implements feedback.Store.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for field, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			observability.FromContext(ctx).Warn("skipping malformed counter",
				observability.String("field", field),
				observability.String("value", value))
			continue
		}
		counts[field] = count
	}

	return counts, nil
}
