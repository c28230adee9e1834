// Package dedup remembers provider delivery identifiers so re-delivered
// callbacks become no-op successes instead of duplicate replies.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mailroom:processed:"

// RedisStore is a short-lived processed-message-id set backed by Redis.
// Entries expire after the configured TTL; the window only needs to outlast
// the provider's retry schedule.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Seen reports whether the delivery id was already processed.
func (s *RedisStore) Seen(ctx context.Context, messageID string) (bool, error) {
	count, err := s.client.Exists(ctx, keyPrefix+messageID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Mark records the delivery id with the store's TTL.
func (s *RedisStore) Mark(ctx context.Context, messageID string) error {
	return s.client.Set(ctx, keyPrefix+messageID, 1, s.ttl).Err()
}
