package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/clinsop/pkg/component/redis"
)

// RedisStore implements Store on Redis so every service replica sees the
// same revocation list.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed token store. An empty prefix
// defaults to "jwt:revoked:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "jwt:revoked:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Revoke writes the token with a TTL matching its remaining refresh window.
func (s *RedisStore) Revoke(ctx context.Context, token string, expiration time.Duration) error {
	return s.client.Client().Set(ctx, s.prefix+token, "revoked", expiration).Err()
}

// IsRevoked reports whether the token exists in the revocation list.
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := s.client.Client().Exists(ctx, s.prefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return count > 0, nil
}

// Close is a no-op, the Redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
