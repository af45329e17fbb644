package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix   = "refresh_token:"
	blacklistKeyPrefix = "blacklist:"
)

// Store is expiring key-value storage for the one-refresh-token-per-user
// rule and the access-token blacklist. It knows nothing about token
// semantics; every TTL is computed by the caller from the token's own
// exp claim. All operations are single-key and atomic on the server.
type Store interface {
	PutRefresh(ctx context.Context, identity, token string, ttl time.Duration) error
	GetRefresh(ctx context.Context, identity string) (string, error)
	DeleteRefresh(ctx context.Context, identity string) (bool, error)
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RedisStore{client: client, timeout: timeout}
}

func (s *RedisStore) PutRefresh(ctx context.Context, identity, token string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, refreshKeyPrefix+identity, token, ttl).Err(); err != nil {
		return fmt.Errorf("session: put refresh: %w", err)
	}
	return nil
}

func (s *RedisStore) GetRefresh(ctx context.Context, identity string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, refreshKeyPrefix+identity).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("session: get refresh: %w", err)
	}
	return val, nil
}

func (s *RedisStore) DeleteRefresh(ctx context.Context, identity string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Del(ctx, refreshKeyPrefix+identity).Result()
	if err != nil {
		return false, fmt.Errorf("session: delete refresh: %w", err)
	}
	return n > 0, nil
}

// Revoke is a no-op for ttl <= 0: a token that has already expired needs
// no blacklist entry. Entries carry the token's remaining lifetime so
// the blacklist never outlives the tokens in it.
func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, blacklistKeyPrefix+token, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("session: is revoked: %w", err)
	}
	return n > 0, nil
}
