package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grandigitals/superteam-academy/core"
)

// RedisStore is a Redis implementation of the NonceStore and
// RevocationStore interfaces. Single-use nonce semantics rely on
// GETDEL, so check-and-delete is one round trip with no race window.
type RedisStore struct {
	client      *redis.Client
	noncePrefix string
	tokenPrefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:      client,
		noncePrefix: "academy:nonce:",
		tokenPrefix: "academy:invalidated:",
	}
}

// Put stores a nonce for a wallet with its TTL, replacing any outstanding one
func (s *RedisStore) Put(ctx context.Context, wallet, nonce string, ttl time.Duration) error {
	key := s.noncePrefix + wallet
	if err := s.client.Set(ctx, key, nonce, ttl).Err(); err != nil {
		return fmt.Errorf("%w: store nonce: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Consume atomically fetches and deletes the wallet's nonce via GETDEL.
// Expiry is enforced by the key TTL set in Put.
func (s *RedisStore) Consume(ctx context.Context, wallet, nonce string) error {
	key := s.noncePrefix + wallet

	stored, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrInvalidChallenge
		}
		return fmt.Errorf("%w: consume nonce: %v", core.ErrStoreUnavailable, err)
	}
	if stored != nonce {
		return core.ErrInvalidChallenge
	}
	return nil
}

// Revoke marks a refresh token ID as invalidated in Redis
func (s *RedisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	key := s.tokenPrefix + tokenID
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke token: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked checks if a refresh token ID has been invalidated in Redis
func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := s.tokenPrefix + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check token revocation: %v", core.ErrStoreUnavailable, err)
	}
	return val > 0, nil
}
