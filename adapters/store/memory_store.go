package store

import (
	"context"
	"sync"
	"time"

	"github.com/grandigitals/superteam-academy/core"
)

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the NonceStore and
// RevocationStore interfaces, used by the ephemeral backend and in tests.
type MemoryStore struct {
	nonces            map[string]nonceEntry
	invalidatedTokens map[string]time.Time
	mu                sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:            make(map[string]nonceEntry),
		invalidatedTokens: make(map[string]time.Time),
	}
}

// Put stores a nonce for a wallet, replacing any outstanding one
func (s *MemoryStore) Put(ctx context.Context, wallet, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[wallet] = nonceEntry{nonce: nonce, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Consume atomically checks and deletes the wallet's nonce. A mismatch
// still burns the stored nonce so a guessed value cannot be retried
// against the real one.
func (s *MemoryStore) Consume(ctx context.Context, wallet, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.nonces[wallet]
	if !exists {
		return core.ErrInvalidChallenge
	}
	delete(s.nonces, wallet)

	if time.Now().After(entry.expiresAt) {
		return core.ErrChallengeExpired
	}
	if entry.nonce != nonce {
		return core.ErrInvalidChallenge
	}
	return nil
}

// Revoke marks a refresh token ID as invalidated
func (s *MemoryStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime := time.Now().Add(ttl)
	s.invalidatedTokens[tokenID] = expiryTime

	// Start a cleanup goroutine
	go func() {
		time.Sleep(ttl)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if the expiry time hasn't changed
		if storedExpiry, exists := s.invalidatedTokens[tokenID]; exists && !storedExpiry.After(expiryTime) {
			delete(s.invalidatedTokens, tokenID)
		}
	}()

	return nil
}

// IsRevoked checks if a refresh token ID has been invalidated
func (s *MemoryStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiryTime) {
		return false, nil
	}
	return true, nil
}
