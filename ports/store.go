package ports

import (
	"context"
	"time"
)

// NonceStore keeps short-lived single-use sign-in nonces keyed by wallet.
type NonceStore interface {
	// Put stores a nonce for a wallet, replacing any outstanding one.
	Put(ctx context.Context, wallet, nonce string, ttl time.Duration) error

	// Consume atomically checks and deletes the wallet's nonce.
	// It fails when the stored nonce is absent, expired, or different;
	// a consumed nonce can never satisfy a second call.
	Consume(ctx context.Context, wallet, nonce string) error
}

// RevocationStore tracks invalidated refresh token IDs.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
