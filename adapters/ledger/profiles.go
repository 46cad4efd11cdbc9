package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/grandigitals/superteam-academy/core"
)

// MemoryProfiles is an in-memory ProfileStore for the ephemeral backend.
type MemoryProfiles struct {
	mu       sync.RWMutex
	profiles map[string]core.UserProfile
}

// NewMemoryProfiles creates an empty in-memory profile store
func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{profiles: make(map[string]core.UserProfile)}
}

// Upsert creates the wallet's profile row if absent and returns it
func (p *MemoryProfiles) Upsert(ctx context.Context, wallet string) (*core.UserProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	profile, exists := p.profiles[wallet]
	if !exists {
		profile = core.UserProfile{Wallet: wallet, JoinedAt: time.Now()}
		p.profiles[wallet] = profile
	}
	return &profile, nil
}

// Get returns nil without error for unknown wallets
func (p *MemoryProfiles) Get(ctx context.Context, wallet string) (*core.UserProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	profile, exists := p.profiles[wallet]
	if !exists {
		return nil, nil
	}
	return &profile, nil
}
