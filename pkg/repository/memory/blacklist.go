package memory

import (
	"context"
	"sync"
	"time"
)

// Blacklist is an in-process revoked-token set used when Redis is not
// configured. Entries are dropped lazily once their TTL elapses; a
// restart clears the set, which is acceptable for development setups.
type Blacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{entries: make(map[string]time.Time)}
}

func (b *Blacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (b *Blacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	deadline, ok := b.entries[jti]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		b.mu.Lock()
		delete(b.entries, jti)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}
