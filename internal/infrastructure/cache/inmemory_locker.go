package cache

import (
	"context"
	"sync"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
)

// lockEntry is a held lock with its expiry
type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryLocker implements payout.Locker using an in-memory map.
// This is suitable for single-instance deployments and testing
type InMemoryLocker struct {
	mu      sync.Mutex
	entries map[string]lockEntry
	nextID  uint64
	now     func() time.Time
}

// NewInMemoryLocker creates a new in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		entries: make(map[string]lockEntry),
		now:     time.Now,
	}
}

// Acquire takes the lock unless another holder's entry has not yet expired
func (l *InMemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, exists := l.entries[key]; exists && now.Before(e.expiresAt) {
		return nil, false, nil
	}

	l.nextID++
	token := l.nextID
	l.entries[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, exists := l.entries[key]; exists && e.token == token {
			delete(l.entries, key)
		}
	}
	return release, true, nil
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ensure InMemoryLocker implements payout.Locker
var _ payout.Locker = (*InMemoryLocker)(nil)
