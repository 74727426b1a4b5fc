package jwt

import (
	"context"
	"sync"
	"time"
)

// Store records revoked tokens. Implementations exist for in-memory use
// and Redis; anything with TTL semantics works.
type Store interface {
	// Revoke marks a token as revoked for the given duration.
	Revoke(ctx context.Context, token string, expiration time.Duration) error

	// IsRevoked reports whether a token is currently revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore keeps revoked tokens in a map. Good for a single instance
// and for tests; multi-instance deployments need the Redis store so all
// replicas see the same revocations.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// NewMemoryStore creates an in-memory token store and starts its
// background sweeper.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		tokens:        make(map[string]time.Time),
		sweepInterval: 5 * time.Minute,
		stopSweep:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweep()

	return s
}

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.sweepInterval = d
	}
}

// Revoke marks a token as revoked until the expiration elapses.
func (s *MemoryStore) Revoke(ctx context.Context, token string, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = time.Now().Add(expiration)
	return nil
}

// IsRevoked reports whether a token is currently revoked. Entries whose
// window has elapsed count as not revoked even before the sweeper runs.
func (s *MemoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, exists := s.tokens[token]
	if !exists || time.Now().After(exp) {
		return false, nil
	}
	return true, nil
}

// Size returns the number of entries currently held, expired or not.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Close stops the background sweeper. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, exp := range s.tokens {
		if now.After(exp) {
			delete(s.tokens, token)
		}
	}
}

// NoopStore is a Store that never revokes anything. Use it when revocation
// is intentionally disabled.
type NoopStore struct{}

// NewNoopStore creates a no-op store.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Revoke does nothing.
func (s *NoopStore) Revoke(ctx context.Context, token string, expiration time.Duration) error {
	return nil
}

// IsRevoked always reports false.
func (s *NoopStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, nil
}

// Close does nothing.
func (s *NoopStore) Close() error {
	return nil
}
