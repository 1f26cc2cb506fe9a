package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a cached value with its wall-clock expiry
type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore provides the local in-process cache tier. Every read validates
// expiry, so correctness does not depend on the background sweep; the sweep
// only keeps the map from growing without bound.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a new in-process store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		stopCh:  make(chan struct{}),
	}

	go s.sweep()

	return s
}

// Get retrieves a value; expired entries behave as a miss
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return "", false
	}

	if !time.Now().Before(e.expiresAt) {
		return "", false
	}

	return e.value, true
}

// Set stores a value with its expiry computed at write time
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

// sweep periodically removes expired entries
func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for key, e := range s.entries {
				if !now.Before(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the sweep goroutine
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// Len returns the number of entries currently held, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
