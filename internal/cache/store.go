// Package cache provides the tiered key/value cache: a shared redis tier
// consulted first, degrading transparently to an in-process tier when redis
// is unreachable. Callers never observe which tier served a request.
package cache

import (
	"context"
	"time"
)

// Store is the contract every cache tier satisfies.
type Store interface {
	// Get returns the value for key. ok is false on a miss; an expired
	// entry behaves as a miss.
	Get(ctx context.Context, key string) (value string, ok bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
