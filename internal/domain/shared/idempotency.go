package shared

import (
	"context"
	"time"
)

// IdempotencyStore maps client-supplied idempotency keys to the identifier of
// the resource created by the first request carrying that key. A retried
// request after a dropped response finds the original result instead of
// creating a duplicate.
type IdempotencyStore interface {
	// Remember stores value under key with a TTL.
	// Returns (true, value) if the key was newly stored, or (false, existing)
	// if another request already claimed the key.
	Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error)

	// Lookup returns the value stored under key, if any.
	Lookup(ctx context.Context, key string) (string, bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for stored keys. After this duration the same
	// key may create a new resource again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
