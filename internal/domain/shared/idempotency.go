package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a handled event id is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which event ids a handler has already seen, so a
// redelivered DocumentReadyForPickup does not notify the client twice.
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether it was new
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls deduplication in the event handler wrapper
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables deduplication with DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultIdempotencyTTL, Enabled: true}
}
