package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = fmt.Errorf("cache miss")

// Cache is the shared cache interface. It backs the attendance-rule lookup
// cache and the login rate-limit counters.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Increment adds one to the counter at key and returns the new value.
	// The ttl applies from the counter's first increment.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Close() error
}

// RuleKey is the cache key for an organization's active attendance rule.
func RuleKey(orgID uuid.UUID) string {
	return "attendance:rule:" + orgID.String()
}

// RateLimitKey is the cache key for one rate-limit window. scope identifies
// the limited operation (e.g. "login"), subject the client (IP or account).
func RateLimitKey(scope, subject string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, subject, window)
}
