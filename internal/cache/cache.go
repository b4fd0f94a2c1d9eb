// Package cache holds read-through caches for hot, rarely written data such as the
// product listing. Writers invalidate keys explicitly after a successful commit.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values. Get reports ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
