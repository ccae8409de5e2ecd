// Package cache memoizes catalog lookups across the documents of one batch.
package cache

import (
	"context"

	"github.com/ppiankov/iasflat/internal/store"
)

// latestRef is the key under which the "most recent entry" resolution is cached
const latestRef = "<latest>"

// CacheKey generates a cache key from a catalog reference
func CacheKey(ref string) string {
	if ref == "" {
		ref = latestRef
	}
	return "iasflat:v1:catalog:" + ref
}

// Resolver is what the cache wraps
type Resolver interface {
	Resolve(ctx context.Context, name string) (store.Entry, error)
}
