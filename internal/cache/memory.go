package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/iasflat/internal/store"
)

// MemoryCatalog is an in-memory memo in front of a catalog. Only successful
// resolutions are cached; errors, including store.ErrNotFound, always reach
// the underlying catalog again.
type MemoryCatalog struct {
	next  Resolver
	cache *gocache.Cache
}

var _ store.Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog wraps next, keeping entries for ttl
func NewMemoryCatalog(next Resolver, ttl time.Duration) *MemoryCatalog {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCatalog{
		next:  next,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Resolve implements store.Catalog
func (c *MemoryCatalog) Resolve(ctx context.Context, name string) (store.Entry, error) {
	key := CacheKey(name)
	if val, found := c.cache.Get(key); found {
		return val.(store.Entry), nil
	}

	e, err := c.next.Resolve(ctx, name)
	if err != nil {
		return store.Entry{}, err
	}
	c.cache.SetDefault(key, e)
	return e, nil
}
