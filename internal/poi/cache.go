package poi

import (
	"context"
	"sync"
	"time"
)

// Cache is the read-through store for raw Overpass results keyed by route
// fingerprint. Entries expire by TTL only; writes never invalidate.
type Cache interface {
	Get(ctx context.Context, key string) ([]RawElement, bool)
	Set(ctx context.Context, key string, elements []RawElement)
}

type memEntry struct {
	elements []RawElement
	expires  time.Time
}

// MemoryCache is a mutex-guarded TTL map, the default backend.
type MemoryCache struct {
	mu  sync.Mutex
	m   map[string]memEntry
	ttl time.Duration

	now func() time.Time // test hook
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{m: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]RawElement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.m, key)
		return nil, false
	}
	return e.elements, true
}

func (c *MemoryCache) Set(_ context.Context, key string, elements []RawElement) {
	c.mu.Lock()
	c.m[key] = memEntry{elements: elements, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
