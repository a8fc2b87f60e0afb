package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxEntries = 1024

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a size-bounded LRU with a per-entry TTL.
type MemoryCache struct {
	items      *lru.Cache[string, entry]
	now        func() time.Time
	maxEntries int
}

type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithMaxEntries bounds the cache; the least recently used entry goes first.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) { c.maxEntries = n }
}

func NewMemory(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		now:        time.Now,
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		c.maxEntries = defaultMaxEntries
	}
	// lru.New only fails on a non-positive size.
	c.items, _ = lru.New[string, entry](c.maxEntries)
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := c.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.items.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.items.Add(key, entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}
