package auth

import (
	"context"
	"sync"
	"time"
)

type (
	// Cache is the TTL cache capability used for validation results. Both
	// operations are allowed to fail; the validator treats a read error as a
	// miss and swallows write errors.
	Cache interface {
		Get(ctx context.Context, key string) (string, bool, error)
		Set(ctx context.Context, key string, value string, ttl time.Duration) error
	}

	cacheItem struct {
		value     string
		expiresAt time.Time
	}

	// InMemoryCache is the default in-process TTL cache. A janitor goroutine
	// sweeps expired entries; reads also check expiry so the sweep cadence
	// never affects correctness.
	InMemoryCache struct {
		mu    sync.RWMutex
		items map[string]cacheItem
		done  chan struct{}
		once  sync.Once
	}
)

var (
	_ Cache = (*InMemoryCache)(nil)
)

func NewInMemoryCache(cleanupInterval time.Duration) *InMemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &InMemoryCache{
		items: make(map[string]cacheItem),
		done:  make(chan struct{}),
	}
	go c.janitor(cleanupInterval)
	return c
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return "", false, nil
	}
	return item.value, true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.items[key] = cacheItem{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *InMemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
