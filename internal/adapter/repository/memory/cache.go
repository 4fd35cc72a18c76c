package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/assetledger/internal/usecase"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-memory TTL cache used when Redis is not configured.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCache creates a new Cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheItem), now: time.Now}
}

// Get returns usecase.ErrCacheMiss for absent or expired keys.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, usecase.ErrCacheMiss
	}
	return item.value, nil
}

// Set stores value. A zero ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
