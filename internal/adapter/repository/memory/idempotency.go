package memory

import (
	"context"
	"time"
)

const processingMarker = "processing"

// IdempotencyStore keeps idempotent HTTP responses in a Cache when Redis is
// not configured.
type IdempotencyStore struct {
	cache *Cache
}

// NewIdempotencyStore creates a new IdempotencyStore backed by cache.
func NewIdempotencyStore(cache *Cache) *IdempotencyStore {
	return &IdempotencyStore{cache: cache}
}

// CheckAndSet claims key, storing response or a processing marker. When the
// key is already held it returns true and the stored value.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok && (item.expiresAt.IsZero() || !c.now().After(item.expiresAt)) {
		return true, item.value, nil
	}

	value := response
	if value == nil {
		value = []byte(processingMarker)
	}
	item := cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, key, response, ttl)
}

// Release frees key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
