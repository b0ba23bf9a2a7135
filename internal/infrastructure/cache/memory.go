package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pantrylens/backend/internal/domain"
)

const defaultCleanupInterval = 10 * time.Minute

// MemoryCache is a thread-safe in-memory TTL store
type MemoryCache struct {
	data  map[string]domain.CacheEntry
	mutex sync.RWMutex
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock replaces time.Now, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a new in-memory cache.
// A cleanupInterval <= 0 uses the default of 10 minutes.
func NewMemoryCache(cleanupInterval time.Duration, opts ...Option) *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]domain.CacheEntry),
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a value from the cache, evicting it if it has expired
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if entry.Expired(c.now()) {
		c.mutex.Lock()
		// re-check: a concurrent Set may have refreshed the key
		if current, ok := c.data[key]; ok && current.Expired(c.now()) {
			delete(c.data, key)
		}
		c.mutex.Unlock()
		return nil, domain.ErrCacheMiss
	}

	return entry.Data, nil
}

// Entry returns the full entry including its timestamps
func (c *MemoryCache) Entry(ctx context.Context, key string) (domain.CacheEntry, error) {
	if _, err := c.Get(ctx, key); err != nil {
		return domain.CacheEntry{}, err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	entry, ok := c.data[key]
	if !ok {
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	return entry, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = domain.CacheEntry{
		Data:      stored,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}

	return !item.Expired(c.now()), nil
}

// InvalidatePrefix removes every key starting with prefix and returns how many were removed
func (c *MemoryCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]domain.CacheEntry)
	return nil
}

// Size returns the current number of items in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *MemoryCache) purge() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.data {
		if item.Expired(now) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}
