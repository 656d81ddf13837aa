package cache

import (
	"sync"
	"time"
)

// MemoryCache is the in-process L1. Entries expire lazily on read; no
// goroutine sweeps the map.
type MemoryCache struct {
	store sync.Map
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	c.store.Store(key, &cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	})
	return nil
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	item, exists := c.store.Load(key)
	if !exists {
		return nil, false
	}

	entry := item.(*cacheItem)
	if time.Now().After(entry.expiration) {
		c.store.CompareAndDelete(key, item)
		return nil, false
	}

	return entry.value, true
}

func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

// Stats counts live entries and drops the expired ones it walks past.
func (c *MemoryCache) Stats() map[string]interface{} {
	now := time.Now()
	count := 0
	c.store.Range(func(key, value interface{}) bool {
		if now.After(value.(*cacheItem).expiration) {
			c.store.CompareAndDelete(key, value)
			return true
		}
		count++
		return true
	})

	return map[string]interface{}{
		"items": count,
		"type":  "memory",
	}
}

func (c *MemoryCache) Close() error {
	c.store.Clear()
	return nil
}
