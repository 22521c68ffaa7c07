package agriintel

import (
	"container/list"
	"net/url"
	"strings"
	"sync"
	"time"
)

// CacheEntry is a stored value with its write time and expiry.
type CacheEntry[V any] struct {
	Data        V
	Timestamp   time.Time
	ExpiresAt   time.Time
	AccessCount int64
}

// CacheStats summarises cache usage. HitRate is 0 before the first lookup.
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Cache is a bounded TTL cache with first-in-first-out eviction: when full,
// inserting a new key drops the oldest inserted key regardless of how recently
// it was read. It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = oldest insertion
	maxSize int
	hits    int64
	misses  int64
	now     func() time.Time
}

type cacheItem[V any] struct {
	key   string
	entry CacheEntry[V]
}

// NewCache creates a cache holding at most maxSize entries; maxSize <= 0 means unbounded.
func NewCache[V any](maxSize int) *Cache[V] {
	return &Cache[V]{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the value stored under key unless it is absent or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	entry, ok := c.Entry(key)
	return entry.Data, ok
}

// Entry is Get that also exposes the entry metadata.
func (c *Cache[V]) Entry(key string) (CacheEntry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, exists := c.items[key]
	if !exists {
		c.misses++
		return CacheEntry[V]{}, false
	}

	item := el.Value.(*cacheItem[V])
	if !c.now().Before(item.entry.ExpiresAt) {
		c.removeElement(el)
		c.misses++
		return CacheEntry[V]{}, false
	}

	item.entry.AccessCount++
	c.hits++
	return item.entry, true
}

// Set stores data under key for ttl. Overwriting a key keeps its insertion
// position; a new key evicts the oldest entry when the cache is full.
func (c *Cache[V]) Set(key string, data V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := CacheEntry[V]{Data: data, Timestamp: now, ExpiresAt: now.Add(ttl)}

	if el, exists := c.items[key]; exists {
		el.Value.(*cacheItem[V]).entry = entry
		return
	}

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	c.items[key] = c.order.PushBack(&cacheItem[V]{key: key, entry: entry})
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, exists := c.items[key]; exists {
		c.removeElement(el)
	}
}

// DeletePrefix removes every key starting with prefix and returns how many were dropped.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if strings.HasPrefix(el.Value.(*cacheItem[V]).key, prefix) {
			c.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Clear drops all entries. Hit and miss counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Size returns the number of stored entries, expired ones included until read.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    len(c.items),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

func (c *Cache[V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*cacheItem[V]).key)
}

// CacheKey derives the cache key for a request. Query parameters embedded in
// endpoint are merged with params and encoded sorted by key, so equal requests
// produce equal keys whatever order their parameters were given in.
func CacheKey(method, endpoint string, params url.Values) string {
	path, query := splitEndpoint(endpoint, params)
	key := strings.ToUpper(method) + ":" + path
	if encoded := query.Encode(); encoded != "" {
		key += "?" + encoded
	}
	return key
}

// rateLimitKey is method:path without any query string.
func rateLimitKey(method, endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	return strings.ToUpper(method) + ":" + path
}

func splitEndpoint(endpoint string, params url.Values) (string, url.Values) {
	path, rawQuery, _ := strings.Cut(endpoint, "?")
	merged := url.Values{}
	if rawQuery != "" {
		if parsed, err := url.ParseQuery(rawQuery); err == nil {
			for k, vs := range parsed {
				merged[k] = append(merged[k], vs...)
			}
		}
	}
	for k, vs := range params {
		merged[k] = append(merged[k], vs...)
	}
	return path, merged
}
