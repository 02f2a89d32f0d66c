// Package cache keeps downloaded media blobs in memory.
package cache

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"xknowledge/internal/domain"
)

// MemoryCache is an in-memory media cache with TTL support.
type MemoryCache struct {
	blobs sync.Map
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// cacheEntry holds a cached blob with expiration metadata.
type cacheEntry struct {
	blob      domain.Blob
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache with the specified TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{ttl: ttl, now: time.Now, stop: make(chan struct{})}
	go c.cleanup(time.Minute)
	return c
}

// NormalizedKey returns the cache key for a media URL: scheme and host
// lowercased, fragment dropped. The query is kept because it selects the
// rendition (format=jpg&name=large).
func NormalizedKey(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}

// Get retrieves a blob from the cache.
// Returns the blob and true if found and not expired.
func (c *MemoryCache) Get(rawURL string) (domain.Blob, bool) {
	key := NormalizedKey(rawURL)
	value, ok := c.blobs.Load(key)
	if !ok {
		return domain.Blob{}, false
	}

	entry := value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.blobs.Delete(key)
		return domain.Blob{}, false
	}

	return entry.blob, true
}

// Set stores a blob with the configured TTL.
func (c *MemoryCache) Set(rawURL string, blob domain.Blob) {
	c.blobs.Store(NormalizedKey(rawURL), &cacheEntry{
		blob:      blob,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Len counts live entries.
func (c *MemoryCache) Len() int {
	n := 0
	now := c.now()
	c.blobs.Range(func(_, value any) bool {
		if !now.After(value.(*cacheEntry).expiresAt) {
			n++
		}
		return true
	})
	return n
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries from the cache.
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()
	c.blobs.Range(func(key, value any) bool {
		if now.After(value.(*cacheEntry).expiresAt) {
			c.blobs.Delete(key)
		}
		return true
	})
}
