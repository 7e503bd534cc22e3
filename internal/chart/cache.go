package chart

import (
	"sync"
	"time"
)

const cacheTTL = 60 * time.Second

type cacheEntry struct {
	createdAt time.Time
	image     []byte
}

// imageCache keeps rendered PNGs for a short time so repeated requests with
// identical parameters skip rendering.
type imageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newImageCache(ttl time.Duration) *imageCache {
	return &imageCache{ttl: ttl, now: time.Now, entries: map[string]cacheEntry{}}
}

func (c *imageCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

func (c *imageCache) set(key string, img []byte) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{createdAt: c.now(), image: img}
	c.mu.Unlock()
}
