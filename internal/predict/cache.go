package predict

import (
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
)

type cacheEntry struct {
	pred      domain.Prediction
	expiresAt time.Time
}

// Cache holds recent predictions keyed by their feature row. Expired entries
// are never returned; Sweep reclaims their memory.
type Cache struct {
	mu      sync.Mutex
	entries map[domain.Features]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[domain.Features]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(f domain.Features) domain.Features {
	f.Symbol = strings.ToUpper(strings.TrimSpace(f.Symbol))
	return f
}

func (c *Cache) Get(f domain.Features) (domain.Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(f)]
	if !ok || !c.now().Before(e.expiresAt) {
		return domain.Prediction{}, false
	}
	return e.pred, true
}

func (c *Cache) Put(f domain.Features, p domain.Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(f)] = cacheEntry{pred: p, expiresAt: c.now().Add(c.ttl)}
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
