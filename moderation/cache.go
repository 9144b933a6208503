package moderation

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"streamchat/domain"
)

// verdictCache memoizes screenings by normalized-content hash so
// duplicate or retried content skips reclassification. Entries live for
// a bounded TTL and the cache is size-bounded with oldest-entry
// eviction.
type verdictCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = oldest
	ttl     time.Duration
	max     int
	now     func() time.Time
}

type cacheEntry struct {
	key      string
	verdict  domain.Screening
	storedAt time.Time
}

func newVerdictCache(ttl time.Duration, max int) *verdictCache {
	return &verdictCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		max:     max,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *verdictCache) get(key string) (domain.Screening, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return domain.Screening{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return domain.Screening{}, false
	}
	return entry.verdict, true
}

func (c *verdictCache) put(key string, v domain.Screening) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.verdict = v
		entry.storedAt = c.now()
		c.order.MoveToBack(el)
		return
	}
	for c.order.Len() >= c.max {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, verdict: v, storedAt: c.now()})
}

// contentHash is a stable key over whitespace-collapsed, lowercased
// text, so trivially restyled duplicates share a cache entry.
func contentHash(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
