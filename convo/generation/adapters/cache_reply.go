package adapters

import (
	"container/list"
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
)

// ReplyCache memoizes encoded replies by prompt key. The least recently used entry is
// dropped once the cache holds more than its limit. A ttlSeconds of zero or less
// keeps an entry until it is evicted.
type ReplyCache struct {
	mu      sync.Mutex
	limit   int
	order   *list.List // front is most recently used
	entries map[string]*list.Element
	now     func() time.Time

	hits, misses, evictions uint64
}

type replyEntry struct {
	key     string
	payload []byte
	expires time.Time // zero never expires
}

// CacheStats is a point-in-time view of a ReplyCache.
type CacheStats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

func NewReplyCache(limit int) *ReplyCache {
	if limit < 1 {
		limit = 1
	}
	return &ReplyCache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element, limit),
		now:     time.Now,
	}
}

func (c *ReplyCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*replyEntry)
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.drop(el)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return e.payload, true
}

func (c *ReplyCache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttlSeconds > 0 {
		expires = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*replyEntry)
		e.payload, e.expires = value, expires
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.order.PushFront(&replyEntry{key: key, payload: value, expires: expires})
	for c.order.Len() > c.limit {
		c.drop(c.order.Back())
		c.evictions++
	}
	return nil
}

func (c *ReplyCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.drop(el)
	}
	return nil
}

// Stats reports entry count and hit, miss and eviction totals.
func (c *ReplyCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *ReplyCache) drop(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*replyEntry).key)
}

var _ ports.Cache = (*ReplyCache)(nil)
