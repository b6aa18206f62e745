package pick

import (
	"container/list"
	"sync"
)

// cache is a small LRU of Rank results keyed by pattern. Entries are deep
// copied on both put and get so callers may mutate what they receive.
// Safe for concurrent use.
type cache struct {
	mu      sync.RWMutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

// cacheEntry holds one cached ranking.
type cacheEntry struct {
	pattern string
	results []Ranked
}

func newCache(maxSize int) *cache {
	return &cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// get retrieves the cached ranking for a pattern.
func (c *cache) get(pattern string) ([]Ranked, bool) {
	// Read lock first: misses are the common case.
	c.mu.RLock()
	_, ok := c.items[pattern]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	// Hit: take the write lock to update LRU order.
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check in case the entry was evicted between locks.
	elem, ok := c.items[pattern]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)

	entry := elem.Value.(*cacheEntry)
	return copyRanked(entry.results), true
}

// put stores the ranking for a pattern, evicting the least recently used
// entry at capacity.
func (c *cache) put(pattern string, results []Ranked) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[pattern]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).results = copyRanked(results)
		return
	}

	if c.lru.Len() >= c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).pattern)
		}
	}

	elem := c.lru.PushFront(&cacheEntry{pattern: pattern, results: copyRanked(results)})
	c.items[pattern] = elem
}

// clear removes all entries.
func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

// len reports the number of cached patterns.
func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// copyRanked deep-copies a ranking, offsets included.
func copyRanked(rs []Ranked) []Ranked {
	out := make([]Ranked, len(rs))
	for i, r := range rs {
		out[i] = Ranked{Index: r.Index, Score: r.Score}
		if r.Offsets != nil {
			out[i].Offsets = make([]int, len(r.Offsets))
			copy(out[i].Offsets, r.Offsets)
		}
	}
	return out
}
