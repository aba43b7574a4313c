// Package cache implements the bounded, generation-counted permission
// decision cache (C3, §4.3). A cached decision is valid only as long as the
// entity graph's mutation generation matches the generation recorded when
// the decision was computed; because the graph bumps its generation before
// a mutation becomes visible (I5), a reader can never observe a decision
// computed against now-stale data without the cache itself detecting it.
package cache

import (
	"container/list"
	"sync"

	"acs/internal/domain"
	"acs/internal/eval"
)

// Key identifies a cached decision.
type Key struct {
	EntityID domain.EntityID
	URI      string
	Verb     domain.Verb
	Scheme   string
}

type entry struct {
	key        Key
	decision   eval.Decision
	generation uint64
	elem       *list.Element
}

// Stats reports cumulative cache activity, exposed by health/metrics (C8).
type Stats struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a bounded LRU keyed by (entity, uri, verb, scheme). It holds no
// reference to the graph; callers pass the graph's current generation on
// every Get/Put so the cache never needs to poll for staleness itself.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[Key]*entry
	order   *list.List // front = most recently used
	stats   Stats
}

// New returns an empty Cache holding up to maxSize decisions.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[Key]*entry),
		order:   list.New(),
	}
}

// Get returns the cached decision for key if present and still valid for
// currentGeneration. A generation mismatch counts as a miss and evicts the
// stale entry.
func (c *Cache) Get(key Key, currentGeneration uint64) (eval.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Lookups++
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return eval.Decision{}, false
	}
	if e.generation != currentGeneration {
		c.removeLocked(e)
		c.stats.Misses++
		c.stats.Evictions++
		return eval.Decision{}, false
	}
	c.order.MoveToFront(e.elem)
	c.stats.Hits++
	return e.decision, true
}

// Put records decision for key, stamped with the graph generation at which
// it was computed. If the cache is full, the least recently used entry is
// evicted.
func (c *Cache) Put(key Key, decision eval.Decision, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.decision = decision
		existing.generation = generation
		c.order.MoveToFront(existing.elem)
		return
	}

	e := &entry{key: key, decision: decision, generation: generation}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e

	if len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.removeLocked(oldest.Value.(*entry))
			c.stats.Evictions++
		}
	}
}

// Invalidate drops every cached decision for entityID, used when a
// permission or relation touching that entity changes directly rather than
// relying on the next generation mismatch to clean it up lazily.
func (c *Cache) Invalidate(entityID domain.EntityID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if key.EntityID == entityID {
			c.removeLocked(e)
		}
	}
}

// Clear drops every cached decision, used on a full graph reload.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.order.Init()
}

// Stats returns a snapshot of cumulative cache activity.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.order.Remove(e.elem)
}
