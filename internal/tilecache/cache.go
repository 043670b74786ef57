// Package tilecache maps tile keys to buffer slots with least recently used
// replacement. The cache owns every slot it hands out: an evicted key's slot
// is returned to the buffer at once and the key is queued for the owning
// producer to drain.
package tilecache

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/terrain/internal/lru"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/slotpool"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

// Buffer is the slot storage behind a cache. tilebuffer.CPUBuffer and
// tilebuffer.GPUBuffer both satisfy it.
type Buffer interface {
	Acquire() (slotpool.Handle, bool)
	Release(h slotpool.Handle) bool
	HasFree() bool
	FreeCount() int
	LiveCount() int
	Capacity() int
}

type Cache struct {
	layer   string
	buffer  Buffer
	entries *lru.Map[quadtree.Key, slotpool.Handle]
	evicted []quadtree.Key
	logger  logger.Logger
}

// New creates a cache holding at most buffer.Capacity() tiles.
func New(layer string, buffer Buffer, l logger.Logger) *Cache {
	c := &Cache{
		layer:  layer,
		buffer: buffer,
		logger: l,
	}
	c.entries = lru.New(buffer.Capacity(), c.onEvict)
	return c
}

func (c *Cache) onEvict(key quadtree.Key, h slotpool.Handle) {
	if !c.buffer.Release(h) {
		panic(fmt.Sprintf("tilecache %s: evicted %v held stale %v", c.layer, key, h))
	}
	c.evicted = append(c.evicted, key)
	metrics.CacheEvictions.WithLabelValues(c.layer).Inc()
	c.logger.Debug("tile evicted", "layer", c.layer, "key", key.String())
}

func (c *Cache) Layer() string {
	return c.layer
}

// Get returns the slot for key. On a hit found is true and the entry becomes
// most recently used. On a miss a slot is acquired, forcing out the least
// recently used entry when the buffer is full, and found is false: the caller
// must fill the new slot.
func (c *Cache) Get(key quadtree.Key) (found bool, h slotpool.Handle) {
	if h, ok := c.entries.Get(key); ok {
		metrics.CacheHits.WithLabelValues(c.layer).Inc()
		return true, h
	}
	metrics.CacheMisses.WithLabelValues(c.layer).Inc()

	if !c.buffer.HasFree() {
		if !c.entries.ForceEvict() {
			panic(fmt.Sprintf("tilecache %s: buffer full but nothing to evict", c.layer))
		}
	}
	h, ok := c.buffer.Acquire()
	if !ok {
		panic(fmt.Sprintf("tilecache %s: no slot after eviction", c.layer))
	}
	c.entries.Put(key, h)
	return false, h
}

// Find returns the slot for key and marks it most recently used. It never
// allocates.
func (c *Cache) Find(key quadtree.Key) (slotpool.Handle, bool) {
	return c.entries.Get(key)
}

func (c *Cache) Contains(key quadtree.Key) bool {
	_, ok := c.entries.Peek(key)
	return ok
}

// Evict drops key explicitly. The key is queued like any other eviction.
func (c *Cache) Evict(key quadtree.Key) bool {
	return c.entries.Evict(key)
}

// DrainEvicted returns and forgets every key evicted since the last call,
// oldest first.
func (c *Cache) DrainEvicted() []quadtree.Key {
	if len(c.evicted) == 0 {
		return nil
	}
	out := c.evicted
	c.evicted = nil
	return out
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Capacity() int {
	return c.entries.Capacity()
}

// Range visits entries from most to least recently used without touching
// recency.
func (c *Cache) Range(fn func(key quadtree.Key, h slotpool.Handle) bool) {
	c.entries.Range(fn)
}

// Close evicts every entry. The evicted keys stay queued for DrainEvicted.
func (c *Cache) Close() {
	c.entries.Clear()
	c.logger.Debug("tile cache closed",
		"layer", c.layer,
		"free", c.buffer.FreeCount(),
		"live", c.buffer.LiveCount(),
	)
}
