package producer

import (
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/slotpool"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

// tileSet mirrors a tile cache with DataTiles. Evictions are drained right
// after every cache call that can evict, so a DataTile never outlives its
// entry.
type tileSet struct {
	layer      string
	resolution int
	cache      *tilecache.Cache
	tiles      map[quadtree.Key]*DataTile
	evictHooks []func(quadtree.Key)
	logger     logger.Logger
}

func newTileSet(layer string, resolution int, buffer tilecache.Buffer, l logger.Logger) tileSet {
	return tileSet{
		layer:      layer,
		resolution: resolution,
		cache:      tilecache.New(layer, buffer, l),
		tiles:      make(map[quadtree.Key]*DataTile, buffer.Capacity()),
		logger:     l,
	}
}

func (s *tileSet) Layer() string {
	return s.layer
}

// onEvict registers fn to run for every key this set loses.
func (s *tileSet) onEvict(fn func(quadtree.Key)) {
	s.evictHooks = append(s.evictHooks, fn)
}

// acquire returns a fresh slot for key. Finding key already cached means
// the caller lost track of it and is a bug.
func (s *tileSet) acquire(key quadtree.Key) slotpool.Handle {
	found, h := s.cache.Get(key)
	s.drain()
	if found {
		panic("producer " + s.layer + ": " + key.String() + " is already cached")
	}
	return h
}

func (s *tileSet) insert(tile *DataTile) {
	s.tiles[tile.Key] = tile
	metrics.TilesResident.WithLabelValues(s.layer).Set(float64(len(s.tiles)))
}

func (s *tileSet) drain() {
	evicted := s.cache.DrainEvicted()
	if len(evicted) == 0 {
		return
	}
	for _, key := range evicted {
		delete(s.tiles, key)
	}
	metrics.TilesResident.WithLabelValues(s.layer).Set(float64(len(s.tiles)))
	for _, key := range evicted {
		for _, fn := range s.evictHooks {
			fn(key)
		}
	}
}

// touch marks key recently used and reports whether it is cached.
func (s *tileSet) touch(key quadtree.Key) bool {
	_, ok := s.cache.Find(key)
	return ok
}

func (s *tileSet) exact(key quadtree.Key) (*DataTile, bool) {
	if !s.touch(key) {
		return nil, false
	}
	return s.tiles[key], true
}

func (s *tileSet) GetTile(node *quadtree.Node) (*DataTile, bool) {
	return s.exact(node.Key)
}

func (s *tileSet) FindTile(key quadtree.Key) (*DataTile, bool) {
	for {
		if t, ok := s.exact(key); ok {
			return t, true
		}
		parent, ok := key.Parent()
		if !ok {
			return nil, false
		}
		key = parent
	}
}

// Evict drops key, if cached, and runs the eviction hooks.
func (s *tileSet) Evict(key quadtree.Key) bool {
	ok := s.cache.Evict(key)
	s.drain()
	return ok
}

// Range visits every resident tile without touching recency.
func (s *tileSet) Range(fn func(tile *DataTile) bool) {
	s.cache.Range(func(key quadtree.Key, _ slotpool.Handle) bool {
		return fn(s.tiles[key])
	})
}

func (s *tileSet) Len() int {
	return len(s.tiles)
}

func (s *tileSet) closeCache() {
	s.cache.Close()
	s.drain()
	s.logger.Info("producer closed", "layer", s.layer)
}
