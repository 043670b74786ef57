// Package lru implements a capacity bounded map that evicts the least
// recently used entry and reports every eviction to a callback.
//
// Map is not safe for concurrent use.
package lru

import "fmt"

// EvictFunc is called exactly once for every entry that leaves the map
// through eviction or Clear. It must not call back into the same Map.
type EvictFunc[K comparable, V any] func(key K, value V)

type Map[K comparable, V any] struct {
	capacity int
	index    map[K]*entry[K, V]
	recency  list[K, V]
	onEvict  EvictFunc[K, V]
}

func New[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) *Map[K, V] {
	if capacity <= 0 {
		panic(fmt.Sprintf("lru: capacity must be positive, got %d", capacity))
	}
	return &Map[K, V]{
		capacity: capacity,
		index:    make(map[K]*entry[K, V], capacity),
		onEvict:  onEvict,
	}
}

func (m *Map[K, V]) Len() int {
	return m.recency.len
}

func (m *Map[K, V]) Capacity() int {
	return m.capacity
}

// Get returns the value for key and marks it most recently used.
func (m *Map[K, V]) Get(key K) (V, bool) {
	e, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	m.recency.moveToFront(e)
	return e.value, true
}

// Peek returns the value for key without touching recency.
func (m *Map[K, V]) Peek(key K) (V, bool) {
	e, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put inserts or replaces key and marks it most recently used. When the map
// grows past its capacity the least recently used entry is evicted.
// Replacing a value does not count as an eviction.
func (m *Map[K, V]) Put(key K, value V) {
	if e, ok := m.index[key]; ok {
		e.value = value
		m.recency.moveToFront(e)
		return
	}
	e := &entry[K, V]{key: key, value: value}
	m.index[key] = e
	m.recency.pushFront(e)
	m.TryEvict()
}

// TryEvict evicts the least recently used entry if the map is over capacity.
func (m *Map[K, V]) TryEvict() bool {
	if m.recency.len <= m.capacity {
		return false
	}
	return m.ForceEvict()
}

// ForceEvict evicts the least recently used entry regardless of size.
// It reports false when the map is empty.
func (m *Map[K, V]) ForceEvict() bool {
	e := m.recency.tail
	if e == nil {
		return false
	}
	m.remove(e)
	return true
}

// Evict removes key, reporting it to the eviction callback.
func (m *Map[K, V]) Evict(key K) bool {
	e, ok := m.index[key]
	if !ok {
		return false
	}
	m.remove(e)
	return true
}

// Range visits entries from most to least recently used without touching
// recency. Returning false stops the walk.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for e := m.recency.head; e != nil; e = e.next {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Clear evicts every entry, least recently used first.
func (m *Map[K, V]) Clear() {
	for m.ForceEvict() {
	}
}

func (m *Map[K, V]) remove(e *entry[K, V]) {
	m.recency.unlink(e)
	delete(m.index, e.key)
	if m.onEvict != nil {
		m.onEvict(e.key, e.value)
	}
}
