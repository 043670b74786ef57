// Package slotpool is a fixed capacity pool of reusable slots addressed by
// generation-checked handles. A handle stops resolving the moment its slot is
// released, so stale references are detected instead of aliasing whatever the
// slot holds next.
//
// A Pool is owned by one goroutine and is not safe for concurrent use.
package slotpool

import (
	"fmt"
	"sync/atomic"
)

var nextPoolID atomic.Uint64

// Handle addresses one slot of one pool at one point of its life.
// The zero Handle never resolves.
type Handle struct {
	Owner      uint64
	Index      uint32
	Generation uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("slot(%d:%d@%d)", h.Owner, h.Index, h.Generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

type Pool[T any] struct {
	id    uint64
	slots []slot[T]
	free  []uint32
	reset func(*T)
}

// New creates a pool of capacity slots. init runs once per slot up front
// (allocate backing storage there); reset runs on every release. Either may
// be nil.
func New[T any](capacity int, init func(index int, v *T), reset func(*T)) *Pool[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("slotpool: capacity must be positive, got %d", capacity))
	}
	p := &Pool[T]{
		id:    nextPoolID.Add(1),
		slots: make([]slot[T], capacity),
		free:  make([]uint32, capacity),
		reset: reset,
	}
	for i := range p.slots {
		p.slots[i].generation = 1
		if init != nil {
			init(i, &p.slots[i].value)
		}
		// Hand out low indices first.
		p.free[i] = uint32(capacity - 1 - i)
	}
	return p
}

func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

func (p *Pool[T]) FreeCount() int {
	return len(p.free)
}

func (p *Pool[T]) LiveCount() int {
	return len(p.slots) - len(p.free)
}

func (p *Pool[T]) HasFree() bool {
	return len(p.free) > 0
}

// Acquire takes a free slot. It returns false when the pool is exhausted.
func (p *Pool[T]) Acquire() (Handle, bool) {
	n := len(p.free)
	if n == 0 {
		return Handle{}, false
	}
	idx := p.free[n-1]
	p.free = p.free[:n-1]

	s := &p.slots[idx]
	s.live = true
	return Handle{Owner: p.id, Index: idx, Generation: s.generation}, true
}

// Release returns the slot addressed by h to the pool and invalidates every
// copy of h. Stale, foreign or zero handles are rejected.
func (p *Pool[T]) Release(h Handle) bool {
	s, ok := p.slot(h)
	if !ok {
		return false
	}
	if p.reset != nil {
		p.reset(&s.value)
	}
	s.live = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	p.free = append(p.free, h.Index)
	return true
}

// Get resolves h to its slot value.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	s, ok := p.slot(h)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Valid reports whether h still addresses a live slot of this pool.
func (p *Pool[T]) Valid(h Handle) bool {
	_, ok := p.slot(h)
	return ok
}

func (p *Pool[T]) slot(h Handle) (*slot[T], bool) {
	if h.Owner != p.id || int(h.Index) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil, false
	}
	return s, true
}
