package scheduler

import "sync"

// ResultQueue hands values from workers to the frame goroutine.
type ResultQueue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (r *ResultQueue[T]) Push(v T) {
	r.mu.Lock()
	r.items = append(r.items, v)
	r.mu.Unlock()
}

// Flush takes every queued value without waiting for more.
func (r *ResultQueue[T]) Flush() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return nil
	}
	out := r.items
	r.items = nil
	return out
}

func (r *ResultQueue[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
