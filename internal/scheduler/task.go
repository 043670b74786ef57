package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
)

// Task is one unit of background work for a tile. Run must check Canceled
// and produce nothing once it is set.
type Task interface {
	Key() quadtree.Key
	Run(ctx context.Context)
	Cancel()
	Canceled() bool
}

// Cancelable is embedded by tasks to get an idempotent, race free cancel
// flag.
type Cancelable struct {
	canceled atomic.Bool
}

func (c *Cancelable) Cancel() {
	c.canceled.Store(true)
}

func (c *Cancelable) Canceled() bool {
	return c.canceled.Load()
}
