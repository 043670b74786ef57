// Package scheduler runs tile generation tasks on background workers.
//
// Tasks for one key always land on the same worker, so results for a key
// arrive in submission order. With a single worker the whole scheduler is
// strictly FIFO.
package scheduler

import (
	"context"
	"errors"
	"hash/maphash"
	"sync"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

var ErrClosed = errors.New("scheduler closed")

type Scheduler struct {
	queues []*queue
	seed   maphash.Seed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	depth     atomic.Int64
	closeOnce sync.Once
	logger    logger.Logger
}

// New starts workers goroutines. Values below 1 mean one worker.
func New(workers int, l logger.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		queues: make([]*queue, workers),
		seed:   maphash.MakeSeed(),
		ctx:    ctx,
		cancel: cancel,
		logger: l,
	}
	for i := range s.queues {
		s.queues[i] = newQueue()
	}
	for i := range s.queues {
		s.wg.Add(1)
		go s.worker(i)
	}
	l.Info("scheduler started", "workers", workers)
	return s
}

func (s *Scheduler) Workers() int {
	return len(s.queues)
}

// Pending is the number of tasks waiting for a worker.
func (s *Scheduler) Pending() int {
	return int(s.depth.Load())
}

func (s *Scheduler) shard(key quadtree.Key) int {
	if len(s.queues) == 1 {
		return 0
	}
	return int(maphash.Comparable(s.seed, key) % uint64(len(s.queues)))
}

// Submit queues tasks in order. It never blocks on workers.
func (s *Scheduler) Submit(tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	if len(s.queues) == 1 {
		return s.push(0, tasks)
	}

	shards := make([][]Task, len(s.queues))
	for _, t := range tasks {
		i := s.shard(t.Key())
		shards[i] = append(shards[i], t)
	}
	for i, batch := range shards {
		if len(batch) == 0 {
			continue
		}
		if err := s.push(i, batch); err != nil {
			return err
		}
	}
	return nil
}

// push counts the batch before a worker can see it, so the depth never
// drops below zero.
func (s *Scheduler) push(shard int, batch []Task) error {
	n := int64(len(batch))
	s.addDepth(n)
	if !s.queues[shard].push(batch) {
		s.addDepth(-n)
		return ErrClosed
	}
	return nil
}

func (s *Scheduler) addDepth(n int64) {
	s.depth.Add(n)
	metrics.SchedulerQueueDepth.Add(float64(n))
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	q := s.queues[id]

	for {
		t, ok := q.pop()
		if !ok {
			return
		}
		s.addDepth(-1)
		if t.Canceled() {
			continue
		}
		t.Run(s.ctx)
	}
}

// Close cancels every task still queued, wakes the workers and waits for
// the running tasks to finish. It is safe to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		dropped := 0
		for _, q := range s.queues {
			for _, t := range q.close() {
				t.Cancel()
				dropped++
			}
		}
		s.addDepth(-int64(dropped))
		s.cancel()
		s.wg.Wait()
		s.logger.Info("scheduler stopped", "dropped", dropped)
	})
}
