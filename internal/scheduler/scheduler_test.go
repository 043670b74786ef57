package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

type recordTask struct {
	Cancelable
	key  quadtree.Key
	out  *ResultQueue[quadtree.Key]
	gate <-chan struct{}
}

func (t *recordTask) Key() quadtree.Key { return t.key }

func (t *recordTask) Run(ctx context.Context) {
	if t.gate != nil {
		<-t.gate
	}
	if t.Canceled() {
		return
	}
	t.out.Push(t.key)
}

func newTestScheduler(t *testing.T, workers int) *Scheduler {
	t.Helper()
	s := New(workers, logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSingleWorkerIsFIFO(t *testing.T) {
	s := newTestScheduler(t, 1)
	out := &ResultQueue[quadtree.Key]{}

	var tasks []Task
	for i := uint32(0); i < 50; i++ {
		tasks = append(tasks, &recordTask{key: quadtree.Key{X: i}, out: out})
	}
	if err := s.Submit(tasks...); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var got []quadtree.Key
	waitFor(t, func() bool {
		got = append(got, out.Flush()...)
		return len(got) == 50
	})
	for i, k := range got {
		if k.X != uint32(i) {
			t.Fatalf("result %d is %v", i, k)
		}
	}
}

type seqTask struct {
	Cancelable
	key quadtree.Key
	seq int
	out *ResultQueue[[2]int]
}

func (t *seqTask) Key() quadtree.Key { return t.key }

func (t *seqTask) Run(ctx context.Context) {
	t.out.Push([2]int{int(t.key.X), t.seq})
}

func TestShardedKeepsPerKeyOrder(t *testing.T) {
	s := newTestScheduler(t, 4)
	out := &ResultQueue[[2]int]{}

	var tasks []Task
	for seq := 0; seq < 20; seq++ {
		for x := uint32(0); x < 8; x++ {
			tasks = append(tasks, &seqTask{key: quadtree.Key{X: x, LOD: 5}, seq: seq, out: out})
		}
	}
	_ = s.Submit(tasks...)

	var got [][2]int
	waitFor(t, func() bool {
		got = append(got, out.Flush()...)
		return len(got) == len(tasks)
	})

	last := map[int]int{}
	for _, r := range got {
		prev, seen := last[r[0]]
		if seen && r[1] <= prev {
			t.Fatalf("key x=%d seq %d after seq %d", r[0], r[1], prev)
		}
		last[r[0]] = r[1]
	}
}

func TestShardIsDeterministic(t *testing.T) {
	s := newTestScheduler(t, 8)
	k := quadtree.Key{TreeID: 1, X: 2, Y: 3, LOD: 4}
	first := s.shard(k)
	for i := 0; i < 10; i++ {
		if s.shard(k) != first {
			t.Fatal("shard changed between calls")
		}
	}
	if first < 0 || first >= s.Workers() {
		t.Fatalf("shard %d out of range", first)
	}
}

func TestCanceledTaskProducesNothing(t *testing.T) {
	s := newTestScheduler(t, 1)
	out := &ResultQueue[quadtree.Key]{}
	gate := make(chan struct{})

	blocker := &recordTask{key: quadtree.Key{X: 1}, out: out, gate: gate}
	victim := &recordTask{key: quadtree.Key{X: 2}, out: out}
	_ = s.Submit(blocker, victim)

	victim.Cancel()
	victim.Cancel()
	close(gate)

	waitFor(t, func() bool { return s.Pending() == 0 && out.Len() >= 1 })
	s.Close()

	got := out.Flush()
	if len(got) != 1 || got[0].X != 1 {
		t.Fatalf("results = %v, want only the blocker", got)
	}
}

func TestCloseCancelsQueuedAndRejectsSubmit(t *testing.T) {
	s := New(1, logger.NewNop())
	out := &ResultQueue[quadtree.Key]{}
	gate := make(chan struct{})

	blocker := &recordTask{key: quadtree.Key{X: 1}, out: out, gate: gate}
	queued := &recordTask{key: quadtree.Key{X: 2}, out: out}
	_ = s.Submit(blocker, queued)
	waitFor(t, func() bool { return s.Pending() == 1 })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Close()
	}()
	waitFor(t, queued.Canceled)
	close(gate)
	wg.Wait()

	if err := s.Submit(&recordTask{out: out}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit after Close = %v, want ErrClosed", err)
	}
	s.Close()

	for _, k := range out.Flush() {
		if k.X == 2 {
			t.Fatal("queued task ran after Close")
		}
	}
}

// depthTask records the smallest queue depth seen while tasks run.
type depthTask struct {
	Cancelable
	key    quadtree.Key
	s      *Scheduler
	lowest *atomic.Int64
	done   *sync.WaitGroup
}

func (t *depthTask) Key() quadtree.Key { return t.key }

func (t *depthTask) Run(ctx context.Context) {
	defer t.done.Done()
	for {
		cur, d := t.lowest.Load(), int64(t.s.Pending())
		if d >= cur || t.lowest.CompareAndSwap(cur, d) {
			return
		}
	}
}

func TestQueueDepthNeverNegative(t *testing.T) {
	before := testutil.ToFloat64(metrics.SchedulerQueueDepth)
	s := New(4, logger.NewNop())

	var lowest atomic.Int64
	var done sync.WaitGroup
	for round := 0; round < 200; round++ {
		batch := make([]Task, 16)
		done.Add(len(batch))
		for i := range batch {
			batch[i] = &depthTask{key: quadtree.Key{X: uint32(i)}, s: s, lowest: &lowest, done: &done}
		}
		if err := s.Submit(batch...); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	done.Wait()
	s.Close()

	if lowest.Load() < 0 {
		t.Fatalf("queue depth dropped to %d", lowest.Load())
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d after drain", s.Pending())
	}
	if got := testutil.ToFloat64(metrics.SchedulerQueueDepth); got != before {
		t.Fatalf("depth gauge = %v, want %v", got, before)
	}
}

func TestSubmitAfterCloseLeavesDepthUnchanged(t *testing.T) {
	before := testutil.ToFloat64(metrics.SchedulerQueueDepth)
	s := New(2, logger.NewNop())
	s.Close()

	tasks := []Task{&recordTask{key: quadtree.Key{X: 1}}, &recordTask{key: quadtree.Key{X: 2}}}
	if err := s.Submit(tasks...); !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit = %v, want ErrClosed", err)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
	if got := testutil.ToFloat64(metrics.SchedulerQueueDepth); got != before {
		t.Fatalf("depth gauge = %v, want %v", got, before)
	}
}

func TestResultQueueFlushIsNonBlocking(t *testing.T) {
	var q ResultQueue[int]
	if q.Flush() != nil {
		t.Fatal("empty flush returned values")
	}
	q.Push(1)
	q.Push(2)
	if got := q.Flush(); len(got) != 2 || got[0] != 1 {
		t.Fatalf("Flush = %v", got)
	}
	if q.Len() != 0 {
		t.Fatal("Flush left values behind")
	}
}
