package producer

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

// cpuProducer is the part shared by the producers that generate tiles on
// background workers.
type cpuProducer struct {
	tileSet

	buffer  *tilebuffer.CPUBuffer
	sched   Submitter
	results generate.Results
	pending map[quadtree.Key]scheduler.Task
}

func newCPUProducer(layer string, channels int, opts Options, sched Submitter) cpuProducer {
	buffer := tilebuffer.NewCPU(opts.Resolution, opts.Resolution, channels, opts.Capacity)
	return cpuProducer{
		tileSet: newTileSet(layer, opts.Resolution, buffer, opts.logger()),
		buffer:  buffer,
		sched:   sched,
		pending: make(map[quadtree.Key]scheduler.Task),
	}
}

// update runs one frame. build returns the task for a missing node, or nil
// when the node has to wait.
func (p *cpuProducer) update(nodes []*quadtree.Node, leaving, entering []quadtree.Key, build func(*quadtree.Node) scheduler.Task) {
	p.applyResults()

	for _, key := range leaving {
		p.Cancel(key)
	}

	var batch []scheduler.Task
	for _, node := range nodes {
		if p.touch(node.Key) {
			continue
		}
		if _, ok := p.pending[node.Key]; ok {
			continue
		}
		task := build(node)
		if task == nil {
			continue
		}
		p.pending[node.Key] = task
		batch = append(batch, task)
	}

	if len(batch) == 0 {
		return
	}
	if err := p.sched.Submit(batch...); err != nil {
		p.logger.Error("failed to submit tasks", "layer", p.layer, "count", len(batch), "error", err)
		for _, task := range batch {
			task.Cancel()
			delete(p.pending, task.Key())
		}
		return
	}
	metrics.TasksEnqueued.WithLabelValues(p.layer).Add(float64(len(batch)))
	p.logger.Debug("tasks submitted", "layer", p.layer, "count", len(batch), "entering", len(entering))
}

func (p *cpuProducer) applyResults() {
	for _, r := range p.results.Flush() {
		task, ok := p.pending[r.Key]
		if !ok || task != r.Task {
			metrics.StaleResults.WithLabelValues(p.layer).Inc()
			p.logger.Debug("stale result discarded", "layer", p.layer, "key", r.Key.String())
			continue
		}
		delete(p.pending, r.Key)

		h := p.acquire(r.Key)
		if err := p.buffer.Write(h, r.Data); err != nil {
			panic(fmt.Sprintf("producer %s: %v", p.layer, err))
		}
		p.insert(&DataTile{
			Key:        r.Key,
			Layer:      p.layer,
			Resolution: p.resolution,
			Slot:       h,
		})
	}
}

// Cancel drops the pending task for key. It is a no-op when nothing is
// pending.
func (p *cpuProducer) Cancel(key quadtree.Key) {
	task, ok := p.pending[key]
	if !ok {
		return
	}
	task.Cancel()
	delete(p.pending, key)
	metrics.TasksCanceled.WithLabelValues(p.layer).Inc()
}

func (p *cpuProducer) CancelAll() {
	for key := range p.pending {
		p.Cancel(key)
	}
}

// Pending reports whether a task for key is in flight.
func (p *cpuProducer) Pending(key quadtree.Key) bool {
	_, ok := p.pending[key]
	return ok
}

// Data returns the samples of a resident tile.
func (p *cpuProducer) Data(tile *DataTile) ([]float32, bool) {
	return p.buffer.Data(tile.Slot)
}

func (p *cpuProducer) Channels() int {
	return p.buffer.Channels()
}

func (p *cpuProducer) Close() {
	p.CancelAll()
	p.closeCache()
}

func (p *cpuProducer) Stats() Stats {
	return Stats{
		Layer:    p.layer,
		Resident: len(p.tiles),
		Pending:  len(p.pending),
		Capacity: p.buffer.Capacity(),
	}
}
