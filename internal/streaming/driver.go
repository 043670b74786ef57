// Package streaming drives the per-frame pipeline: node selection followed
// by every producer's update in dependency order.
package streaming

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/producer"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/config"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Stats is an immutable snapshot of the last frame.
type Stats struct {
	Frame      uint64           `json:"frame"`
	Nodes      int              `json:"nodes"`
	Entering   int              `json:"entering"`
	Leaving    int              `json:"leaving"`
	QueueDepth int              `json:"queue_depth"`
	FrameTime  time.Duration    `json:"frame_time_ns"`
	Layers     []producer.Stats `json:"layers"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type Driver struct {
	tree     *quadtree.Tree
	selector *quadtree.Selector
	sched    *scheduler.Scheduler

	elevation    *producer.CPUElevation
	normals      *producer.CPUNormals
	gpuElevation *producer.GPUElevation
	gpuNormals   *producer.GPUNormals
	// producers in dependency order
	producers []producer.Producer

	frame  uint64
	stats  atomic.Pointer[Stats]
	closed bool
	logger logger.Logger
}

func New(cfg config.Terrain, sampler generate.Sampler, device tilebuffer.Device, l logger.Logger) (*Driver, error) {
	transform := quadtree.PlaneTransform{
		TreeSize:  cfg.TreeSize,
		MinHeight: -cfg.HeightScale,
		MaxHeight: cfg.HeightScale,
	}
	tree := quadtree.NewTree(cfg.Trees, transform)
	sched := scheduler.New(cfg.Workers, l)

	cpuOpts := producer.Options{Resolution: cfg.TileResolution, Capacity: cfg.CPUCacheCapacity, Logger: l}
	gpuOpts := producer.Options{Resolution: cfg.TileResolution, Capacity: cfg.GPUCacheCapacity, Logger: l}

	elevation := producer.NewCPUElevation(cpuOpts, sampler, sched)
	normals := producer.NewCPUNormals(cpuOpts, elevation, sched)

	gpuElevation, err := producer.NewGPUElevation(gpuOpts, device, transform, elevation)
	if err != nil {
		sched.Close()
		return nil, fmt.Errorf("failed to create gpu elevation producer: %w", err)
	}
	gpuNormals, err := producer.NewGPUNormals(gpuOpts, device, transform, normals)
	if err != nil {
		gpuElevation.Close()
		sched.Close()
		return nil, fmt.Errorf("failed to create gpu normals producer: %w", err)
	}

	d := &Driver{
		tree: tree,
		selector: quadtree.NewSelector(tree, quadtree.SelectorConfig{
			MaxLOD:      cfg.MaxLOD,
			SplitFactor: cfg.SplitFactor,
		}),
		sched:        sched,
		elevation:    elevation,
		normals:      normals,
		gpuElevation: gpuElevation,
		gpuNormals:   gpuNormals,
		producers:    []producer.Producer{elevation, normals, gpuElevation, gpuNormals},
		logger:       l,
	}
	d.stats.Store(&Stats{Layers: d.layerStats()})
	return d, nil
}

// Frame runs selection and every producer update for one frame. It must be
// called from a single goroutine.
func (d *Driver) Frame(ctx context.Context, cam quadtree.Camera) Stats {
	_, span := telemetry.Tracer().Start(ctx, "streaming.frame")
	defer span.End()
	start := time.Now()

	sel := d.selector.Select(cam)
	for _, p := range d.producers {
		p.Update(sel.Nodes, sel.Leaving, sel.Entering)
	}

	d.frame++
	elapsed := time.Since(start)
	metrics.FrameDuration.Observe(elapsed.Seconds())
	metrics.NodesSelected.Set(float64(len(sel.Nodes)))
	span.SetAttributes(
		attribute.Int64("frame", int64(d.frame)),
		attribute.Int("nodes", len(sel.Nodes)),
		attribute.Int("entering", len(sel.Entering)),
		attribute.Int("leaving", len(sel.Leaving)),
	)

	s := &Stats{
		Frame:      d.frame,
		Nodes:      len(sel.Nodes),
		Entering:   len(sel.Entering),
		Leaving:    len(sel.Leaving),
		QueueDepth: d.sched.Pending(),
		FrameTime:  elapsed,
		Layers:     d.layerStats(),
		UpdatedAt:  time.Now(),
	}
	d.stats.Store(s)
	return *s
}

func (d *Driver) layerStats() []producer.Stats {
	out := make([]producer.Stats, len(d.producers))
	for i, p := range d.producers {
		out[i] = p.Stats()
	}
	return out
}

// Stats returns the snapshot published by the last frame. Safe from any
// goroutine.
func (d *Driver) Stats() Stats {
	return *d.stats.Load()
}

// CPUTile is a resident CPU tile and its samples. Data is only valid for the
// duration of the DumpCPUTiles callback.
type CPUTile struct {
	Tile     *producer.DataTile
	Channels int
	Data     []float32
}

// DumpCPUTiles calls fn for every resident CPU tile of both CPU layers. It
// stops at the first error. Frame goroutine only.
func (d *Driver) DumpCPUTiles(fn func(CPUTile) error) error {
	var err error
	for _, layer := range []cpuLayer{d.elevation, d.normals} {
		layer.Range(func(tile *producer.DataTile) bool {
			data, ok := layer.Data(tile)
			if !ok {
				return true
			}
			err = fn(CPUTile{Tile: tile, Channels: layer.Channels(), Data: data})
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type cpuLayer interface {
	Range(fn func(*producer.DataTile) bool)
	Data(tile *producer.DataTile) ([]float32, bool)
	Channels() int
}

// Close tears the pipeline down: pending tasks are canceled, the workers are
// joined, then the caches and texture arrays are released.
func (d *Driver) Close() {
	if d.closed {
		return
	}
	d.closed = true

	for _, p := range d.producers {
		p.CancelAll()
	}
	d.sched.Close()
	for i := len(d.producers) - 1; i >= 0; i-- {
		d.producers[i].Close()
	}
	d.logger.Info("streaming driver closed", "frames", d.frame)
}
