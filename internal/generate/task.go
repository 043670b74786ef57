// Package generate holds the background tasks that turn a tile key into
// elevation and normal data.
package generate

import (
	"context"
	"time"

	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is what a finished task hands back to its producer. Task lets the
// producer tell a late result of a canceled task from the current one.
type Result struct {
	Key  quadtree.Key
	Task scheduler.Task
	Data []float32
}

type Results = scheduler.ResultQueue[Result]

type HeightmapTask struct {
	scheduler.Cancelable

	key        quadtree.Key
	region     quadtree.Rect
	resolution int
	sampler    Sampler
	out        *Results
}

var _ scheduler.Task = (*HeightmapTask)(nil)

func NewHeightmapTask(key quadtree.Key, region quadtree.Rect, resolution int, sampler Sampler, out *Results) *HeightmapTask {
	return &HeightmapTask{
		key:        key,
		region:     region,
		resolution: resolution,
		sampler:    sampler,
		out:        out,
	}
}

func (t *HeightmapTask) Key() quadtree.Key {
	return t.key
}

func (t *HeightmapTask) Run(ctx context.Context) {
	_, span := startSpan(ctx, "generate.heightmap", t.key)
	defer span.End()
	start := time.Now()

	data, ok := Heightmap(t.region, t.resolution, t.sampler, t.Canceled)
	if !ok {
		span.SetAttributes(attribute.Bool("canceled", true))
		return
	}
	metrics.TaskDuration.WithLabelValues("heightmap").Observe(time.Since(start).Seconds())
	t.out.Push(Result{Key: t.key, Task: t, Data: data})
}

// NormalmapTask owns a private copy of the upstream heightmap; the slot it
// came from may be reused while the task runs.
type NormalmapTask struct {
	scheduler.Cancelable

	key        quadtree.Key
	heights    []float32
	resolution int
	spacingX   float64
	spacingZ   float64
	out        *Results
}

var _ scheduler.Task = (*NormalmapTask)(nil)

func NewNormalmapTask(key quadtree.Key, region quadtree.Rect, heights []float32, resolution int, out *Results) *NormalmapTask {
	step := gridStep(resolution)
	return &NormalmapTask{
		key:        key,
		heights:    append([]float32(nil), heights...),
		resolution: resolution,
		spacingX:   region.Width() * step,
		spacingZ:   region.Height() * step,
		out:        out,
	}
}

func (t *NormalmapTask) Key() quadtree.Key {
	return t.key
}

func (t *NormalmapTask) Run(ctx context.Context) {
	_, span := startSpan(ctx, "generate.normalmap", t.key)
	defer span.End()
	start := time.Now()

	data, ok := Normalmap(t.heights, t.resolution, t.spacingX, t.spacingZ, t.Canceled)
	if !ok {
		span.SetAttributes(attribute.Bool("canceled", true))
		return
	}
	metrics.TaskDuration.WithLabelValues("normalmap").Observe(time.Since(start).Seconds())
	t.out.Push(Result{Key: t.key, Task: t, Data: data})
}

func startSpan(ctx context.Context, name string, key quadtree.Key) (context.Context, trace.Span) {
	return telemetry.Tracer().Start(ctx, name, trace.WithAttributes(
		attribute.Int("tile.tree", int(key.TreeID)),
		attribute.Int("tile.lod", int(key.LOD)),
		attribute.Int("tile.x", int(key.X)),
		attribute.Int("tile.y", int(key.Y)),
	))
}
