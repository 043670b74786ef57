package producer

import (
	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

// CPUNormals derives normal maps from CPU elevation tiles of the same key.
// A normal tile is dropped as soon as the elevation it came from is.
type CPUNormals struct {
	cpuProducer
	elevation *CPUElevation
}

var _ Producer = (*CPUNormals)(nil)

func NewCPUNormals(opts Options, elevation *CPUElevation, sched Submitter) *CPUNormals {
	p := &CPUNormals{
		cpuProducer: newCPUProducer(LayerCPUNormals, generate.NormalChannels, opts, sched),
		elevation:   elevation,
	}
	elevation.onEvict(func(key quadtree.Key) {
		// An in-flight task read heights that are gone now.
		p.Cancel(key)
		p.Evict(key)
	})
	return p
}

func (p *CPUNormals) Update(nodes []*quadtree.Node, leaving, entering []quadtree.Key) {
	p.update(nodes, leaving, entering, func(node *quadtree.Node) scheduler.Task {
		tile, ok := p.elevation.GetTile(node)
		if !ok {
			metrics.DependencyWaits.WithLabelValues(p.layer).Inc()
			return nil
		}
		heights, ok := p.elevation.Data(tile)
		if !ok {
			return nil
		}
		return generate.NewNormalmapTask(node.Key, node.SampleRect, heights, p.resolution, &p.results)
	})
}
