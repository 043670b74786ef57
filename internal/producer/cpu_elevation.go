package producer

import (
	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
)

// CPUElevation generates one heightmap per node from a sampler.
type CPUElevation struct {
	cpuProducer
	sampler generate.Sampler
}

var _ Producer = (*CPUElevation)(nil)

func NewCPUElevation(opts Options, sampler generate.Sampler, sched Submitter) *CPUElevation {
	return &CPUElevation{
		cpuProducer: newCPUProducer(LayerCPUElevation, 1, opts, sched),
		sampler:     sampler,
	}
}

func (p *CPUElevation) Update(nodes []*quadtree.Node, leaving, entering []quadtree.Key) {
	p.update(nodes, leaving, entering, func(node *quadtree.Node) scheduler.Task {
		return generate.NewHeightmapTask(node.Key, node.SampleRect, p.resolution, p.sampler, &p.results)
	})
}
