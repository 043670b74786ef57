package producer

import (
	"github.com/gogpu/gputypes"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
)

// GPUElevation mirrors CPU elevation tiles into an R32Float texture array.
type GPUElevation struct {
	gpuProducer
	source *CPUElevation
}

var _ Producer = (*GPUElevation)(nil)

func NewGPUElevation(opts Options, device tilebuffer.Device, transform quadtree.Transform, source *CPUElevation) (*GPUElevation, error) {
	base, err := newGPUProducer(LayerGPUElevation, gputypes.TextureFormatR32Float, opts, device, transform)
	if err != nil {
		return nil, err
	}
	return &GPUElevation{gpuProducer: base, source: source}, nil
}

func (p *GPUElevation) Update(nodes []*quadtree.Node, _, _ []quadtree.Key) {
	p.update(nodes, func(node *quadtree.Node, dst []byte) bool {
		tile, ok := p.source.GetTile(node)
		if !ok {
			return false
		}
		heights, ok := p.source.Data(tile)
		if !ok {
			return false
		}
		putFloat32s(dst, heights)
		return true
	})
}
