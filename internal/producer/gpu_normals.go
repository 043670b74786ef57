package producer

import (
	"github.com/gogpu/gputypes"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
)

// GPUNormals mirrors CPU normal tiles into an RGBA8 texture array.
type GPUNormals struct {
	gpuProducer
	source *CPUNormals
}

var _ Producer = (*GPUNormals)(nil)

func NewGPUNormals(opts Options, device tilebuffer.Device, transform quadtree.Transform, source *CPUNormals) (*GPUNormals, error) {
	base, err := newGPUProducer(LayerGPUNormals, gputypes.TextureFormatRGBA8Unorm, opts, device, transform)
	if err != nil {
		return nil, err
	}
	return &GPUNormals{gpuProducer: base, source: source}, nil
}

func (p *GPUNormals) Update(nodes []*quadtree.Node, _, _ []quadtree.Key) {
	p.update(nodes, func(node *quadtree.Node, dst []byte) bool {
		tile, ok := p.source.GetTile(node)
		if !ok {
			return false
		}
		normals, ok := p.source.Data(tile)
		if !ok {
			return false
		}
		putNormals(dst, normals)
		return true
	})
}
