package producer

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/metrics"
)

// gpuProducer is the part shared by the producers that mirror a CPU layer
// into a texture array.
type gpuProducer struct {
	tileSet

	buffer    *tilebuffer.GPUBuffer
	geometry  *Geometry
	transform quadtree.Transform
	staging   []byte
}

func newGPUProducer(layer string, format gputypes.TextureFormat, opts Options, device tilebuffer.Device, transform quadtree.Transform) (gpuProducer, error) {
	buffer, err := tilebuffer.NewGPU(device, layer, format, opts.Resolution, opts.Resolution, opts.Capacity)
	if err != nil {
		return gpuProducer{}, err
	}
	return gpuProducer{
		tileSet:   newTileSet(layer, opts.Resolution, buffer, opts.logger()),
		buffer:    buffer,
		geometry:  NewGeometry(opts.Resolution),
		transform: transform,
		staging:   make([]byte, buffer.LayerSize()),
	}, nil
}

// update uploads every missing node whose CPU source is ready. encode fills
// the staging buffer and reports false when the source is not ready; the
// node is then retried next frame.
func (p *gpuProducer) update(nodes []*quadtree.Node, encode func(node *quadtree.Node, dst []byte) bool) {
	for _, node := range nodes {
		if p.touch(node.Key) {
			continue
		}
		if !encode(node, p.staging) {
			metrics.DependencyWaits.WithLabelValues(p.layer).Inc()
			continue
		}

		h := p.acquire(node.Key)
		if err := p.buffer.Upload(h, p.staging); err != nil {
			p.logger.Error("failed to upload tile", "layer", p.layer, "key", node.Key.String(), "error", err)
			p.Evict(node.Key)
			continue
		}
		metrics.Uploads.WithLabelValues(p.layer).Inc()

		slot, _ := p.buffer.Get(h)
		p.insert(&DataTile{
			Key:        node.Key,
			Layer:      p.layer,
			Resolution: p.resolution,
			Slot:       h,
			Geometry:   p.geometry,
			Constants: &Constants{
				Model: p.transform.Matrix(node),
				Array: slot.Array,
				Layer: slot.Layer,
			},
		})
	}
}

// Cancel is a no-op: GPU producers never have work in flight.
func (p *gpuProducer) Cancel(quadtree.Key) {}

func (p *gpuProducer) CancelAll() {}

func (p *gpuProducer) Close() {
	p.closeCache()
	p.buffer.Close()
}

func (p *gpuProducer) Stats() Stats {
	return Stats{
		Layer:    p.layer,
		Resident: len(p.tiles),
		Capacity: p.buffer.Capacity(),
	}
}

func putFloat32s(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// putNormals packs unit normals into RGBA8 with each component mapped from
// [-1,1] to [0,255] and alpha fully opaque.
func putNormals(dst []byte, src []float32) {
	for i := 0; i*3 < len(src); i++ {
		n := src[i*3 : i*3+3]
		dst[i*4] = generate.NormalByte(n[0])
		dst[i*4+1] = generate.NormalByte(n[1])
		dst[i*4+2] = generate.NormalByte(n[2])
		dst[i*4+3] = 255
	}
}
