package tilebuffer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/jaennil/guide_helper/backend/terrain/internal/slotpool"
)

// MaxArrayLayers bounds the depth of one texture array.
const MaxArrayLayers = 2048

var (
	ErrCapacity          = errors.New("texture array capacity out of range")
	ErrUnsupportedFormat = errors.New("unsupported texture format")
)

// TextureArray is an opaque device handle.
type TextureArray uint64

type TextureArrayDesc struct {
	Label     string
	Format    gputypes.TextureFormat
	Dimension gputypes.TextureDimension
	Size      gputypes.Extent3D
	Usage     gputypes.TextureUsage
}

// Device is the slice of a GPU backend the tile buffers need.
type Device interface {
	CreateTextureArray(desc TextureArrayDesc) (TextureArray, error)
	UpdateTexture(array TextureArray, layer uint32, data []byte) error
	DestroyTextureArray(array TextureArray)
}

// GPUSlot addresses one layer of the buffer's texture array.
type GPUSlot struct {
	Array TextureArray
	Layer uint32
}

// GPUBuffer is a pool of texture array layers, one tile per layer.
type GPUBuffer struct {
	*slotpool.Pool[GPUSlot]

	device Device
	array  TextureArray
	desc   TextureArrayDesc
}

func BytesPerTexel(format gputypes.TextureFormat) (int, error) {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1, nil
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatRGBA8Unorm:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func NewGPU(device Device, label string, format gputypes.TextureFormat, width, height, capacity int) (*GPUBuffer, error) {
	if capacity <= 0 || capacity > MaxArrayLayers {
		return nil, fmt.Errorf("%w: %d layers", ErrCapacity, capacity)
	}
	if _, err := BytesPerTexel(format); err != nil {
		return nil, err
	}

	desc := TextureArrayDesc{
		Label:     label,
		Format:    format,
		Dimension: gputypes.TextureDimension2D,
		Size: gputypes.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: uint32(capacity),
		},
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}

	array, err := device.CreateTextureArray(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture array %q: %w", label, err)
	}

	return &GPUBuffer{
		Pool: slotpool.New(capacity, func(i int, s *GPUSlot) {
			s.Array = array
			s.Layer = uint32(i)
		}, nil),
		device: device,
		array:  array,
		desc:   desc,
	}, nil
}

func (b *GPUBuffer) Array() TextureArray {
	return b.array
}

// LayerSize is the byte size of one layer.
func (b *GPUBuffer) LayerSize() int {
	bpt, _ := BytesPerTexel(b.desc.Format)
	return int(b.desc.Size.Width) * int(b.desc.Size.Height) * bpt
}

// Upload writes data into the layer addressed by h. Frame goroutine only.
func (b *GPUBuffer) Upload(h slotpool.Handle, data []byte) error {
	if len(data) != b.LayerSize() {
		return fmt.Errorf("gpu tile payload has %d bytes, want %d", len(data), b.LayerSize())
	}
	s, ok := b.Get(h)
	if !ok {
		return fmt.Errorf("upload to stale %v", h)
	}
	if err := b.device.UpdateTexture(s.Array, s.Layer, data); err != nil {
		return fmt.Errorf("failed to update layer %d of %q: %w", s.Layer, b.desc.Label, err)
	}
	return nil
}

// Close destroys the texture array. Every handle becomes meaningless.
func (b *GPUBuffer) Close() {
	b.device.DestroyTextureArray(b.array)
}
