package tilebuffer

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/terrain/internal/slotpool"
)

// CPUSlot holds one tile of samples. The backing slice grows on first use and
// keeps its capacity across reuse.
type CPUSlot struct {
	Data []float32
}

// CPUBuffer is a pool of CPU tile slots of width*height*channels samples.
type CPUBuffer struct {
	*slotpool.Pool[CPUSlot]

	width    int
	height   int
	channels int
}

func NewCPU(width, height, channels, capacity int) *CPUBuffer {
	return &CPUBuffer{
		Pool: slotpool.New(capacity, nil, func(s *CPUSlot) {
			s.Data = s.Data[:0]
		}),
		width:    width,
		height:   height,
		channels: channels,
	}
}

func (b *CPUBuffer) Width() int    { return b.width }
func (b *CPUBuffer) Height() int   { return b.height }
func (b *CPUBuffer) Channels() int { return b.channels }

// SampleCount is the number of float32 values in one tile.
func (b *CPUBuffer) SampleCount() int {
	return b.width * b.height * b.channels
}

// Write copies src into the slot addressed by h.
func (b *CPUBuffer) Write(h slotpool.Handle, src []float32) error {
	if len(src) != b.SampleCount() {
		return fmt.Errorf("cpu tile payload has %d samples, want %d", len(src), b.SampleCount())
	}
	s, ok := b.Get(h)
	if !ok {
		return fmt.Errorf("write to stale %v", h)
	}
	s.Data = append(s.Data[:0], src...)
	return nil
}

// Data returns the samples held by h. The slice is only valid until the slot
// is released.
func (b *CPUBuffer) Data(h slotpool.Handle) ([]float32, bool) {
	s, ok := b.Get(h)
	if !ok {
		return nil, false
	}
	return s.Data, true
}
