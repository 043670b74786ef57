package tilebuffer

import (
	"fmt"
	"sync"
)

// HeadlessDevice keeps texture arrays in memory. It backs the demo binary
// and tests where no GPU is available.
type HeadlessDevice struct {
	mu      sync.Mutex
	next    TextureArray
	arrays  map[TextureArray]*headlessArray
	uploads int
}

type headlessArray struct {
	desc   TextureArrayDesc
	layers [][]byte
}

var _ Device = (*HeadlessDevice)(nil)

func NewHeadlessDevice() *HeadlessDevice {
	return &HeadlessDevice{
		arrays: make(map[TextureArray]*headlessArray),
	}
}

func (d *HeadlessDevice) CreateTextureArray(desc TextureArrayDesc) (TextureArray, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	d.arrays[d.next] = &headlessArray{
		desc:   desc,
		layers: make([][]byte, desc.Size.DepthOrArrayLayers),
	}
	return d.next, nil
}

func (d *HeadlessDevice) UpdateTexture(array TextureArray, layer uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.arrays[array]
	if !ok {
		return fmt.Errorf("unknown texture array %d", array)
	}
	if int(layer) >= len(a.layers) {
		return fmt.Errorf("layer %d out of range for %q", layer, a.desc.Label)
	}
	a.layers[layer] = append(a.layers[layer][:0], data...)
	d.uploads++
	return nil
}

func (d *HeadlessDevice) DestroyTextureArray(array TextureArray) {
	d.mu.Lock()
	delete(d.arrays, array)
	d.mu.Unlock()
}

// Layer returns a copy of the last upload to one layer.
func (d *HeadlessDevice) Layer(array TextureArray, layer uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.arrays[array]
	if !ok || int(layer) >= len(a.layers) || a.layers[layer] == nil {
		return nil, false
	}
	return append([]byte(nil), a.layers[layer]...), true
}

func (d *HeadlessDevice) Uploads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads
}

func (d *HeadlessDevice) Arrays() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.arrays)
}
