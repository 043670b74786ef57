package generate

import (
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
)

// Heightmap samples region on a resolution x resolution grid whose outer
// samples lie on the region's edges, so neighbouring tiles share their
// border rows. It returns false when canceled reports true between rows.
func Heightmap(region quadtree.Rect, resolution int, sample Sampler, canceled func() bool) ([]float32, bool) {
	out := make([]float32, resolution*resolution)
	step := gridStep(resolution)

	for j := 0; j < resolution; j++ {
		if canceled() {
			return nil, false
		}
		z := region.MinY + float64(j)*step*region.Height()
		row := out[j*resolution : (j+1)*resolution]
		for i := range row {
			x := region.MinX + float64(i)*step*region.Width()
			row[i] = float32(sample(x, 0, z))
		}
	}
	return out, true
}

func gridStep(resolution int) float64 {
	if resolution < 2 {
		return 0
	}
	return 1 / float64(resolution-1)
}
