package generate

import "math"

// NormalChannels is the number of floats per normal map sample (x, y, z).
const NormalChannels = 3

// NormalByte maps a normal component from [-1,1] to [0,255], clamping
// values outside the range.
func NormalByte(v float32) uint8 {
	f := (v*0.5 + 0.5) * 255
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(f + 0.5)
	}
}

// Normalmap derives unit normals from a square heightmap by central
// differences. Neighbour indices are clamped at the tile border, so edge
// samples use a one sided difference over a single spacing. spacingX and
// spacingZ are the world distances between adjacent samples.
func Normalmap(heights []float32, resolution int, spacingX, spacingZ float64, canceled func() bool) ([]float32, bool) {
	out := make([]float32, resolution*resolution*NormalChannels)
	last := resolution - 1

	for j := 0; j < resolution; j++ {
		if canceled() {
			return nil, false
		}
		up, down := max(j-1, 0), min(j+1, last)
		for i := 0; i < resolution; i++ {
			left, right := max(i-1, 0), min(i+1, last)

			var dx, dz float64
			if right != left {
				dx = float64(heights[j*resolution+right]-heights[j*resolution+left]) /
					(float64(right-left) * spacingX)
			}
			if down != up {
				dz = float64(heights[down*resolution+i]-heights[up*resolution+i]) /
					(float64(down-up) * spacingZ)
			}

			nx, ny, nz := -dx, 1.0, -dz
			inv := 1 / math.Sqrt(nx*nx+ny*ny+nz*nz)

			o := (j*resolution + i) * NormalChannels
			out[o] = float32(nx * inv)
			out[o+1] = float32(ny * inv)
			out[o+2] = float32(nz * inv)
		}
	}
	return out, true
}
