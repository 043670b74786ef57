package generate

import "math"

// Sampler returns the terrain height at a world position. Implementations
// must be deterministic and safe for concurrent use.
type Sampler func(x, y, z float64) float64

// NoiseSampler is fractal value noise over the XZ plane, scaled to
// [-HeightScale, HeightScale].
type NoiseSampler struct {
	Seed        int64
	Octaves     int
	Frequency   float64
	Persistence float64
	Lacunarity  float64
	HeightScale float64
}

func (n NoiseSampler) Sampler() Sampler {
	return func(x, _, z float64) float64 {
		return n.fractal(x, z) * n.HeightScale
	}
}

func (n NoiseSampler) fractal(x, z float64) float64 {
	frequency := n.Frequency
	amplitude := 1.0
	sum := 0.0
	total := 0.0

	for i := 0; i < n.Octaves; i++ {
		sum += n.value(x*frequency, z*frequency, i) * amplitude
		total += amplitude
		amplitude *= n.Persistence
		frequency *= n.Lacunarity
	}

	if total == 0 {
		return 0
	}
	return sum / total
}

// value interpolates lattice values with a smoothstep. Each octave gets its
// own lattice so octaves do not line up.
func (n NoiseSampler) value(x, z float64, octave int) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix, iz := int64(x0), int64(z0)
	seed := n.Seed + int64(octave)*1013

	sx := smooth(x - x0)
	sz := smooth(z - z0)

	a := lerp(lattice(ix, iz, seed), lattice(ix+1, iz, seed), sx)
	b := lerp(lattice(ix, iz+1, seed), lattice(ix+1, iz+1, seed), sx)
	return lerp(a, b, sz)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// lattice maps an integer point to [-1, 1).
func lattice(x, z, seed int64) float64 {
	return float64(hash3(uint32(x), uint32(z), uint32(seed))&0xFFFF)/0x8000 - 1
}

func hash3(x, y, z uint32) uint32 {
	h := x*374761393 + y*668265263 + z*2147483647
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
