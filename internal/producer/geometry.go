package producer

// Geometry is the grid mesh every tile of a GPU layer is drawn with. The
// per tile model matrix stretches the unit square onto the node.
type Geometry struct {
	Resolution int
	// Positions holds x, z pairs in [0,1].
	Positions []float32
	Indices   []uint32
}

func NewGeometry(resolution int) *Geometry {
	g := &Geometry{
		Resolution: resolution,
		Positions:  make([]float32, 0, resolution*resolution*2),
		Indices:    make([]uint32, 0, (resolution-1)*(resolution-1)*6),
	}
	step := float32(1) / float32(resolution-1)
	for j := 0; j < resolution; j++ {
		for i := 0; i < resolution; i++ {
			g.Positions = append(g.Positions, float32(i)*step, float32(j)*step)
		}
	}
	for j := 0; j < resolution-1; j++ {
		for i := 0; i < resolution-1; i++ {
			a := uint32(j*resolution + i)
			b := a + 1
			c := a + uint32(resolution)
			d := c + 1
			g.Indices = append(g.Indices, a, c, b, b, c, d)
		}
	}
	return g
}
