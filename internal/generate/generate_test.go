package generate

import (
	"context"
	"math"
	"testing"

	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
)

func never() bool { return false }

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-5
}

func TestHeightmapSamplesRegionEdges(t *testing.T) {
	region := quadtree.Rect{MinX: 100, MinY: 200, MaxX: 140, MaxY: 280}
	got, ok := Heightmap(region, 5, func(x, _, z float64) float64 { return x + z/1000 }, never)
	if !ok {
		t.Fatal("heightmap canceled")
	}
	if len(got) != 25 {
		t.Fatalf("len = %d, want 25", len(got))
	}

	tests := []struct {
		i, j int
		want float64
	}{
		{0, 0, 100.2},
		{4, 0, 140.2},
		{0, 4, 100.28},
		{2, 2, 120.24},
		{4, 4, 140.28},
	}
	for _, tt := range tests {
		if v := float64(got[tt.j*5+tt.i]); math.Abs(v-tt.want) > 1e-3 {
			t.Errorf("sample (%d,%d) = %v, want %v", tt.i, tt.j, v, tt.want)
		}
	}
}

func TestHeightmapNeighboursShareBorder(t *testing.T) {
	s := NoiseSampler{Seed: 7, Octaves: 4, Frequency: 0.01, Persistence: 0.5, Lacunarity: 2, HeightScale: 100}.Sampler()
	left, _ := Heightmap(quadtree.Rect{MinX: 0, MaxX: 64, MaxY: 64}, 9, s, never)
	right, _ := Heightmap(quadtree.Rect{MinX: 64, MaxX: 128, MaxY: 64}, 9, s, never)

	for j := 0; j < 9; j++ {
		if left[j*9+8] != right[j*9] {
			t.Fatalf("row %d: border %v != %v", j, left[j*9+8], right[j*9])
		}
	}
}

func TestHeightmapCanceled(t *testing.T) {
	rows := 0
	got, ok := Heightmap(quadtree.Rect{MaxX: 1, MaxY: 1}, 8, func(float64, float64, float64) float64 { return 0 }, func() bool {
		rows++
		return rows > 3
	})
	if ok || got != nil {
		t.Fatal("canceled heightmap returned data")
	}
	if rows != 4 {
		t.Fatalf("checked cancellation %d times, want once per row until canceled", rows)
	}
}

func TestNormalmapFlat(t *testing.T) {
	heights := make([]float32, 16)
	for i := range heights {
		heights[i] = 42
	}
	got, _ := Normalmap(heights, 4, 1, 1, never)
	for i := 0; i < 16; i++ {
		n := got[i*3 : i*3+3]
		if n[0] != 0 || n[1] != 1 || n[2] != 0 {
			t.Fatalf("normal %d = %v, want up", i, n)
		}
	}
}

func TestNormalmapSlopeIncludingBorders(t *testing.T) {
	const res = 5
	const spacing = 2.0
	heights := make([]float32, res*res)
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			heights[j*res+i] = float32(float64(i) * spacing * 0.5)
		}
	}

	got, _ := Normalmap(heights, res, spacing, spacing, never)

	l := math.Sqrt(0.25 + 1)
	for idx := 0; idx < res*res; idx++ {
		n := got[idx*3 : idx*3+3]
		if !near(float64(n[0]), -0.5/l) || !near(float64(n[1]), 1/l) || !near(float64(n[2]), 0) {
			t.Fatalf("normal %d = %v", idx, n)
		}
	}
}

func TestNormalmapUnitLength(t *testing.T) {
	s := NoiseSampler{Seed: 3, Octaves: 6, Frequency: 0.05, Persistence: 0.5, Lacunarity: 2, HeightScale: 30}.Sampler()
	heights, _ := Heightmap(quadtree.Rect{MaxX: 100, MaxY: 100}, 17, s, never)
	got, _ := Normalmap(heights, 17, 100.0/16, 100.0/16, never)

	for i := 0; i < len(got); i += 3 {
		l := math.Sqrt(float64(got[i]*got[i] + got[i+1]*got[i+1] + got[i+2]*got[i+2]))
		if !near(l, 1) || got[i+1] <= 0 {
			t.Fatalf("normal %d = %v (len %v)", i/3, got[i:i+3], l)
		}
	}
}

func TestNoiseSamplerDeterministicAndBounded(t *testing.T) {
	n := NoiseSampler{Seed: 1337, Octaves: 8, Frequency: 0.001, Persistence: 0.5, Lacunarity: 2, HeightScale: 2000}
	a, b := n.Sampler(), n.Sampler()

	for i := 0; i < 1000; i++ {
		x, z := float64(i)*37.5, float64(i)*-12.25
		h := a(x, 0, z)
		if h != b(x, 0, z) {
			t.Fatalf("sampler not deterministic at (%v,%v)", x, z)
		}
		if h < -2000 || h > 2000 {
			t.Fatalf("height %v out of range", h)
		}
	}

	other := NoiseSampler{Seed: 1338, Octaves: 8, Frequency: 0.001, Persistence: 0.5, Lacunarity: 2, HeightScale: 2000}.Sampler()
	differs := false
	for i := 0; i < 100 && !differs; i++ {
		differs = a(float64(i)*500, 0, 0) != other(float64(i)*500, 0, 0)
	}
	if !differs {
		t.Fatal("seed has no effect")
	}
}

func TestTasksPushResultsTaggedWithTask(t *testing.T) {
	out := &Results{}
	key := quadtree.Key{X: 1, Y: 2, LOD: 3}
	region := quadtree.Rect{MaxX: 8, MaxY: 8}

	h := NewHeightmapTask(key, region, 3, func(x, _, z float64) float64 { return x }, out)
	h.Run(context.Background())

	results := out.Flush()
	if len(results) != 1 || results[0].Key != key || results[0].Task != h {
		t.Fatalf("heightmap results = %+v", results)
	}

	n := NewNormalmapTask(key, region, results[0].Data, 3, out)
	results[0].Data[0] = 1e9
	n.Run(context.Background())

	results = out.Flush()
	if len(results) != 1 || results[0].Task != n || len(results[0].Data) != 27 {
		t.Fatalf("normalmap results = %+v", results)
	}
	if results[0].Data[1] < 0.5 {
		t.Fatal("normalmap read the caller's slice after construction")
	}
}

func TestCanceledTaskPushesNothing(t *testing.T) {
	out := &Results{}
	task := NewHeightmapTask(quadtree.Key{}, quadtree.Rect{MaxX: 1, MaxY: 1}, 4, func(float64, float64, float64) float64 { return 0 }, out)
	task.Cancel()
	task.Run(context.Background())

	if out.Len() != 0 {
		t.Fatal("canceled task pushed a result")
	}
}

func TestNormalByte(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{0, 128},
		{1, 255},
		{-2, 0},
		{2, 255},
	}
	for _, tt := range tests {
		if got := NormalByte(tt.in); got != tt.want {
			t.Errorf("NormalByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
