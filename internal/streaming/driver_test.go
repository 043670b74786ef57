package streaming

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jaennil/guide_helper/backend/terrain/internal/generate"
	"github.com/jaennil/guide_helper/backend/terrain/internal/producer"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/config"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
	"go.uber.org/zap/zaptest"
)

func testTerrain() config.Terrain {
	return config.Terrain{
		TileResolution:   5,
		CPUCacheCapacity: 256,
		GPUCacheCapacity: 256,
		MaxLOD:           3,
		SplitFactor:      1.5,
		Trees:            1,
		TreeSize:         1024,
		HeightScale:      10,
		Seed:             1,
		Octaves:          3,
		Frequency:        0.01,
		Persistence:      0.5,
		Lacunarity:       2,
		Workers:          1,
	}
}

func newTestDriver(t *testing.T, cfg config.Terrain) (*Driver, *tilebuffer.HeadlessDevice) {
	t.Helper()
	sampler := generate.NoiseSampler{
		Seed:        cfg.Seed,
		Octaves:     cfg.Octaves,
		Frequency:   cfg.Frequency,
		Persistence: cfg.Persistence,
		Lacunarity:  cfg.Lacunarity,
		HeightScale: cfg.HeightScale,
	}.Sampler()
	device := tilebuffer.NewHeadlessDevice()
	d, err := New(cfg, sampler, device, logger.NewZapLoggerFrom(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d, device
}

func layer(s Stats, name string) producer.Stats {
	for _, l := range s.Layers {
		if l.Layer == name {
			return l
		}
	}
	return producer.Stats{}
}

// runUntil drives frames until every layer holds a tile for every selected
// node.
func runUntil(t *testing.T, d *Driver, cam quadtree.Camera) Stats {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		s := d.Frame(context.Background(), cam)
		if layer(s, producer.LayerGPUNormals).Resident == s.Nodes && s.QueueDepth == 0 {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("pipeline did not settle: %+v", s)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStatsBeforeFirstFrame(t *testing.T) {
	d, _ := newTestDriver(t, testTerrain())
	s := d.Stats()
	if s.Frame != 0 || len(s.Layers) != 4 {
		t.Fatalf("initial stats = %+v", s)
	}
	want := []string{producer.LayerCPUElevation, producer.LayerCPUNormals, producer.LayerGPUElevation, producer.LayerGPUNormals}
	for i, name := range want {
		if s.Layers[i].Layer != name {
			t.Fatalf("layer %d = %s, want %s", i, s.Layers[i].Layer, name)
		}
	}
}

func TestFrameFillsEveryLayer(t *testing.T) {
	d, device := newTestDriver(t, testTerrain())
	cam := quadtree.Camera{Position: mgl64.Vec3{512, 50, 512}}

	s := runUntil(t, d, cam)

	if s.Nodes == 0 {
		t.Fatal("nothing selected")
	}
	for _, name := range []string{producer.LayerCPUElevation, producer.LayerCPUNormals, producer.LayerGPUElevation} {
		if got := layer(s, name).Resident; got < s.Nodes {
			t.Fatalf("%s resident = %d, nodes = %d", name, got, s.Nodes)
		}
	}
	if device.Uploads() < 2*s.Nodes {
		t.Fatalf("uploads = %d, want at least %d", device.Uploads(), 2*s.Nodes)
	}
	if d.Stats().Frame != s.Frame {
		t.Fatal("published snapshot lags behind the frame")
	}

	for _, n := range d.tree.Roots() {
		if _, ok := d.gpuNormals.FindTile(quadtree.Key{TreeID: n.Key.TreeID, X: 7, Y: 7, LOD: 3}); !ok {
			t.Fatal("no tile or ancestor for a corner key")
		}
	}
}

func TestCameraMoveCancelsAndEvicts(t *testing.T) {
	cfg := testTerrain()
	cfg.Trees = 2
	d, _ := newTestDriver(t, cfg)

	first := runUntil(t, d, quadtree.Camera{Position: mgl64.Vec3{100, 20, 100}})
	s := runUntil(t, d, quadtree.Camera{Position: mgl64.Vec3{1900, 20, 900}})
	if s.Frame <= first.Frame {
		t.Fatal("no frames ran after the move")
	}

	// The finest cell under the new camera position lives in tree 1.
	under := quadtree.Key{TreeID: 1, X: 6, Y: 7, LOD: 3}
	tile, ok := d.gpuElevation.FindTile(under)
	if !ok || tile.Key != under {
		t.Fatalf("FindTile(%v) = %v, %v", under, tile, ok)
	}
}

func TestDumpCPUTilesVisitsBothLayers(t *testing.T) {
	d, _ := newTestDriver(t, testTerrain())
	s := runUntil(t, d, quadtree.Camera{Position: mgl64.Vec3{512, 50, 512}})

	seen := map[string]int{}
	err := d.DumpCPUTiles(func(tile CPUTile) error {
		seen[tile.Tile.Layer]++
		if len(tile.Data) != 25*tile.Channels {
			t.Fatalf("%s tile has %d floats for %d channels", tile.Tile.Layer, len(tile.Data), tile.Channels)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("DumpCPUTiles: %v", err)
	}
	if seen[producer.LayerCPUElevation] != layer(s, producer.LayerCPUElevation).Resident ||
		seen[producer.LayerCPUNormals] != layer(s, producer.LayerCPUNormals).Resident {
		t.Fatalf("visited %v, stats %+v", seen, s.Layers)
	}

	stop := errors.New("stop")
	calls := 0
	err = d.DumpCPUTiles(func(CPUTile) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err = %v after %d calls", err, calls)
	}
}

func TestCloseReleasesResources(t *testing.T) {
	d, device := newTestDriver(t, testTerrain())
	cam := quadtree.Camera{Position: mgl64.Vec3{512, 50, 512}}
	d.Frame(context.Background(), cam)

	d.Close()
	d.Close()

	if device.Arrays() != 0 {
		t.Fatalf("%d texture arrays left", device.Arrays())
	}
	for _, p := range d.producers {
		if s := p.Stats(); s.Resident != 0 || s.Pending != 0 {
			t.Fatalf("%s after Close: %+v", s.Layer, s)
		}
	}
}

func TestNewRejectsOversizedGPUCache(t *testing.T) {
	cfg := testTerrain()
	cfg.GPUCacheCapacity = tilebuffer.MaxArrayLayers + 1
	cfg.CPUCacheCapacity = cfg.GPUCacheCapacity

	_, err := New(cfg, func(float64, float64, float64) float64 { return 0 }, tilebuffer.NewHeadlessDevice(), logger.NewNop())
	if !errors.Is(err, tilebuffer.ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
}
