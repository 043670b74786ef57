// Package producer keeps per-layer tile data in step with the set of nodes
// the selector puts in the scene.
//
// There are four producers. CPU elevation generates heightmaps in the
// background. CPU normals derives normal maps from ready CPU elevation
// tiles. The two GPU producers upload ready CPU tiles into texture arrays on
// the frame goroutine and never enqueue work.
//
// Every method must be called from the frame goroutine.
package producer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"github.com/jaennil/guide_helper/backend/terrain/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/terrain/internal/slotpool"
	"github.com/jaennil/guide_helper/backend/terrain/internal/tilebuffer"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
)

const (
	LayerCPUElevation = "cpu-elevation"
	LayerCPUNormals   = "cpu-normals"
	LayerGPUElevation = "gpu-elevation"
	LayerGPUNormals   = "gpu-normals"
)

type Producer interface {
	Layer() string
	// Update folds the finished work of previous frames in and requests the
	// tiles for nodes that are missing.
	Update(nodes []*quadtree.Node, leaving, entering []quadtree.Key)
	// GetTile returns the tile for exactly node's key.
	GetTile(node *quadtree.Node) (*DataTile, bool)
	// FindTile returns the tile for key or its nearest cached ancestor.
	FindTile(key quadtree.Key) (*DataTile, bool)
	Cancel(key quadtree.Key)
	CancelAll()
	Close()
	Stats() Stats
}

// Submitter is the part of the scheduler a producer needs.
type Submitter interface {
	Submit(tasks ...scheduler.Task) error
}

// DataTile is one layer's data for one key. It lives exactly as long as the
// cache entry behind Slot.
type DataTile struct {
	Key        quadtree.Key
	Layer      string
	Resolution int
	Slot       slotpool.Handle

	// GPU tiles only.
	Geometry  *Geometry
	Constants *Constants
}

// Constants are the per tile values a renderer binds next to the shared
// geometry.
type Constants struct {
	Model mgl64.Mat4
	Array tilebuffer.TextureArray
	Layer uint32
}

type Stats struct {
	Layer    string `json:"layer"`
	Resident int    `json:"resident"`
	Pending  int    `json:"pending"`
	Capacity int    `json:"capacity"`
}

type Options struct {
	Resolution int
	Capacity   int
	Logger     logger.Logger
}

func (o Options) logger() logger.Logger {
	if o.Logger == nil {
		return logger.NewNop()
	}
	return o.Logger
}
