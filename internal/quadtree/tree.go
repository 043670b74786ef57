package quadtree

import (
	"github.com/go-gl/mathgl/mgl64"
)

// AABB is a world-space axis aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// Distance returns the distance from p to the closest point of the box,
// zero when p is inside.
func (b AABB) Distance(p mgl64.Vec3) float64 {
	var d mgl64.Vec3
	for i := 0; i < 3; i++ {
		switch {
		case p[i] < b.Min[i]:
			d[i] = b.Min[i] - p[i]
		case p[i] > b.Max[i]:
			d[i] = p[i] - b.Max[i]
		}
	}
	return d.Len()
}

// Transform places tree-local geometry in the world.
type Transform interface {
	// SampleRect maps a tree-local rectangle to world XZ units.
	SampleRect(treeID uint32, local Rect) Rect
	// Bounds returns the world box that contains all terrain of a node.
	Bounds(n *Node) AABB
	// Matrix maps the unit tile [0,1]x[0,1] on the XZ plane onto the node.
	Matrix(n *Node) mgl64.Mat4
}

// PlaneTransform lays every tree out as a square of TreeSize on the XZ plane,
// tree i starting at x = i*TreeSize. Heights are bounded by MinHeight and
// MaxHeight for culling.
type PlaneTransform struct {
	TreeSize  float64
	MinHeight float64
	MaxHeight float64
}

var _ Transform = PlaneTransform{}

func (p PlaneTransform) SampleRect(treeID uint32, local Rect) Rect {
	originX := float64(treeID) * p.TreeSize
	return Rect{
		MinX: originX + local.MinX*p.TreeSize,
		MinY: local.MinY * p.TreeSize,
		MaxX: originX + local.MaxX*p.TreeSize,
		MaxY: local.MaxY * p.TreeSize,
	}
}

func (p PlaneTransform) Bounds(n *Node) AABB {
	r := n.SampleRect
	return AABB{
		Min: mgl64.Vec3{r.MinX, p.MinHeight, r.MinY},
		Max: mgl64.Vec3{r.MaxX, p.MaxHeight, r.MaxY},
	}
}

func (p PlaneTransform) Matrix(n *Node) mgl64.Mat4 {
	r := n.SampleRect
	return mgl64.Translate3D(r.MinX, 0, r.MinY).Mul4(mgl64.Scale3D(r.Width(), 1, r.Height()))
}

// Tree is a forest of quad-trees sharing one transform, one root per tree id.
type Tree struct {
	roots     []*Node
	transform Transform
}

func NewTree(trees int, transform Transform) *Tree {
	t := &Tree{
		roots:     make([]*Node, trees),
		transform: transform,
	}
	unit := Rect{MaxX: 1, MaxY: 1}
	for i := range t.roots {
		id := uint32(i)
		t.roots[i] = newNode(Key{TreeID: id}, unit, transform.SampleRect(id, unit))
	}
	return t
}

func (t *Tree) Roots() []*Node {
	return t.roots
}

func (t *Tree) Transform() Transform {
	return t.transform
}
