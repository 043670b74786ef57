package quadtree

// Rect is an axis aligned rectangle. Node local rectangles live in the
// tree's unit square; sample rectangles are in world XZ units.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// quadrant returns one of the four sub rectangles in Key.Subdivide order.
func (r Rect) quadrant(i int) Rect {
	midX := (r.MinX + r.MaxX) / 2
	midY := (r.MinY + r.MaxY) / 2
	q := r
	if i&1 == 0 {
		q.MaxX = midX
	} else {
		q.MinX = midX
	}
	if i&2 == 0 {
		q.MaxY = midY
	} else {
		q.MinY = midY
	}
	return q
}

// Node is one cell of a terrain quad-tree. Children are owned by their
// parent and are only created by SubdivideIfNecessary.
type Node struct {
	Key        Key
	LocalRect  Rect
	SampleRect Rect
	// Size is the world-space edge length of the node.
	Size float64

	children []*Node
}

func newNode(key Key, local, sample Rect) *Node {
	return &Node{
		Key:        key,
		LocalRect:  local,
		SampleRect: sample,
		Size:       sample.Width(),
	}
}

// SubdivideIfNecessary creates the four children once. Further calls are no-ops.
func (n *Node) SubdivideIfNecessary() {
	if n.children != nil {
		return
	}
	keys := n.Key.Subdivide()
	n.children = make([]*Node, 4)
	for i := range keys {
		n.children[i] = newNode(keys[i], n.LocalRect.quadrant(i), n.SampleRect.quadrant(i))
	}
}

func (n *Node) Children() []*Node {
	return n.children
}
