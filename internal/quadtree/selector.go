package quadtree

const DefaultSplitFactor = 1.5

// Selection is the result of one frame of node selection.
type Selection struct {
	// Nodes are the selected nodes in visiting order.
	Nodes []*Node
	// Keys are the selected keys, sorted.
	Keys     []Key
	Entering []Key
	Leaving  []Key
}

type SelectorConfig struct {
	// MaxLOD caps refinement; 0 selects the roots only.
	MaxLOD      uint32
	SplitFactor float64
}

// Selector refines the tree top-down every frame. Apart from the configured
// limits its only state is the previous frame's key set used for diffing.
type Selector struct {
	tree        *Tree
	maxLOD      uint32
	splitFactor float64

	previous []Key
	queue    []*Node
}

func NewSelector(tree *Tree, cfg SelectorConfig) *Selector {
	if cfg.SplitFactor <= 0 {
		cfg.SplitFactor = DefaultSplitFactor
	}
	return &Selector{
		tree:        tree,
		maxLOD:      cfg.MaxLOD,
		splitFactor: cfg.SplitFactor,
	}
}

// ShouldSplit applies the distance rule. Nodes at the LOD cap never split.
func (s *Selector) ShouldSplit(n *Node, cam Camera) bool {
	if n.Key.LOD >= s.maxLOD {
		return false
	}
	distance := s.tree.transform.Bounds(n).Distance(cam.Position)
	return distance < s.splitFactor*n.Size
}

// Select walks every tree breadth first with an explicit queue, emitting the
// nodes that are visible and fine enough for cam.
func (s *Selector) Select(cam Camera) Selection {
	var sel Selection

	s.queue = append(s.queue[:0], s.tree.Roots()...)
	for head := 0; head < len(s.queue); head++ {
		n := s.queue[head]

		if cam.Frustum != nil && !cam.Frustum.Intersects(s.tree.transform.Bounds(n)) {
			continue
		}

		if s.ShouldSplit(n, cam) {
			n.SubdivideIfNecessary()
			s.queue = append(s.queue, n.Children()...)
			continue
		}

		sel.Nodes = append(sel.Nodes, n)
	}
	clear(s.queue)
	s.queue = s.queue[:0]

	sel.Keys = make([]Key, len(sel.Nodes))
	for i, n := range sel.Nodes {
		sel.Keys[i] = n.Key
	}
	SortKeys(sel.Keys)

	sel.Entering = Difference(sel.Keys, s.previous)
	sel.Leaving = Difference(s.previous, sel.Keys)
	s.previous = sel.Keys

	return sel
}
