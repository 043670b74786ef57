package quadtree

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func descend(n *Node, levels int) *Node {
	for i := 0; i < levels; i++ {
		n.SubdivideIfNecessary()
		n = n.Children()[0]
	}
	return n
}

// covers reports whether a is a strict ancestor of b.
func covers(a, b Key) bool {
	for p, ok := b.Parent(); ok && p.LOD >= a.LOD; p, ok = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}

func center(tree *Tree, n *Node) mgl64.Vec3 {
	b := tree.Transform().Bounds(n)
	return b.Min.Add(b.Max).Mul(0.5)
}

func TestShouldSplitRespectsLODCap(t *testing.T) {
	tree := NewTree(1, PlaneTransform{TreeSize: 1 << 20, MinHeight: -1, MaxHeight: 1})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 15, SplitFactor: 1.5})

	n14 := descend(tree.Roots()[0], 14)
	cam := Camera{Position: center(tree, n14)}

	if !sel.ShouldSplit(n14, cam) {
		t.Fatal("lod 14 node next to the camera must split")
	}

	n15 := descend(n14, 1)
	if sel.ShouldSplit(n15, Camera{Position: center(tree, n15)}) {
		t.Fatal("lod 15 node must never split")
	}
}

func TestZeroMaxLODSelectsRootsOnly(t *testing.T) {
	tree := NewTree(2, PlaneTransform{TreeSize: 100})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 0, SplitFactor: 1.5})

	got := sel.Select(Camera{Position: mgl64.Vec3{50, 0, 50}})
	want := []Key{{TreeID: 0}, {TreeID: 1}}
	if len(got.Keys) != len(want) || got.Keys[0] != want[0] || got.Keys[1] != want[1] {
		t.Fatalf("selected %v, want the two roots", got.Keys)
	}
}

func TestShouldSplitDistanceThreshold(t *testing.T) {
	tree := NewTree(1, PlaneTransform{TreeSize: 100})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 15, SplitFactor: 1.5})
	root := tree.Roots()[0]

	near := Camera{Position: mgl64.Vec3{50, 149, 50}}
	far := Camera{Position: mgl64.Vec3{50, 151, 50}}

	if !sel.ShouldSplit(root, near) {
		t.Fatal("distance 149 < 150 should split")
	}
	if sel.ShouldSplit(root, far) {
		t.Fatal("distance 151 >= 150 should not split")
	}
}

func TestSelectDiffsAgainstPreviousFrame(t *testing.T) {
	tree := NewTree(1, PlaneTransform{TreeSize: 100})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 1})

	first := sel.Select(Camera{Position: mgl64.Vec3{50, 1000, 50}})
	if len(first.Nodes) != 1 || first.Nodes[0].Key != (Key{}) {
		t.Fatalf("far camera selected %v", first.Keys)
	}
	if len(first.Entering) != 1 || len(first.Leaving) != 0 {
		t.Fatalf("first frame entering=%v leaving=%v", first.Entering, first.Leaving)
	}

	second := sel.Select(Camera{Position: mgl64.Vec3{50, 0, 50}})
	if len(second.Nodes) != 4 {
		t.Fatalf("near camera selected %v, want 4 children", second.Keys)
	}
	if len(second.Leaving) != 1 || second.Leaving[0] != (Key{}) {
		t.Fatalf("leaving = %v, want root", second.Leaving)
	}
	if len(second.Entering) != 4 {
		t.Fatalf("entering = %v, want 4 children", second.Entering)
	}

	third := sel.Select(Camera{Position: mgl64.Vec3{50, 0, 50}})
	if len(third.Entering) != 0 || len(third.Leaving) != 0 {
		t.Fatalf("steady frame entering=%v leaving=%v", third.Entering, third.Leaving)
	}
}

func TestSelectEmitsLODFloorNodes(t *testing.T) {
	tree := NewTree(1, PlaneTransform{TreeSize: 1024})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 3})

	got := sel.Select(Camera{Position: mgl64.Vec3{0, 0, 0}})

	sawFloor := false
	for _, n := range got.Nodes {
		if n.Key.LOD > 3 {
			t.Fatalf("selected %v beyond the lod cap", n.Key)
		}
		if n.Key.LOD == 3 {
			sawFloor = true
		}
	}
	if !sawFloor {
		t.Fatal("camera on the terrain should reach the lod cap")
	}
}

func TestSelectionCoversTreeWithoutOverlap(t *testing.T) {
	tree := NewTree(2, PlaneTransform{TreeSize: 1024})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 6})

	got := sel.Select(Camera{Position: mgl64.Vec3{1000, 20, 300}})

	area := 0.0
	for _, n := range got.Nodes {
		area += n.LocalRect.Width() * n.LocalRect.Height()
		for _, m := range got.Nodes {
			if covers(n.Key, m.Key) {
				t.Fatalf("%v and its descendant %v both selected", n.Key, m.Key)
			}
		}
	}
	if area != 2 {
		t.Fatalf("selected area = %v, want 2 full trees", area)
	}
}

func TestSelectCullsOutsideFrustum(t *testing.T) {
	tree := NewTree(1, PlaneTransform{TreeSize: 1000, MinHeight: -10, MaxHeight: 10})
	sel := NewSelector(tree, SelectorConfig{MaxLOD: 4})

	away := NewCamera(mgl64.Vec3{-100, 50, 500}, mgl64.Vec3{-200, 50, 500}, mgl64.DegToRad(60), 1, 1, 10000)
	if got := sel.Select(away); len(got.Nodes) != 0 {
		t.Fatalf("camera facing away selected %d nodes", len(got.Nodes))
	}

	toward := NewCamera(mgl64.Vec3{-100, 50, 500}, mgl64.Vec3{500, 0, 500}, mgl64.DegToRad(60), 1, 1, 10000)
	if got := sel.Select(toward); len(got.Nodes) == 0 {
		t.Fatal("camera facing the terrain selected nothing")
	}
}
