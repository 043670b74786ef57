package quadtree

import (
	"cmp"
	"fmt"
	"slices"
)

// Key identifies one quad-tree node and therefore one tile of data in every
// layer. It is comparable and safe to use as a map key.
type Key struct {
	TreeID uint32
	X      uint32
	Y      uint32
	LOD    uint32
}

// Parent returns the key one level up. The root (LOD 0) has no parent.
func (k Key) Parent() (Key, bool) {
	if k.LOD == 0 {
		return k, false
	}
	return Key{TreeID: k.TreeID, X: k.X / 2, Y: k.Y / 2, LOD: k.LOD - 1}, true
}

// Subdivide returns the four child keys in the order
// (x0,y0), (x1,y0), (x0,y1), (x1,y1).
func (k Key) Subdivide() [4]Key {
	x, y, lod := k.X*2, k.Y*2, k.LOD+1
	return [4]Key{
		{TreeID: k.TreeID, X: x, Y: y, LOD: lod},
		{TreeID: k.TreeID, X: x + 1, Y: y, LOD: lod},
		{TreeID: k.TreeID, X: x, Y: y + 1, LOD: lod},
		{TreeID: k.TreeID, X: x + 1, Y: y + 1, LOD: lod},
	}
}


// Compare orders keys by tree, x, y and finally lod.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.TreeID, o.TreeID); c != 0 {
		return c
	}
	if c := cmp.Compare(k.X, o.X); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Y, o.Y); c != 0 {
		return c
	}
	return cmp.Compare(k.LOD, o.LOD)
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", k.TreeID, k.LOD, k.X, k.Y)
}

func SortKeys(keys []Key) {
	slices.SortFunc(keys, Key.Compare)
}

// Difference returns the keys of a that are not in b. Both inputs must be
// sorted with SortKeys; the result is sorted as well.
func Difference(a, b []Key) []Key {
	var out []Key
	i, j := 0, 0
	for i < len(a) {
		if j >= len(b) {
			out = append(out, a[i:]...)
			break
		}
		switch c := a[i].Compare(b[j]); {
		case c < 0:
			out = append(out, a[i])
			i++
		case c > 0:
			j++
		default:
			i++
			j++
		}
	}
	return out
}
