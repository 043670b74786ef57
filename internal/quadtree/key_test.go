package quadtree

import (
	"reflect"
	"testing"
)

func TestKeyParentSubdivideRoundTrip(t *testing.T) {
	k := Key{TreeID: 3, X: 5, Y: 9, LOD: 4}

	for i, child := range k.Subdivide() {
		if child.LOD != k.LOD+1 {
			t.Fatalf("child %d lod = %d, want %d", i, child.LOD, k.LOD+1)
		}
		parent, ok := child.Parent()
		if !ok || parent != k {
			t.Fatalf("child %d parent = %v (%v), want %v", i, parent, ok, k)
		}
	}
}

func TestKeySubdivideOrder(t *testing.T) {
	got := Key{X: 1, Y: 2, LOD: 3}.Subdivide()
	want := [4]Key{
		{X: 2, Y: 4, LOD: 4},
		{X: 3, Y: 4, LOD: 4},
		{X: 2, Y: 5, LOD: 4},
		{X: 3, Y: 5, LOD: 4},
	}
	if got != want {
		t.Fatalf("Subdivide() = %v, want %v", got, want)
	}
}

func TestRootHasNoParent(t *testing.T) {
	if _, ok := (Key{TreeID: 1}).Parent(); ok {
		t.Fatal("lod 0 key reported a parent")
	}
}

func TestKeyCompareIsTotal(t *testing.T) {
	keys := []Key{
		{TreeID: 1},
		{X: 1, Y: 0, LOD: 1},
		{X: 0, Y: 1, LOD: 1},
		{X: 0, Y: 0, LOD: 1},
		{},
	}
	SortKeys(keys)

	want := []Key{
		{},
		{X: 0, Y: 0, LOD: 1},
		{X: 0, Y: 1, LOD: 1},
		{X: 1, Y: 0, LOD: 1},
		{TreeID: 1},
	}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("sorted = %v, want %v", keys, want)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1].Compare(keys[i]) >= 0 {
			t.Fatalf("%v should be less than %v", keys[i-1], keys[i])
		}
	}
}

func TestDifference(t *testing.T) {
	a := []Key{{X: 1}, {X: 2}, {X: 3}, {X: 5}}
	b := []Key{{X: 0}, {X: 2}, {X: 5}, {X: 7}}

	if got, want := Difference(a, b), []Key{{X: 1}, {X: 3}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("a\\b = %v, want %v", got, want)
	}
	if got, want := Difference(b, a), []Key{{X: 0}, {X: 7}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("b\\a = %v, want %v", got, want)
	}
	if got := Difference(nil, a); got != nil {
		t.Fatalf("empty difference = %v", got)
	}
	if got := Difference(a, nil); !reflect.DeepEqual(got, a) {
		t.Fatalf("a\\nil = %v, want %v", got, a)
	}
}
