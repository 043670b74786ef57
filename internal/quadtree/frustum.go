package quadtree

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Frustum holds the six clip planes of a view-projection matrix as
// (nx, ny, nz, d) with normals pointing inwards.
type Frustum struct {
	planes [6]mgl64.Vec4
}

// NewFrustum extracts the planes of an OpenGL style (-1..1 depth)
// view-projection matrix.
func NewFrustum(viewProj mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	f := Frustum{planes: [6]mgl64.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}}
	for i, p := range f.planes {
		l := p.Vec3().Len()
		if l > 0 {
			f.planes[i] = p.Mul(1 / l)
		}
	}
	return f
}

// Intersects reports whether any part of b may be inside the frustum.
func (f Frustum) Intersects(b AABB) bool {
	for _, p := range f.planes {
		var v mgl64.Vec3
		for i := 0; i < 3; i++ {
			if p[i] >= 0 {
				v[i] = b.Max[i]
			} else {
				v[i] = b.Min[i]
			}
		}
		if p.Vec3().Dot(v)+p[3] < 0 {
			return false
		}
	}
	return true
}

// Camera is what the selector needs to know about the viewer. A nil Frustum
// disables culling.
type Camera struct {
	Position mgl64.Vec3
	Frustum  *Frustum
}

// NewCamera builds a perspective camera looking from eye to target.
func NewCamera(eye, target mgl64.Vec3, fovY, aspect, near, far float64) Camera {
	view := mgl64.LookAtV(eye, target, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(fovY, aspect, near, far)
	f := NewFrustum(proj.Mul4(view))
	return Camera{Position: eye, Frustum: &f}
}
