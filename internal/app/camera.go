package app

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jaennil/guide_helper/backend/terrain/internal/quadtree"
	"gopkg.in/yaml.v3"
)

const (
	defaultFOV     = 60.0
	cameraAspect   = 16.0 / 9.0
	cameraNear     = 1.0
	circleSegments = 64
)

type Waypoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (w Waypoint) vec() mgl64.Vec3 {
	return mgl64.Vec3{w.X, w.Y, w.Z}
}

// CameraPath is the polyline the demo camera flies along.
type CameraPath struct {
	// FOV is the vertical field of view in degrees.
	FOV       float64    `yaml:"fov"`
	Loop      bool       `yaml:"loop"`
	Waypoints []Waypoint `yaml:"waypoints"`
}

func LoadCameraPath(path string) (*CameraPath, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera path: %w", err)
	}

	var p CameraPath
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse camera path %s: %w", path, err)
	}
	if len(p.Waypoints) < 2 {
		return nil, errors.New("camera path needs at least two waypoints")
	}
	if p.FOV <= 0 {
		p.FOV = defaultFOV
	}
	return &p, nil
}

// CirclePath orbits the middle of the terrain at a fixed altitude.
func CirclePath(center mgl64.Vec3, radius, altitude float64) *CameraPath {
	p := &CameraPath{FOV: defaultFOV, Loop: true}
	for i := 0; i < circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		p.Waypoints = append(p.Waypoints, Waypoint{
			X: center.X() + radius*math.Cos(a),
			Y: altitude,
			Z: center.Z() + radius*math.Sin(a),
		})
	}
	return p
}

// Flyer moves along a camera path at constant speed.
type Flyer struct {
	points  []mgl64.Vec3
	lengths []float64
	total   float64
	loop    bool
	speed   float64
	fov     float64
	far     float64
}

func NewFlyer(p *CameraPath, speed, far float64) *Flyer {
	f := &Flyer{
		loop:  p.Loop,
		speed: speed,
		fov:   mgl64.DegToRad(p.FOV),
		far:   far,
	}
	for _, w := range p.Waypoints {
		f.points = append(f.points, w.vec())
	}
	if f.loop {
		f.points = append(f.points, f.points[0])
	}
	for i := 1; i < len(f.points); i++ {
		l := f.points[i].Sub(f.points[i-1]).Len()
		f.lengths = append(f.lengths, l)
		f.total += l
	}
	return f
}

// Position returns the eye position and the horizontal heading after
// flying for elapsed.
func (f *Flyer) Position(elapsed time.Duration) (mgl64.Vec3, mgl64.Vec3) {
	d := f.speed * elapsed.Seconds()
	switch {
	case f.total == 0:
		return f.points[0], mgl64.Vec3{1, 0, 0}
	case f.loop:
		d = math.Mod(d, f.total)
	case d >= f.total:
		d = f.total
	}

	for i, l := range f.lengths {
		if d <= l || i == len(f.lengths)-1 {
			a, b := f.points[i], f.points[i+1]
			t := 0.0
			if l > 0 {
				t = min(d/l, 1)
			}
			return a.Add(b.Sub(a).Mul(t)), heading(a, b)
		}
		d -= l
	}
	return f.points[len(f.points)-1], mgl64.Vec3{1, 0, 0}
}

func heading(a, b mgl64.Vec3) mgl64.Vec3 {
	h := mgl64.Vec3{b.X() - a.X(), 0, b.Z() - a.Z()}
	if h.Len() == 0 {
		return mgl64.Vec3{1, 0, 0}
	}
	return h.Normalize()
}

// Camera looks ahead and down at the ground from the current position.
func (f *Flyer) Camera(elapsed time.Duration) quadtree.Camera {
	eye, dir := f.Position(elapsed)
	ahead := math.Max(eye.Y(), 1)
	target := mgl64.Vec3{eye.X() + dir.X()*ahead, 0, eye.Z() + dir.Z()*ahead}
	return quadtree.NewCamera(eye, target, f.fov, cameraAspect, cameraNear, f.far)
}
