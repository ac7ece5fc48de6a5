// Package scene describes what the xrcube CLI draws: the eye cameras, the
// cubes and the output image.
//
// Scenes are read from TOML or YAML files (see [Load]) or taken from
// [Default], which mirrors the scene of the OpenXR sample host: one spinning
// cube in front of the viewer and a ring of small markers on the floor.
package scene

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xrcube"
)

// Defaults applied to fields a scene file leaves empty.
const (
	DefaultWidth     = 1440
	DefaultHeight    = 936
	DefaultViewCount = 2
	DefaultIPD       = 0.063
	DefaultEyeHeight = 1.6
	DefaultNear      = 0.05
	DefaultFar       = 100
)

// DefaultFov is the full horizontal and vertical field of view in degrees.
var DefaultFov = [2]float32{90, 70}

// DefaultClearColor is the dark slate background of the sample host.
var DefaultClearColor = [4]float32{0.184, 0.310, 0.310, 1}

// ErrInvalidScene is returned when a scene fails validation.
var ErrInvalidScene = errors.New("scene: invalid scene")

// Scene is a complete frame description.
type Scene struct {
	Width      int        `toml:"width" yaml:"width"`
	Height     int        `toml:"height" yaml:"height"`
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`
	ViewCount  int        `toml:"view_count" yaml:"view_count"`

	// ReversedZ puts the far plane at depth 0 for every view.
	ReversedZ bool `toml:"reversed_z" yaml:"reversed_z"`

	Camera Camera `toml:"camera" yaml:"camera"`

	// Views overrides the stereo pair derived from Camera when not empty.
	Views []View `toml:"views" yaml:"views"`

	Cubes []Cube `toml:"cubes" yaml:"cubes"`
}

// Camera is a head position from which a stereo pair is derived.
type Camera struct {
	Position [3]float32 `toml:"position" yaml:"position"`

	// Yaw turns the head about +Y, in degrees.
	Yaw  float32    `toml:"yaw" yaml:"yaw"`
	IPD  float32    `toml:"ipd" yaml:"ipd"`
	Fov  [2]float32 `toml:"fov" yaml:"fov"`
	Near float32    `toml:"near" yaml:"near"`
	Far  float32    `toml:"far" yaml:"far"`
}

// View is one explicit eye. Fov holds left, right, up and down half-angles
// in degrees, left and down negative.
type View struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	Rotation [3]float32 `toml:"rotation" yaml:"rotation"`
	Fov      [4]float32 `toml:"fov" yaml:"fov"`
	Near     float32    `toml:"near" yaml:"near"`
	Far      float32    `toml:"far" yaml:"far"`
}

// Cube is a scaled, rotated cube. Rotation is XYZ Euler degrees and Spin
// adds a rotation about +Y in degrees per second.
type Cube struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	Rotation [3]float32 `toml:"rotation" yaml:"rotation"`
	Scale    [3]float32 `toml:"scale" yaml:"scale"`
	Spin     float32    `toml:"spin" yaml:"spin"`
}

// Default returns the built-in scene.
func Default() *Scene {
	s := &Scene{
		Camera: Camera{Position: [3]float32{0, DefaultEyeHeight, 0}},
		Cubes: []Cube{
			{
				Position: [3]float32{0, DefaultEyeHeight, -1},
				Rotation: [3]float32{30, 45, 0},
				Scale:    [3]float32{0.2, 0.2, 0.2},
				Spin:     45,
			},
		},
	}
	const markers = 8
	for i := 0; i < markers; i++ {
		a := 2 * math.Pi * float64(i) / markers
		s.Cubes = append(s.Cubes, Cube{
			Position: [3]float32{float32(2 * math.Sin(a)), 0, float32(-2 * math.Cos(a))},
			Scale:    [3]float32{0.1, 0.02, 0.1},
		})
	}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills zero fields with the package defaults.
func (s *Scene) ApplyDefaults() {
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.ViewCount == 0 {
		s.ViewCount = DefaultViewCount
	}
	if s.ClearColor == [4]float32{} {
		s.ClearColor = DefaultClearColor
	}
	c := &s.Camera
	if c.IPD == 0 {
		c.IPD = DefaultIPD
	}
	if c.Fov == [2]float32{} {
		c.Fov = DefaultFov
	}
	if c.Near == 0 && c.Far == 0 {
		c.Near, c.Far = DefaultNear, DefaultFar
	}
	for i := range s.Cubes {
		if s.Cubes[i].Scale == [3]float32{} {
			s.Cubes[i].Scale = [3]float32{1, 1, 1}
		}
	}
}

// Validate reports the first problem that would make the scene unrenderable.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidScene, s.Width, s.Height)
	}
	views := s.ViewCount
	if len(s.Views) > 0 {
		views = len(s.Views)
	}
	if views < 1 || views > xrcube.MaxViews {
		return fmt.Errorf("%w: %d views, want 1 to %d", ErrInvalidScene, views, xrcube.MaxViews)
	}
	if len(s.Views) == 0 {
		c := s.Camera
		if c.Fov[0] <= 0 || c.Fov[0] >= 180 || c.Fov[1] <= 0 || c.Fov[1] >= 180 {
			return fmt.Errorf("%w: camera fov %v", ErrInvalidScene, c.Fov)
		}
	}
	for i, v := range s.ViewProjections() {
		if !xrcube.ProjectionValid(v) {
			return fmt.Errorf("%w: view %d has a degenerate frustum (near %g, far %g)",
				ErrInvalidScene, i, v.NearFar.Near, v.NearFar.Far)
		}
	}
	return nil
}

// Viewport returns the full-image rectangle.
func (s *Scene) Viewport() xrcube.Rect2Di {
	return xrcube.Rect2Di{Extent: xrcube.Extent2Di{Width: int32(s.Width), Height: int32(s.Height)}}
}

// ViewProjections returns the eye views in slice order. With no explicit
// views the camera yields a left and right eye IPD apart, or a single
// centered eye when ViewCount is 1.
func (s *Scene) ViewProjections() []xrcube.ViewProjection {
	if len(s.Views) > 0 {
		out := make([]xrcube.ViewProjection, len(s.Views))
		for i, v := range s.Views {
			out[i] = xrcube.ViewProjection{
				Pose: xrcube.Pose{
					Orientation: eulerQuat(v.Rotation),
					Position:    mgl32.Vec3(v.Position),
				},
				Fov: xrcube.Fov{
					AngleLeft:  mgl32.DegToRad(v.Fov[0]),
					AngleRight: mgl32.DegToRad(v.Fov[1]),
					AngleUp:    mgl32.DegToRad(v.Fov[2]),
					AngleDown:  mgl32.DegToRad(v.Fov[3]),
				},
				NearFar: s.nearFar(v.Near, v.Far),
			}
		}
		return out
	}

	c := s.Camera
	head := mgl32.QuatRotate(mgl32.DegToRad(c.Yaw), mgl32.Vec3{0, 1, 0})
	center := mgl32.Vec3(c.Position)
	fov := xrcube.SymmetricFov(c.Fov[0], c.Fov[1])
	nf := s.nearFar(c.Near, c.Far)

	offsets := []float32{0}
	if s.ViewCount >= 2 {
		offsets = []float32{-c.IPD / 2, c.IPD / 2}
	}
	out := make([]xrcube.ViewProjection, len(offsets))
	for i, dx := range offsets {
		out[i] = xrcube.ViewProjection{
			Pose: xrcube.Pose{
				Orientation: head,
				Position:    center.Add(head.Rotate(mgl32.Vec3{dx, 0, 0})),
			},
			Fov:     fov,
			NearFar: nf,
		}
	}
	return out
}

func (s *Scene) nearFar(near, far float32) xrcube.NearFar {
	if s.ReversedZ && near < far {
		near, far = far, near
	}
	return xrcube.NearFar{Near: near, Far: far}
}

// CubesAt returns the cubes posed at time t since the animation started.
func (s *Scene) CubesAt(t time.Duration) []xrcube.Cube {
	secs := float32(t.Seconds())
	out := make([]xrcube.Cube, len(s.Cubes))
	for i, c := range s.Cubes {
		q := eulerQuat(c.Rotation)
		if c.Spin != 0 {
			q = mgl32.QuatRotate(mgl32.DegToRad(c.Spin*secs), mgl32.Vec3{0, 1, 0}).Mul(q)
		}
		out[i] = xrcube.Cube{
			Scale: mgl32.Vec3(c.Scale),
			PoseInScene: xrcube.Pose{
				Orientation: q.Normalize(),
				Position:    mgl32.Vec3(c.Position),
			},
		}
	}
	return out
}

// Request builds a RenderView request for the scene at time t. Targets and
// formats are left for the caller.
func (s *Scene) Request(t time.Duration) *xrcube.ViewRequest {
	return &xrcube.ViewRequest{
		Viewport:   s.Viewport(),
		ClearColor: s.ClearColor,
		Views:      s.ViewProjections(),
		Cubes:      s.CubesAt(t),
	}
}

func eulerQuat(deg [3]float32) mgl32.Quat {
	if deg == [3]float32{} {
		return mgl32.QuatIdent()
	}
	return mgl32.AnglesToQuat(
		mgl32.DegToRad(deg[0]),
		mgl32.DegToRad(deg[1]),
		mgl32.DegToRad(deg[2]),
		mgl32.XYZ,
	)
}
