package xrcube

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxViews is the number of view slots the cube shader addresses.
const MaxViews = 2

// Pose is a rigid transform: orientation followed by translation.
type Pose struct {
	Orientation mgl32.Quat
	Position    mgl32.Vec3
}

// IdentityPose returns the pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: mgl32.QuatIdent()}
}

// Fov holds the four half-angles of an asymmetric frustum in radians.
// Left and Down are negative for a frustum centered on the view axis.
type Fov struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// SymmetricFov returns a frustum with the given full horizontal and vertical
// angles in degrees.
func SymmetricFov(horizontalDeg, verticalDeg float32) Fov {
	h := mgl32.DegToRad(horizontalDeg) / 2
	v := mgl32.DegToRad(verticalDeg) / 2
	return Fov{AngleLeft: -h, AngleRight: h, AngleUp: v, AngleDown: -v}
}

// NearFar holds the clip plane distances of a view. Near greater than Far
// requests reversed-Z.
type NearFar struct {
	Near float32
	Far  float32
}

// ViewProjection describes one eye: where it is, what it sees, and its clip
// range.
type ViewProjection struct {
	Pose    Pose
	Fov     Fov
	NearFar NearFar
}

// Cube is a unit cube scaled and placed in the scene.
type Cube struct {
	Scale       mgl32.Vec3
	PoseInScene Pose
}

// Offset2Di is an integer 2D offset in pixels.
type Offset2Di struct {
	X, Y int32
}

// Extent2Di is an integer 2D size in pixels.
type Extent2Di struct {
	Width, Height int32
}

// Rect2Di is an integer rectangle in pixels.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// ReversedZ reports whether nf selects reversed-Z depth.
func ReversedZ(nf NearFar) bool {
	return nf.Near > nf.Far
}

// DepthClearValue returns the depth clear value for nf: 0 for reversed-Z,
// 1 otherwise.
func DepthClearValue(nf NearFar) float32 {
	if ReversedZ(nf) {
		return 0
	}
	return 1
}

// PoseMatrix returns the local-to-parent matrix of p.
func PoseMatrix(p Pose) mgl32.Mat4 {
	q := p.Orientation.Normalize()
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).Mul4(q.Mat4())
}

// InvertedPoseMatrix returns the parent-to-local matrix of p, the exact
// rigid inverse of PoseMatrix.
func InvertedPoseMatrix(p Pose) mgl32.Mat4 {
	q := p.Orientation.Normalize().Conjugate()
	return q.Mat4().Mul4(mgl32.Translate3D(-p.Position[0], -p.Position[1], -p.Position[2]))
}

// ComposeProjectionMatrix builds a right-handed off-center perspective
// projection with depth mapped to [0, 1].
//
// The frustum edges at the near plane are Near*tan(angle). Depth maps Near to
// 0 and Far to 1, so passing Near > Far yields reversed-Z. Matrices in this
// package use column vectors and column-major storage, which is the
// transpose of the row-vector form and the layout WGSL expects.
func ComposeProjectionMatrix(fov Fov, nf NearFar) mgl32.Mat4 {
	n := nf.Near
	left := n * tan32(fov.AngleLeft)
	right := n * tan32(fov.AngleRight)
	down := n * tan32(fov.AngleDown)
	up := n * tan32(fov.AngleUp)

	width := right - left
	height := up - down
	fRange := nf.Far / (nf.Near - nf.Far)

	return mgl32.Mat4FromRows(
		mgl32.Vec4{2 * n / width, 0, (left + right) / width, 0},
		mgl32.Vec4{0, 2 * n / height, (up + down) / height, 0},
		mgl32.Vec4{0, 0, fRange, fRange * n},
		mgl32.Vec4{0, 0, -1, 0},
	)
}

// ProjectionValid reports whether v composes to a finite projection. Equal
// near and far planes, a zero near plane and a field of view with no width
// or height do not.
func ProjectionValid(v ViewProjection) bool {
	for _, x := range ComposeProjectionMatrix(v.Fov, v.NearFar) {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// ViewProjectionMatrix returns projection × inverse(pose) for one view.
func ViewProjectionMatrix(v ViewProjection) mgl32.Mat4 {
	return ComposeProjectionMatrix(v.Fov, v.NearFar).Mul4(InvertedPoseMatrix(v.Pose))
}

// ModelTransform returns pose × scale for a cube.
func ModelTransform(c Cube) mgl32.Mat4 {
	return PoseMatrix(c.PoseInScene).Mul4(mgl32.Scale3D(c.Scale[0], c.Scale[1], c.Scale[2]))
}

func tan32(a float32) float32 {
	return float32(math.Tan(float64(a)))
}
