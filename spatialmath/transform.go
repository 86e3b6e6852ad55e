package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a local translation, rotation and scale, applied scale first, then rotation,
// then translation.
type Transform struct {
	Position r3.Vector
	Rotation quat.Number
	Scale    r3.Vector
}

// NewIdentityTransform returns a transform that leaves points unchanged.
func NewIdentityTransform() Transform {
	return Transform{Rotation: NewZeroOrientation(), Scale: r3.Vector{X: 1, Y: 1, Z: 1}}
}

// NewTranslation returns an identity transform moved to p.
func NewTranslation(p r3.Vector) Transform {
	t := NewIdentityTransform()
	t.Position = p
	return t
}

// Matrix returns the homogeneous matrix of the transform.
func (t Transform) Matrix() mgl64.Mat4 {
	q := NormalizeQuat(t.Rotation)
	rot := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	scale := mgl64.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z)
	trans := mgl64.Translate3D(t.Position.X, t.Position.Y, t.Position.Z)
	return trans.Mul4(rot).Mul4(scale)
}

// IsUniformScale reports whether all three scale components are equal.
func (t Transform) IsUniformScale() bool {
	return t.Scale.X == t.Scale.Y && t.Scale.Y == t.Scale.Z
}

// AlmostEqual compares two transforms component-wise within tol.
func (t Transform) AlmostEqual(other Transform, tol float64) bool {
	return R3VectorAlmostEqual(t.Position, other.Position, tol) &&
		R3VectorAlmostEqual(t.Scale, other.Scale, tol) &&
		QuaternionAlmostEqual(NormalizeQuat(t.Rotation), NormalizeQuat(other.Rotation), tol)
}

func (t Transform) String() string {
	return fmt.Sprintf("{pos: %v, rot: %v, scale: %v}", t.Position, t.Rotation, t.Scale)
}

// DecomposeMatrix splits an affine matrix into translation, rotation and scale. Shear cannot be
// represented by a Transform and is folded into the rotation's nearest fit.
func DecomposeMatrix(m mgl64.Mat4) Transform {
	col := func(i int) r3.Vector {
		c := m.Col(i)
		return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
	}
	cx, cy, cz := col(0), col(1), col(2)
	sx, sy, sz := cx.Norm(), cy.Norm(), cz.Norm()
	// A mirrored basis carries a negative determinant; put the flip on x.
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	out := Transform{
		Position: col(3),
		Scale:    r3.Vector{X: sx, Y: sy, Z: sz},
		Rotation: NewZeroOrientation(),
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return out
	}
	rot := mgl64.Mat3{
		cx.X / sx, cx.Y / sx, cx.Z / sx,
		cy.X / sy, cy.Y / sy, cy.Z / sy,
		cz.X / sz, cz.Y / sz, cz.Z / sz,
	}
	q := mgl64.Mat4ToQuat(rot.Mat4()).Normalize()
	out.Rotation = quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
	return out
}

// TransformPoint applies the homogeneous matrix m to p.
func TransformPoint(m mgl64.Mat4, p r3.Vector) r3.Vector {
	v := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if v[3] != 0 && v[3] != 1 {
		return r3.Vector{X: v[0] / v[3], Y: v[1] / v[3], Z: v[2] / v[3]}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// TransformDirection applies the linear part of m to d.
func TransformDirection(m mgl64.Mat4, d r3.Vector) r3.Vector {
	v := m.Mul4x1(mgl64.Vec4{d.X, d.Y, d.Z, 0})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// MaxScaleOnAxis returns the largest column norm of the linear part of m.
func MaxScaleOnAxis(m mgl64.Mat4) float64 {
	out := 0.
	for i := 0; i < 3; i++ {
		c := m.Col(i)
		out = math.Max(out, math.Sqrt(c[0]*c[0]+c[1]*c[1]+c[2]*c[2]))
	}
	return out
}

// R3ToVec3 converts an r3 vector into an mgl64 vector.
func R3ToVec3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Vec3ToR3 converts an mgl64 vector into an r3 vector.
func Vec3ToR3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
