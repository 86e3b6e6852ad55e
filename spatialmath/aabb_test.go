package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAABB(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		b := NewEmptyAABB()
		test.That(t, b.IsEmpty(), test.ShouldBeTrue)
		test.That(t, b.Size(), test.ShouldResemble, r3.Vector{})
		test.That(t, b.MaxDimension(), test.ShouldEqual, 0)
		test.That(t, b.String(), test.ShouldEqual, "AABB(empty)")
		grown := b.ExpandByPoint(r3.Vector{X: 1, Y: 2, Z: 3})
		test.That(t, grown.IsEmpty(), test.ShouldBeFalse)
		test.That(t, grown.Size(), test.ShouldResemble, r3.Vector{})
		test.That(t, grown.Center(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	})

	t.Run("from center", func(t *testing.T) {
		b := NewAABBFromCenter(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 2, Y: 4, Z: 6})
		test.That(t, b.Min, test.ShouldResemble, r3.Vector{X: 0, Y: -1, Z: -2})
		test.That(t, b.Max, test.ShouldResemble, r3.Vector{X: 2, Y: 3, Z: 4})
		test.That(t, b.MaxDimension(), test.ShouldEqual, 6)
		test.That(t, b.Center(), test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
	})

	t.Run("union", func(t *testing.T) {
		a := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})
		b := NewAABBFromCenter(r3.Vector{X: 5, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})
		u := a.Union(b)
		test.That(t, u.Min, test.ShouldResemble, r3.Vector{X: -1, Y: -1, Z: -1})
		test.That(t, u.Max, test.ShouldResemble, r3.Vector{X: 6, Y: 1, Z: 1})
		test.That(t, a.Union(NewEmptyAABB()), test.ShouldResemble, a)
		test.That(t, NewEmptyAABB().Union(a), test.ShouldResemble, a)
	})

	t.Run("containment", func(t *testing.T) {
		outer := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})
		inner := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 1, Z: 1})
		test.That(t, outer.ContainsBox(inner, 0), test.ShouldBeTrue)
		test.That(t, inner.ContainsBox(outer, 0), test.ShouldBeFalse)
		test.That(t, outer.ContainsPoint(r3.Vector{X: 1 + 1e-7, Y: 0, Z: 0}, 1e-6), test.ShouldBeTrue)
	})

	t.Run("geometry tables", func(t *testing.T) {
		b := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})
		for _, e := range b.Edges() {
			// every edge of a 2x2x2 cube is 2 long and axis aligned
			test.That(t, e[0].Sub(e[1]).Norm(), test.ShouldAlmostEqual, 2)
		}
		tris := b.Triangles()
		test.That(t, len(tris), test.ShouldEqual, 12)
		area := 0.
		for _, tri := range tris {
			area += tri.Area()
		}
		test.That(t, area, test.ShouldAlmostEqual, 24)
	})

	t.Run("apply matrix", func(t *testing.T) {
		b := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})
		rotated := b.ApplyMatrix(mgl64.HomogRotate3DZ(math.Pi / 4))
		test.That(t, rotated.Size().X, test.ShouldAlmostEqual, 2*math.Sqrt2)
		test.That(t, rotated.Size().Z, test.ShouldAlmostEqual, 2)
		moved := b.ApplyMatrix(mgl64.Translate3D(3, 0, 0))
		test.That(t, R3VectorAlmostEqual(moved.Center(), r3.Vector{X: 3, Y: 0, Z: 0}, 1e-9), test.ShouldBeTrue)
	})
}
