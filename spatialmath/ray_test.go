package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestRayAABB(t *testing.T) {
	box := NewAABBFromCenter(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})

	tHit, ok := NewRay(r3.Vector{X: 0, Y: 0, Z: 10}, r3.Vector{X: 0, Y: 0, Z: -1}).IntersectAABB(box)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tHit, test.ShouldAlmostEqual, 9)

	_, ok = NewRay(r3.Vector{X: 0, Y: 0, Z: 10}, r3.Vector{X: 0, Y: 0, Z: 1}).IntersectAABB(box)
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = NewRay(r3.Vector{X: 5, Y: 0, Z: 10}, r3.Vector{X: 0, Y: 0, Z: -1}).IntersectAABB(box)
	test.That(t, ok, test.ShouldBeFalse)

	tHit, ok = NewRay(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0}).IntersectAABB(box)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tHit, test.ShouldEqual, 0)

	_, ok = NewRay(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0}).IntersectAABB(NewEmptyAABB())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRayTriangle(t *testing.T) {
	tri := NewTriangle(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 0, Y: 3, Z: 0}, r3.Vector{X: 3, Y: 0, Z: 0})

	tHit, ok := NewRay(r3.Vector{X: 1, Y: 1, Z: 5}, r3.Vector{X: 0, Y: 0, Z: -1}).IntersectTriangle(tri)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tHit, test.ShouldAlmostEqual, 5)

	// back face
	tHit, ok = NewRay(r3.Vector{X: 1, Y: 1, Z: -2}, r3.Vector{X: 0, Y: 0, Z: 1}).IntersectTriangle(tri)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tHit, test.ShouldAlmostEqual, 2)

	_, ok = NewRay(r3.Vector{X: 3, Y: 3, Z: 5}, r3.Vector{X: 0, Y: 0, Z: -1}).IntersectTriangle(tri)
	test.That(t, ok, test.ShouldBeFalse)

	// parallel
	_, ok = NewRay(r3.Vector{X: 1, Y: 1, Z: 5}, r3.Vector{X: 1, Y: 0, Z: 0}).IntersectTriangle(tri)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRayPointAndSegment(t *testing.T) {
	r := NewRay(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, r.DistanceToPoint(r3.Vector{X: 5, Y: 2, Z: 0}), test.ShouldAlmostEqual, 2)
	// behind the origin clamps to the start
	test.That(t, r.DistanceToPoint(r3.Vector{X: -3, Y: 4, Z: 0}), test.ShouldAlmostEqual, 5)

	tr, onSeg, dist := r.ClosestToSegment(r3.Vector{X: 4, Y: -1, Z: 1}, r3.Vector{X: 4, Y: 1, Z: 1})
	test.That(t, tr, test.ShouldAlmostEqual, 4)
	test.That(t, R3VectorAlmostEqual(onSeg, r3.Vector{X: 4, Y: 0, Z: 1}, 1e-9), test.ShouldBeTrue)
	test.That(t, dist, test.ShouldAlmostEqual, 1)

	// parallel segment
	_, _, dist = r.ClosestToSegment(r3.Vector{X: 2, Y: 3, Z: 0}, r3.Vector{X: 6, Y: 3, Z: 0})
	test.That(t, dist, test.ShouldAlmostEqual, 3)

	test.That(t, SegmentDistanceToPoint(r3.Vector{}, r3.Vector{X: 2, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 1, Z: 0}), test.ShouldAlmostEqual, 1)
}

func TestRayApplyMatrix(t *testing.T) {
	r := NewRay(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0})
	moved := r.ApplyMatrix(mgl64.Translate3D(0, 1, 0).Mul4(mgl64.HomogRotate3DZ(math.Pi / 2)))
	test.That(t, R3VectorAlmostEqual(moved.Origin, r3.Vector{X: 0, Y: 1, Z: 0}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(moved.Direction, r3.Vector{X: 0, Y: 1, Z: 0}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(moved.At(2), r3.Vector{X: 0, Y: 3, Z: 0}, 1e-9), test.ShouldBeTrue)
}
