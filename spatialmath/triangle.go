package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Triangle is three points and a normal vector.
type Triangle struct {
	p0     r3.Vector
	p1     r3.Vector
	p2     r3.Vector
	normal r3.Vector
}

// NewTriangle creates a Triangle from three points. The Normal is computed; directionality is
// determined by the order of the points.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three points of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the normal of the triangle, zero when degenerate.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Degenerate reports whether the triangle has no area.
func (t *Triangle) Degenerate() bool {
	return t.normal.Norm2() == 0
}

// Transform returns the triangle with every point moved by m.
func (t *Triangle) Transform(m mgl64.Mat4) *Triangle {
	return NewTriangle(TransformPoint(m, t.p0), TransformPoint(m, t.p1), TransformPoint(m, t.p2))
}

// ClosestPointToCoplanarPoint takes a point, and returns the closest point on the triangle to the given point
// The given point *MUST* be coplanar with the triangle. If it is ensured ahead of time that the point is coplanar, this is faster
// than ClosestPointToPoint.
func (t *Triangle) ClosestPointToCoplanarPoint(pt r3.Vector) r3.Vector {
	// Determine whether point is inside all triangle edges:
	c0 := pt.Sub(t.p0).Cross(t.p1.Sub(t.p0))
	c1 := pt.Sub(t.p1).Cross(t.p2.Sub(t.p1))
	c2 := pt.Sub(t.p2).Cross(t.p0.Sub(t.p2))
	inside := c0.Dot(t.normal) <= 0 && c1.Dot(t.normal) <= 0 && c2.Dot(t.normal) <= 0

	if inside {
		return pt
	}

	// Edge 1:
	refPt := ClosestPointSegmentPoint(t.p0, t.p1, pt)
	bestDist := pt.Sub(refPt).Norm2()

	// Edge 2:
	point2 := ClosestPointSegmentPoint(t.p1, t.p2, pt)
	if distsq := pt.Sub(point2).Norm2(); distsq < bestDist {
		refPt = point2
		bestDist = distsq
	}

	// Edge 3:
	point3 := ClosestPointSegmentPoint(t.p2, t.p0, pt)
	if distsq := pt.Sub(point3).Norm2(); distsq < bestDist {
		return point3
	}
	return refPt
}

// ClosestPointToPoint takes a point, and returns the closest point on the triangle to the given point.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	if t.Degenerate() {
		a := ClosestPointSegmentPoint(t.p0, t.p1, point)
		b := ClosestPointSegmentPoint(t.p1, t.p2, point)
		if a.Sub(point).Norm2() <= b.Sub(point).Norm2() {
			return a
		}
		return b
	}
	coplanar := point.Sub(t.normal.Mul(point.Sub(t.p0).Dot(t.normal)))
	return t.ClosestPointToCoplanarPoint(coplanar)
}

// Bounds returns the axis-aligned box enclosing the triangle.
func (t *Triangle) Bounds() AABB {
	return NewEmptyAABB().ExpandByPoint(t.p0).ExpandByPoint(t.p1).ExpandByPoint(t.p2)
}

// Area calculates the area of a Triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the centroid of a triangle.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3)
}
