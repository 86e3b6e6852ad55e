package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Ray is a half line starting at Origin. Direction is kept normalized by NewRay.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// NewRay returns a ray with a normalized direction.
func NewRay(origin, direction r3.Vector) Ray {
	if direction.Norm2() != 0 {
		direction = direction.Normalize()
	}
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ApplyMatrix transforms the ray by m. The direction is not renormalized, so parameters along
// the returned ray stay comparable with those of the original.
func (r Ray) ApplyMatrix(m mgl64.Mat4) Ray {
	return Ray{Origin: TransformPoint(m, r.Origin), Direction: TransformDirection(m, r.Direction)}
}

// IntersectAABB returns the entry parameter of the ray into b using the slab method. A ray
// starting inside b reports t = 0.
func (r Ray) IntersectAABB(b AABB) (float64, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tmin, tmax := math.Inf(-1), math.Inf(1)
	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	return math.Max(tmin, 0), true
}

// IntersectTriangle returns the parameter where the ray crosses tri, from either side
// (Möller-Trumbore).
func (r Ray) IntersectTriangle(tri *Triangle) (float64, bool) {
	e1 := tri.p1.Sub(tri.p0)
	e2 := tri.p2.Sub(tri.p0)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < floatEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(tri.p0)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// ClosestPointToPoint returns the ray parameter of the point on the ray nearest to p, clamped
// to the ray start.
func (r Ray) ClosestPointToPoint(p r3.Vector) float64 {
	dd := r.Direction.Norm2()
	if dd == 0 {
		return 0
	}
	return math.Max(0, p.Sub(r.Origin).Dot(r.Direction)/dd)
}

// DistanceToPoint returns the distance from p to the nearest point of the ray.
func (r Ray) DistanceToPoint(p r3.Vector) float64 {
	return r.At(r.ClosestPointToPoint(p)).Sub(p).Norm()
}

// ClosestToSegment returns the ray parameter and the segment point at which the ray and the
// segment [a, b] come closest, and the distance between them.
func (r Ray) ClosestToSegment(a, b r3.Vector) (t float64, onSegment r3.Vector, dist float64) {
	d1 := r.Direction
	d2 := b.Sub(a)
	w := r.Origin.Sub(a)
	aa := d1.Dot(d1)
	bb := d1.Dot(d2)
	cc := d2.Dot(d2)
	dd := d1.Dot(w)
	ee := d2.Dot(w)

	var s float64
	denom := aa*cc - bb*bb
	if aa == 0 {
		s = 0
		if cc > 0 {
			s = math.Max(0, math.Min(1, ee/cc))
		}
	} else if cc == 0 || math.Abs(denom) < floatEpsilon {
		// parallel or point segment; pick the segment end nearest the ray
		best := math.Inf(1)
		for _, cand := range []float64{0, 1} {
			pt := a.Add(d2.Mul(cand))
			if dp := r.DistanceToPoint(pt); dp < best {
				best = dp
				s = cand
			}
		}
	} else {
		t = (bb*ee - cc*dd) / denom
		if t < 0 {
			t = 0
		}
		s = (bb*t + ee) / cc
		s = math.Max(0, math.Min(1, s))
	}
	onSegment = a.Add(d2.Mul(s))
	t = r.ClosestPointToPoint(onSegment)
	dist = r.At(t).Sub(onSegment).Norm()
	return t, onSegment, dist
}
