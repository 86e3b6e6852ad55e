package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Ordered list of unit box vertices, scaled by half size to get the corners of a box.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// The sets of indices of the box vertices that tile the box exterior.
var boxTriangles = [12][3]int{
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 5},
	{0, 4, 5},
	{0, 2, 6},
	{0, 4, 6},
	{7, 1, 3},
	{7, 2, 3},
	{7, 1, 5},
	{7, 4, 5},
	{7, 2, 6},
	{7, 4, 6},
}

// The 12 edges of a box, as pairs of vertex indices (vertices differing in exactly one coordinate).
var boxEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// AABB is an axis-aligned bounding box. The zero value is a box at the origin with no extent;
// use NewEmptyAABB for a box that grows from nothing.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewEmptyAABB returns an inverted box that any expansion will replace.
func NewEmptyAABB() AABB {
	return AABB{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// NewAABBFromCenter returns the box centered on center with the given full dimensions.
func NewAABBFromCenter(center, dims r3.Vector) AABB {
	half := dims.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// IsEmpty reports whether the box encloses nothing.
func (b AABB) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// ExpandByPoint grows the box to include p.
func (b AABB) ExpandByPoint(p r3.Vector) AABB {
	return AABB{
		Min: r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box enclosing both boxes.
func (b AABB) Union(other AABB) AABB {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return b.ExpandByPoint(other.Min).ExpandByPoint(other.Max)
}

// Size returns the extent along each axis, zero for an empty box.
func (b AABB) Size() r3.Vector {
	if b.IsEmpty() {
		return r3.Vector{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the centroid of the box.
func (b AABB) Center() r3.Vector {
	if b.IsEmpty() {
		return r3.Vector{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// MaxDimension returns the largest extent of the box.
func (b AABB) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// ContainsPoint reports whether p lies inside the box, allowing eps of slack on every face.
func (b AABB) ContainsPoint(p r3.Vector, eps float64) bool {
	return p.X >= b.Min.X-eps && p.X <= b.Max.X+eps &&
		p.Y >= b.Min.Y-eps && p.Y <= b.Max.Y+eps &&
		p.Z >= b.Min.Z-eps && p.Z <= b.Max.Z+eps
}

// ContainsBox reports whether other lies fully inside b, comparing all six faces with eps slack.
func (b AABB) ContainsBox(other AABB, eps float64) bool {
	return b.ContainsPoint(other.Min, eps) && b.ContainsPoint(other.Max, eps)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]r3.Vector {
	center := b.Center()
	half := b.Size().Mul(0.5)
	var corners [8]r3.Vector
	for i, v := range boxVertices {
		corners[i] = r3.Vector{X: center.X + v.X*half.X, Y: center.Y + v.Y*half.Y, Z: center.Z + v.Z*half.Z}
	}
	return corners
}

// Edges returns the twelve edges of the box as point pairs.
func (b AABB) Edges() [12][2]r3.Vector {
	corners := b.Corners()
	var edges [12][2]r3.Vector
	for i, e := range boxEdgeIndices {
		edges[i] = [2]r3.Vector{corners[e[0]], corners[e[1]]}
	}
	return edges
}

// Triangles returns the twelve triangles tiling the box exterior.
func (b AABB) Triangles() []*Triangle {
	corners := b.Corners()
	tris := make([]*Triangle, 0, len(boxTriangles))
	for _, tri := range boxTriangles {
		tris = append(tris, NewTriangle(corners[tri[0]], corners[tri[1]], corners[tri[2]]))
	}
	return tris
}

// ApplyMatrix returns the axis-aligned box enclosing b after transformation by m.
func (b AABB) ApplyMatrix(m mgl64.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := NewEmptyAABB()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(TransformPoint(m, c))
	}
	return out
}

// String returns a human readable string that represents the box.
func (b AABB) String() string {
	if b.IsEmpty() {
		return "AABB(empty)"
	}
	s := b.Size()
	c := b.Center()
	return fmt.Sprintf("AABB | Center: X:%.3f, Y:%.3f, Z:%.3f | Dims: X:%.3f, Y:%.3f, Z:%.3f", c.X, c.Y, c.Z, s.X, s.Y, s.Z)
}
