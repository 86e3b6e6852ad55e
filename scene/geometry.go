package scene

import (
	"image/color"

	"github.com/golang/geo/r3"

	"go.viam.com/annotator/spatialmath"
)

// RaycastParams carries the pick tolerances, already expressed in the geometry's local units.
type RaycastParams struct {
	LineThreshold  float64
	PointThreshold float64
}

// GeometryHit is a local-space hit on a geometry. T is the parameter along the local ray.
type GeometryHit struct {
	Point r3.Vector
	T     float64
}

// Geometry is anything that can be attached to a node to give it extent.
type Geometry interface {
	// Bounds returns the local-space bounds; an empty AABB for geometry with nothing in it.
	Bounds() spatialmath.AABB
	// Raycast returns all hits of a local-space ray against the geometry.
	Raycast(ray spatialmath.Ray, params RaycastParams) []GeometryHit
}

// MeshGeometry is a triangle mesh. Mesh hits are exact.
type MeshGeometry struct {
	Mesh  *spatialmath.Mesh
	Color color.RGBA
}

// NewMeshGeometry wraps a mesh.
func NewMeshGeometry(mesh *spatialmath.Mesh, c color.RGBA) *MeshGeometry {
	return &MeshGeometry{Mesh: mesh, Color: c}
}

// Bounds returns the mesh bounds.
func (g *MeshGeometry) Bounds() spatialmath.AABB {
	if g.Mesh == nil {
		return spatialmath.NewEmptyAABB()
	}
	return g.Mesh.Bounds()
}

// Raycast tests every triangle, after a bounding box rejection.
func (g *MeshGeometry) Raycast(ray spatialmath.Ray, _ RaycastParams) []GeometryHit {
	if g.Mesh == nil {
		return nil
	}
	if _, ok := ray.IntersectAABB(g.Mesh.Bounds()); !ok {
		return nil
	}
	var hits []GeometryHit
	for _, tri := range g.Mesh.Triangles() {
		if t, ok := ray.IntersectTriangle(tri); ok {
			hits = append(hits, GeometryHit{Point: ray.At(t), T: t})
		}
	}
	return hits
}

// LineSegments is a set of independent segments, such as the edges of an annotation box.
type LineSegments struct {
	Segments [][2]r3.Vector
	Color    color.RGBA
}

// NewBoxEdges returns the twelve edges of a box centered on the origin.
func NewBoxEdges(dims r3.Vector, c color.RGBA) *LineSegments {
	edges := spatialmath.NewAABBFromCenter(r3.Vector{}, dims).Edges()
	return &LineSegments{Segments: edges[:], Color: c}
}

// Bounds returns the box enclosing all segment endpoints.
func (g *LineSegments) Bounds() spatialmath.AABB {
	b := spatialmath.NewEmptyAABB()
	for _, s := range g.Segments {
		b = b.ExpandByPoint(s[0]).ExpandByPoint(s[1])
	}
	return b
}

// Raycast reports every segment passing within the line threshold of the ray.
func (g *LineSegments) Raycast(ray spatialmath.Ray, params RaycastParams) []GeometryHit {
	var hits []GeometryHit
	for _, s := range g.Segments {
		t, onSeg, dist := ray.ClosestToSegment(s[0], s[1])
		if dist > params.LineThreshold {
			continue
		}
		hits = append(hits, GeometryHit{Point: onSeg, T: t})
	}
	return hits
}

// Points is a point set with optional per-point colors.
type Points struct {
	Positions []r3.Vector
	Colors    []color.NRGBA
	Size      float64
}

// Bounds returns the box enclosing all points.
func (g *Points) Bounds() spatialmath.AABB {
	b := spatialmath.NewEmptyAABB()
	for _, p := range g.Positions {
		b = b.ExpandByPoint(p)
	}
	return b
}

// Raycast reports every point within the point threshold of the ray. The hit is placed on the
// ray, at its closest approach to the point.
func (g *Points) Raycast(ray spatialmath.Ray, params RaycastParams) []GeometryHit {
	return RaycastPoints(ray, g.Positions, params.PointThreshold)
}

// RaycastPoints is the point test shared by every point-backed geometry.
func RaycastPoints(ray spatialmath.Ray, positions []r3.Vector, threshold float64) []GeometryHit {
	var hits []GeometryHit
	for _, p := range positions {
		t := ray.ClosestPointToPoint(p)
		at := ray.At(t)
		if at.Sub(p).Norm() > threshold {
			continue
		}
		hits = append(hits, GeometryHit{Point: at, T: t})
	}
	return hits
}
