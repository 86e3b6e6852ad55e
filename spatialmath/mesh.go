package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Mesh is a set of triangles expressed in the frame of whatever owns it.
type Mesh struct {
	triangles []*Triangle
	bounds    AABB
}

// NewMesh builds a mesh from triangles and caches its bounds.
func NewMesh(triangles []*Triangle) *Mesh {
	bounds := NewEmptyAABB()
	for _, t := range triangles {
		bounds = bounds.Union(t.Bounds())
	}
	return &Mesh{triangles: triangles, bounds: bounds}
}

// NewBoxMesh returns the closed mesh of a box with the given full dimensions centered on the origin.
func NewBoxMesh(dims r3.Vector) *Mesh {
	return NewMesh(NewAABBFromCenter(r3.Vector{}, dims).Triangles())
}

// Triangles returns the triangles of the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Bounds returns the box enclosing every vertex, empty for a mesh without triangles.
func (m *Mesh) Bounds() AABB {
	return m.bounds
}

// Vertices returns every triangle point, in order, including duplicates.
func (m *Mesh) Vertices() []r3.Vector {
	out := make([]r3.Vector, 0, 3*len(m.triangles))
	for _, t := range m.triangles {
		out = append(out, t.p0, t.p1, t.p2)
	}
	return out
}

// Translated returns a copy of the mesh with every point shifted by offset.
func (m *Mesh) Translated(offset r3.Vector) *Mesh {
	tris := make([]*Triangle, 0, len(m.triangles))
	for _, t := range m.triangles {
		tris = append(tris, NewTriangle(t.p0.Add(offset), t.p1.Add(offset), t.p2.Add(offset)))
	}
	return NewMesh(tris)
}
