package potree

import (
	"image/color"

	"github.com/golang/geo/r3"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
)

// cloudGeometry exposes the currently visible octree nodes to the scene graph.
type cloudGeometry struct {
	handle *Handle
}

// Bounds returns the dataset bounds, whether or not any points are loaded yet.
func (g *cloudGeometry) Bounds() spatialmath.AABB {
	return g.handle.metadata.Bounds()
}

// Raycast tests the points of visible nodes whose bounds the ray passes near.
func (g *cloudGeometry) Raycast(ray spatialmath.Ray, params scene.RaycastParams) []scene.GeometryHit {
	pad := r3.Vector{X: params.PointThreshold, Y: params.PointThreshold, Z: params.PointThreshold}
	var hits []scene.GeometryHit
	for _, n := range g.handle.visible {
		b := spatialmath.AABB{Min: n.Bounds.Min.Sub(pad), Max: n.Bounds.Max.Add(pad)}
		if _, ok := ray.IntersectAABB(b); !ok {
			continue
		}
		hits = append(hits, scene.RaycastPoints(ray, n.Positions, params.PointThreshold)...)
	}
	return hits
}

// EachPoint calls fn for every visible point.
func (g *cloudGeometry) EachPoint(fn func(p r3.Vector, c color.NRGBA)) {
	for _, n := range g.handle.visible {
		for i, p := range n.Positions {
			fn(p, n.Colors[i])
		}
	}
}
