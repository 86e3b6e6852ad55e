package scene

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/annotator/spatialmath"
)

// AnnotationPrefix prefixes the generated names of annotation boxes.
const AnnotationPrefix = "ANT_"

// PickMeshName names the hidden mesh child that makes a box pickable through its faces.
const PickMeshName = "pick_mesh"

// DefaultAnnotationColor is the edge color of annotation boxes.
var DefaultAnnotationColor = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}

// NewBoxAnnotation adds an annotation box with the given full dimensions under parent, centered
// at center in the parent frame. The box draws as twelve edges and carries a hidden mesh child
// so that clicks on its faces select it.
func (g *Graph) NewBoxAnnotation(parent NodeID, name string, center, dims r3.Vector, edgeColor color.RGBA) (NodeID, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return NoNode, NewInvalidDimensionsError(dims.X, dims.Y, dims.Z)
	}
	id, err := g.Add(parent, name, KindAnnotation, NewBoxEdges(dims, edgeColor))
	if err != nil {
		return NoNode, err
	}
	g.nodes[id].Local = spatialmath.NewTranslation(center)
	pick, err := g.Add(id, PickMeshName, KindMesh, NewMeshGeometry(spatialmath.NewBoxMesh(dims), color.RGBA{}))
	if err != nil {
		return NoNode, multierr.Combine(err, g.Remove(id))
	}
	g.nodes[pick].Visible = false
	return id, nil
}

// AnnotationName returns the generated name of the n'th annotation.
func AnnotationName(n int) string {
	return fmt.Sprintf("%s%d", AnnotationPrefix, n)
}

// OwningAnnotation walks from id up through its ancestors and returns the first annotation box.
func (g *Graph) OwningAnnotation(id NodeID) (NodeID, bool) {
	for _, a := range g.Ancestors(id) {
		if g.nodes[a].Kind == KindAnnotation {
			return a, true
		}
	}
	return NoNode, false
}

// Annotations returns the ids of every annotation box in the graph.
func (g *Graph) Annotations() []NodeID {
	var out []NodeID
	g.Traverse(g.root, func(n *Node) bool {
		if n.Kind == KindAnnotation {
			out = append(out, n.ID)
		}
		return true
	})
	return out
}

// ContainedModel returns the first model node directly under an annotation box.
func (g *Graph) ContainedModel(box NodeID) (NodeID, bool) {
	for _, c := range g.Children(box) {
		if n, _ := g.Node(c); n.Kind == KindModel {
			return c, true
		}
	}
	return NoNode, false
}
