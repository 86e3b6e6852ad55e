// Package align fits a model into an annotation box.
package align

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// Result is the uniform scale and the world translation applied to the model.
type Result struct {
	Scale  float64
	Offset r3.Vector
}

// AlignModelIntoBox scales model uniformly so that its bounds fit inside box's own bounds, centers
// it on the box and parents it to the box without changing its world pose. A box that is both
// rotated and scaled unevenly cannot hold the model without shear and yields scene.ErrShear. On
// error the model keeps its previous parent and transform.
func AlignModelIntoBox(graph *scene.Graph, model, box scene.NodeID) (Result, error) {
	modelNode, ok := graph.Node(model)
	if !ok {
		return Result{}, scene.NewNodeNotFoundError(model)
	}
	if !graph.Contains(box) {
		return Result{}, scene.NewNodeNotFoundError(box)
	}
	if graph.IsDescendant(box, model) {
		return Result{}, scene.ErrCycle
	}

	priorParent := modelNode.Parent()
	priorLocal := modelNode.Local
	restore := func() {
		if priorParent != scene.NoNode && priorParent != modelNode.Parent() {
			//nolint:errcheck
			graph.SetParent(model, priorParent)
		}
		modelNode.Local = priorLocal
	}

	if priorParent != graph.Root() {
		if err := graph.SetParent(model, graph.Root()); err != nil {
			return Result{}, err
		}
	}
	modelNode.Local = spatialmath.NewIdentityTransform()

	boxAABB := graph.WorldAABB(box, false)
	modelAABB := graph.WorldAABB(model, true)
	boxSize := boxAABB.Size()
	modelSize := modelAABB.Size()
	if hasZeroAxis(boxSize) {
		restore()
		return Result{}, utils.NewDegenerateGeometryError("box", boxSize)
	}
	if hasZeroAxis(modelSize) {
		restore()
		return Result{}, utils.NewDegenerateGeometryError("model", modelSize)
	}

	s := math.Min(boxSize.X/modelSize.X, math.Min(boxSize.Y/modelSize.Y, boxSize.Z/modelSize.Z))
	modelNode.Local.Scale = r3.Vector{X: s, Y: s, Z: s}

	scaled := graph.WorldAABB(model, true)
	offset := boxAABB.Center().Sub(scaled.Center())
	modelNode.Local.Position = modelNode.Local.Position.Add(offset)

	if err := graph.Attach(model, box); err != nil {
		restore()
		return Result{}, err
	}
	return Result{Scale: s, Offset: offset}, nil
}

func hasZeroAxis(v r3.Vector) bool {
	return v.X <= 0 || v.Y <= 0 || v.Z <= 0
}
