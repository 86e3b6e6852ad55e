package scene

import (
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/annotator/spatialmath"
)

func TestGraphStructure(t *testing.T) {
	g := NewGraph()
	test.That(t, g.Len(), test.ShouldEqual, 1)

	a, err := g.Add(g.Root(), "a", KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)
	b, err := g.Add(a, "b", KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)
	c, err := g.Add(g.Root(), "c", KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)

	_, err = g.Add(NodeID(99), "bad", KindGroup, nil)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, g.Children(g.Root()), test.ShouldResemble, []NodeID{a, c})
	test.That(t, g.Ancestors(b), test.ShouldResemble, []NodeID{b, a, g.Root()})
	test.That(t, g.IsDescendant(b, a), test.ShouldBeTrue)
	test.That(t, g.IsDescendant(c, a), test.ShouldBeFalse)

	t.Run("cycles are rejected", func(t *testing.T) {
		test.That(t, g.SetParent(a, b), test.ShouldBeError, ErrCycle)
		test.That(t, g.Attach(a, a), test.ShouldBeError, ErrCycle)
		test.That(t, g.SetParent(g.Root(), c), test.ShouldBeError, ErrRootImmutable)
	})

	t.Run("reparent", func(t *testing.T) {
		test.That(t, g.SetParent(b, c), test.ShouldBeNil)
		parent, err := g.Parent(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parent, test.ShouldEqual, c)
		test.That(t, g.Children(a), test.ShouldBeEmpty)
		test.That(t, g.Children(c), test.ShouldResemble, []NodeID{b})
	})

	t.Run("find by name", func(t *testing.T) {
		id, ok := g.FindByName("b")
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, id, test.ShouldEqual, b)
		_, ok = g.FindByName("nope")
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("remove subtree", func(t *testing.T) {
		test.That(t, g.Remove(c), test.ShouldBeNil)
		test.That(t, g.Contains(b), test.ShouldBeFalse)
		test.That(t, g.Contains(c), test.ShouldBeFalse)
		test.That(t, g.Len(), test.ShouldEqual, 2)
		test.That(t, g.Remove(c), test.ShouldNotBeNil)
		test.That(t, g.Remove(g.Root()), test.ShouldBeError, ErrRootImmutable)

		// ids are not reused
		d, err := g.Add(g.Root(), "d", KindGroup, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldNotEqual, c)
	})
}

func TestAttachPreservesWorldPose(t *testing.T) {
	g := NewGraph()
	parent, err := g.Add(g.Root(), "parent", KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(parent, spatialmath.Transform{
		Position: r3.Vector{X: 1, Y: 2, Z: 3},
		Rotation: spatialmath.QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/3),
		Scale:    r3.Vector{X: 2, Y: 2, Z: 2},
	}), test.ShouldBeNil)

	child, err := g.Add(g.Root(), "child", KindMesh, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(child, spatialmath.Transform{
		Position: r3.Vector{X: -4, Y: 0, Z: 1},
		Rotation: spatialmath.QuatFromAxisAngle(r3.Vector{X: 1}, 0.5),
		Scale:    r3.Vector{X: 1, Y: 1, Z: 1},
	}), test.ShouldBeNil)

	before := g.WorldTransform(child)
	test.That(t, g.Attach(child, parent), test.ShouldBeNil)
	p, _ := g.Parent(child)
	test.That(t, p, test.ShouldEqual, parent)
	test.That(t, g.WorldTransform(child).AlmostEqual(before, 1e-9), test.ShouldBeTrue)

	n, _ := g.Node(child)
	test.That(t, n.Local.Scale.X, test.ShouldAlmostEqual, 0.5)

	test.That(t, g.Detach(child), test.ShouldBeNil)
	p, _ = g.Parent(child)
	test.That(t, p, test.ShouldEqual, g.Root())
	test.That(t, g.WorldTransform(child).AlmostEqual(before, 1e-9), test.ShouldBeTrue)

	// a rotated child cannot keep its pose under a stretched parent
	stretched, err := g.Add(g.Root(), "stretched", KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(stretched, spatialmath.Transform{
		Rotation: spatialmath.NewZeroOrientation(),
		Scale:    r3.Vector{X: 1, Y: 3, Z: 1},
	}), test.ShouldBeNil)
	priorLocal := n.Local
	err = g.Attach(child, stretched)
	test.That(t, errors.Is(err, ErrShear), test.ShouldBeTrue)
	p, _ = g.Parent(child)
	test.That(t, p, test.ShouldEqual, g.Root())
	test.That(t, n.Local, test.ShouldResemble, priorLocal)

	// an axis aligned child still can
	plain, err := g.Add(g.Root(), "plain", KindMesh, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(plain, spatialmath.NewTranslation(r3.Vector{X: 3, Y: 1, Z: 0})), test.ShouldBeNil)
	test.That(t, g.Attach(plain, stretched), test.ShouldBeNil)
	pn, _ := g.Node(plain)
	test.That(t, spatialmath.R3VectorAlmostEqual(pn.Local.Position, r3.Vector{X: 3, Y: 1.0 / 3, Z: 0}, 1e-9), test.ShouldBeTrue)
}

func TestWorldAABB(t *testing.T) {
	g := NewGraph()
	group, err := g.Add(g.Root(), "group", KindModel, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(group, spatialmath.NewTranslation(r3.Vector{X: 10, Y: 0, Z: 0})), test.ShouldBeNil)

	_, err = g.Add(group, "a", KindMesh, NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 2, Y: 2, Z: 2}), color.RGBA{}))
	test.That(t, err, test.ShouldBeNil)
	far, err := g.Add(group, "b", KindMesh, NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 2, Y: 2, Z: 2}), color.RGBA{}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(far, spatialmath.NewTranslation(r3.Vector{X: 0, Y: 0, Z: 4})), test.ShouldBeNil)
	_, err = g.Add(group, "helper", KindHelper, NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 100, Y: 100, Z: 100}), color.RGBA{}))
	test.That(t, err, test.ShouldBeNil)

	own := g.WorldAABB(group, false)
	test.That(t, own.IsEmpty(), test.ShouldBeTrue)

	all := g.WorldAABB(group, true)
	test.That(t, spatialmath.R3VectorAlmostEqual(all.Min, r3.Vector{X: 9, Y: -1, Z: -1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(all.Max, r3.Vector{X: 11, Y: 1, Z: 5}, 1e-9), test.ShouldBeTrue)

	test.That(t, g.WorldAABB(NodeID(1000), true).IsEmpty(), test.ShouldBeTrue)
}

func TestBoxAnnotation(t *testing.T) {
	g := NewGraph()
	_, err := g.NewBoxAnnotation(g.Root(), "bad", r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 1}, DefaultAnnotationColor)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = g.NewBoxAnnotation(g.Root(), "bad", r3.Vector{}, r3.Vector{X: 1, Y: -2, Z: 1}, DefaultAnnotationColor)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = g.NewBoxAnnotation(NodeID(42), "orphan", r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, DefaultAnnotationColor)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, g.Len(), test.ShouldEqual, 1)
	test.That(t, g.Annotations(), test.ShouldBeEmpty)

	box, err := g.NewBoxAnnotation(g.Root(), AnnotationName(0), r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 2, Y: 4, Z: 6}, DefaultAnnotationColor)
	test.That(t, err, test.ShouldBeNil)
	n, _ := g.Node(box)
	test.That(t, n.Name, test.ShouldEqual, "ANT_0")
	test.That(t, n.Kind, test.ShouldEqual, KindAnnotation)

	b := g.WorldAABB(box, false)
	test.That(t, spatialmath.R3VectorAlmostEqual(b.Size(), r3.Vector{X: 2, Y: 4, Z: 6}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(b.Center(), r3.Vector{X: 1, Y: 1, Z: 1}, 1e-9), test.ShouldBeTrue)

	children := g.Children(box)
	test.That(t, len(children), test.ShouldEqual, 1)
	pick, _ := g.Node(children[0])
	test.That(t, pick.Visible, test.ShouldBeFalse)
	test.That(t, pick.Pickable, test.ShouldBeTrue)

	owner, ok := g.OwningAnnotation(children[0])
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, owner, test.ShouldEqual, box)
	_, ok = g.OwningAnnotation(g.Root())
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, g.Annotations(), test.ShouldResemble, []NodeID{box})
	_, ok = g.ContainedModel(box)
	test.That(t, ok, test.ShouldBeFalse)
	model, err := g.Add(box, "model", KindModel, nil)
	test.That(t, err, test.ShouldBeNil)
	contained, ok := g.ContainedModel(box)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, contained, test.ShouldEqual, model)
}

func TestGeometryRaycast(t *testing.T) {
	ray := spatialmath.NewRay(r3.Vector{X: 0, Y: 0, Z: 10}, r3.Vector{X: 0, Y: 0, Z: -1})

	mesh := NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 2, Y: 2, Z: 2}), color.RGBA{})
	hits := mesh.Raycast(ray, RaycastParams{})
	test.That(t, len(hits), test.ShouldBeGreaterThanOrEqualTo, 2)

	edges := NewBoxEdges(r3.Vector{X: 2, Y: 2, Z: 2}, DefaultAnnotationColor)
	test.That(t, edges.Raycast(ray, RaycastParams{LineThreshold: 0.5}), test.ShouldBeEmpty)
	test.That(t, edges.Raycast(ray, RaycastParams{LineThreshold: 1.5}), test.ShouldNotBeEmpty)

	pts := &Points{Positions: []r3.Vector{{X: 0.05, Y: 0, Z: 0}, {X: 3, Y: 3, Z: 3}}}
	hits = pts.Raycast(ray, RaycastParams{PointThreshold: 0.07})
	test.That(t, len(hits), test.ShouldEqual, 1)
	test.That(t, hits[0].T, test.ShouldAlmostEqual, 10)
	test.That(t, pts.Bounds().Max, test.ShouldResemble, r3.Vector{X: 3, Y: 3, Z: 3})
}
