package framing

import (
	"errors"
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewport"
)

func newCamera() *viewport.Camera {
	return viewport.NewCamera(viewport.DefaultFov, 1, viewport.DefaultNear, viewport.DefaultFar, viewport.DefaultCameraPosition)
}

func TestPureHelpers(t *testing.T) {
	test.That(t, Distance(10, 60, 1), test.ShouldAlmostEqual, 17.320508, 1e-5)
	test.That(t, Distance(10, 60, 0.5), test.ShouldAlmostEqual, 8.660254, 1e-5)
	near, far := ClipPlanes(10)
	test.That(t, near, test.ShouldAlmostEqual, 0.1)
	test.That(t, far, test.ShouldAlmostEqual, 1000)
}

func TestFrameScenario(t *testing.T) {
	g := scene.NewGraph()
	target, err := g.Add(g.Root(), "ref", scene.KindMesh, scene.NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 10, Y: 4, Z: 2}), color.RGBA{}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.SetLocal(target, spatialmath.NewTranslation(r3.Vector{X: 1, Y: 1, Z: 1})), test.ShouldBeNil)

	cam := newCamera()
	test.That(t, Frame(g, target, cam, Options{}), test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(cam.Target, r3.Vector{X: 1, Y: 1, Z: 1}, 1e-9), test.ShouldBeTrue)
	test.That(t, cam.Distance(), test.ShouldAlmostEqual, 17.320508, 1e-5)
	test.That(t, cam.Position.Y, test.ShouldBeLessThan, 1)
	test.That(t, cam.Near, test.ShouldAlmostEqual, 0.1)
	test.That(t, cam.Far, test.ShouldAlmostEqual, 1000)
	test.That(t, cam.Near, test.ShouldBeLessThan, cam.Far)

	// the camera looks straight along +Y, parallel to its up vector, and still projects
	ndc, ok := cam.Project(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ndc.X, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestFrameOptions(t *testing.T) {
	g := scene.NewGraph()
	wrapper, err := g.Add(g.Root(), "wrapper", scene.KindPointCloud, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = g.Add(wrapper, "cloud", scene.KindPointCloud, &scene.Points{Positions: []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 4, Y: 0, Z: 0}}})
	test.That(t, err, test.ShouldBeNil)
	_, err = g.Add(wrapper, "far away", scene.KindMesh, scene.NewMeshGeometry(spatialmath.NewBoxMesh(r3.Vector{X: 1000, Y: 1000, Z: 1000}), color.RGBA{}))
	test.That(t, err, test.ShouldBeNil)

	cam := newCamera()
	test.That(t, Frame(g, wrapper, cam, Options{FirstChildOnly: true, ZoomFactor: 2, Axis: r3.Vector{Z: 3}}), test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(cam.Target, r3.Vector{X: 2, Y: 0, Z: 0}, 1e-9), test.ShouldBeTrue)
	test.That(t, cam.Distance(), test.ShouldAlmostEqual, Distance(4, 60, 2), 1e-9)
	test.That(t, cam.Position.Z, test.ShouldBeGreaterThan, 0)
	test.That(t, cam.Near, test.ShouldAlmostEqual, 0.04)
}

func TestFramePointSizedTarget(t *testing.T) {
	g := scene.NewGraph()
	target, err := g.Add(g.Root(), "dot", scene.KindPointCloud, &scene.Points{Positions: []r3.Vector{{X: 3, Y: 3, Z: 3}}})
	test.That(t, err, test.ShouldBeNil)

	cam := newCamera()
	test.That(t, Frame(g, target, cam, Options{}), test.ShouldBeNil)
	test.That(t, cam.Distance(), test.ShouldAlmostEqual, Distance(DefaultMinDimension, 60, 1), 1e-9)
	test.That(t, cam.Near, test.ShouldAlmostEqual, 0.01)
	test.That(t, cam.Far, test.ShouldAlmostEqual, 100)
	test.That(t, cam.Near, test.ShouldBeLessThan, cam.Far)
}

func TestFrameMissingTarget(t *testing.T) {
	g := scene.NewGraph()
	cam := newCamera()
	before := *cam

	var mbw *utils.MissingBindingWarning
	err := Frame(g, scene.NodeID(12), cam, Options{})
	test.That(t, errors.As(err, &mbw), test.ShouldBeTrue)

	empty, err := g.Add(g.Root(), "empty", scene.KindGroup, nil)
	test.That(t, err, test.ShouldBeNil)
	err = Frame(g, empty, cam, Options{})
	test.That(t, errors.As(err, &mbw), test.ShouldBeTrue)
	err = Frame(g, empty, cam, Options{FirstChildOnly: true})
	test.That(t, errors.As(err, &mbw), test.ShouldBeTrue)

	test.That(t, cam.Position, test.ShouldResemble, before.Position)
	test.That(t, cam.Near, test.ShouldEqual, before.Near)
	test.That(t, cam.Far, test.ShouldEqual, before.Far)
}

func TestFramingConfig(t *testing.T) {
	cfg := Config{}
	test.That(t, cfg.Validate("framing"), test.ShouldBeNil)
	test.That(t, cfg.MinDimension, test.ShouldEqual, DefaultMinDimension)
	test.That(t, cfg.ZoomFactor, test.ShouldEqual, CenterZoomFactor)
	cfg = Config{MinDimension: -1}
	test.That(t, cfg.Validate("framing"), test.ShouldNotBeNil)
}
