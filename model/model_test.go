package model

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/annotator/fetch"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/pointcloud"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// a 2 x 4 x 6 box spanning [10, 12] x [0, 4] x [-3, 3], written with quads
const boxOBJ = `# box
mtllib box.mtl
o box
v 10 0 -3
v 12 0 -3
v 12 4 -3
v 10 4 -3
v 10 0 3
v 12 0 3
v 12 4 3
v 10 4 3
vn 0 0 1
usemtl grey
s off
f 1 2 3 4
f 5/1/1 6/1/1 7/1/1 8/1/1
f 1 2 6 5
f 4 3 7 8
f -8 -5 -1 -4
f 2 3 7 6
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)
	return fn
}

func TestDecodeOBJ(t *testing.T) {
	obj, err := DecodeOBJ(strings.NewReader(boxOBJ))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(obj.Objects), test.ShouldEqual, 1)
	test.That(t, obj.Objects[0].Name, test.ShouldEqual, "box")
	test.That(t, obj.Warnings, test.ShouldBeEmpty)

	mesh := obj.Mesh()
	test.That(t, len(mesh.Triangles()), test.ShouldEqual, 12)
	b := mesh.Bounds()
	test.That(t, b.Min, test.ShouldResemble, r3.Vector{X: 10, Y: 0, Z: -3})
	test.That(t, b.Max, test.ShouldResemble, r3.Vector{X: 12, Y: 4, Z: 3})

	obj, err = DecodeOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ng second\nv 0 0 1\nf 1 2 4\ncstype bezier\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(obj.Objects), test.ShouldEqual, 2)
	test.That(t, obj.Objects[1].Name, test.ShouldEqual, "second")
	test.That(t, len(obj.Warnings), test.ShouldEqual, 1)

	for _, bad := range []string{
		"",
		"v 0 0\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n",
	} {
		_, err := DecodeOBJ(strings.NewReader(bad))
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestLoadMeshes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.obj", boxOBJ)
	writeFile(t, dir, "b.obj", "v 0 0 0\nv 2 0 0\nv 0 2 0\nv 0 0 2\nf 1 2 3\nf 1 2 4\nf 1 3 4\nf 2 3 4\n")
	writeFile(t, dir, "flat.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	loader := NewLoader(&fetch.FileFetcher{Root: dir}, logging.NewTestLogger(t))

	meshes, err := loader.LoadMeshes(context.Background(), []string{"a.obj", "b.obj"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(meshes), test.ShouldEqual, 2)
	for _, m := range meshes {
		test.That(t, spatialmath.R3VectorAlmostEqual(m.Bounds().Center(), r3.Vector{}, 1e-9), test.ShouldBeTrue)
	}
	test.That(t, meshes[0].Bounds().Size(), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 6})

	_, err = loader.LoadMeshes(context.Background(), []string{"a.obj", "missing.obj"})
	var rle *utils.ResourceLoadError
	test.That(t, errors.As(err, &rle), test.ShouldBeTrue)
	test.That(t, rle.Reason, test.ShouldEqual, utils.LoadFailureNotFound)

	_, err = loader.LoadOBJ(context.Background(), "flat.obj")
	test.That(t, errors.As(err, &rle), test.ShouldBeTrue)
	test.That(t, rle.Reason, test.ShouldEqual, utils.LoadFailureGeometry)

	graph := scene.NewGraph()
	group, err := AddMeshes(graph, graph.Root(), "reference", scene.KindGroup, meshes, DefaultModelColor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(graph.Children(group)), test.ShouldEqual, 2)
	aabb := graph.WorldAABB(group, true)
	test.That(t, aabb.Size(), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 6})
	_, err = AddMeshes(graph, scene.NodeID(99), "nope", scene.KindModel, meshes, DefaultModelColor)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadLAS(t *testing.T) {
	dir := t.TempDir()
	pc := pointcloud.New()
	test.That(t, pc.Set(pointcloud.NewVector(1, 2, 3), pointcloud.NewColoredData(color.NRGBA{G: 255, A: 255})), test.ShouldBeNil)
	test.That(t, pc.Set(pointcloud.NewVector(4, 5, 6), pointcloud.NewColoredData(color.NRGBA{G: 255, A: 255})), test.ShouldBeNil)
	fn := filepath.Join(dir, "ref.las")
	test.That(t, pointcloud.WriteToLASFile(pc, fn), test.ShouldBeNil)

	loader := NewLoader(&fetch.FileFetcher{Root: dir}, logging.NewTestLogger(t))
	pts, err := loader.LoadLAS(context.Background(), fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(pts.Positions), test.ShouldEqual, 2)
	test.That(t, len(pts.Colors), test.ShouldEqual, 2)

	_, err = loader.LoadLAS(context.Background(), filepath.Join(dir, "ref.ply"))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = loader.LoadLAS(context.Background(), filepath.Join(dir, "gone.las"))
	var rle *utils.ResourceLoadError
	test.That(t, errors.As(err, &rle), test.ShouldBeTrue)
	test.That(t, rle.Reason, test.ShouldEqual, utils.LoadFailureNotFound)
}

func TestCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	test.That(t, len(catalog), test.ShouldEqual, 5)
	for i := range catalog {
		test.That(t, catalog[i].Validate("models"), test.ShouldBeNil)
	}
	dish, ok := catalog.Find("Antenna-Dish")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, dish.Dimensions, test.ShouldResemble, r3.Vector{X: 1.8, Y: 1.8, Z: 1.206})
	_, ok = catalog.Find("Antenna-Yagi")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, catalog.Names()[0], test.ShouldEqual, "Poynting_HELI-3")

	bad := Entry{Name: "x", Path: "x.obj", Dimensions: r3.Vector{X: 1, Y: 0, Z: 1}}
	test.That(t, bad.Validate("models.0"), test.ShouldNotBeNil)
	bad = Entry{Name: "x"}
	test.That(t, bad.Validate("models.0"), test.ShouldNotBeNil)
}
