package pointcloud

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/annotator/logging"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()

	p0 := NewVector(0, 0, 0)
	d0 := Data{Intensity: 5}

	test.That(t, pc.Set(p0, d0), test.ShouldBeNil)
	d, got := pc.At(0, 0, 0)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d0)

	_, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeFalse)

	p1 := NewVector(1, 0, 1)
	d1 := Data{Intensity: 17}
	test.That(t, pc.Set(p1, d1), test.ShouldBeNil)

	d, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d1)
	test.That(t, d, test.ShouldNotResemble, d0)

	p2 := NewVector(-1, -2, 1)
	d2 := NewColoredData(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	test.That(t, pc.Set(p2, d2), test.ShouldBeNil)
	d, got = pc.At(-1, -2, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d2)

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		switch p.X {
		case 0:
			test.That(t, p, test.ShouldResemble, p0)
		case 1:
			test.That(t, p, test.ShouldResemble, p1)
		case -1:
			test.That(t, p, test.ShouldResemble, p2)
		}
		count++
		return true
	})
	test.That(t, count, test.ShouldEqual, 3)

	test.That(t, CloudContains(pc, 1, 1, 1), test.ShouldBeFalse)

	// setting an existing point replaces its data without growing the cloud
	test.That(t, pc.Set(p1, Data{Intensity: 1}), test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 3)

	meta := pc.MetaData()
	test.That(t, meta.HasColor, test.ShouldBeTrue)
	test.That(t, meta.HasIntensity, test.ShouldBeTrue)
	bounds := meta.Bounds()
	test.That(t, bounds.Min, test.ShouldResemble, r3.Vector{X: -1, Y: -2, Z: 0})
	test.That(t, bounds.Max, test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 1})

	positions, colors := Flatten(pc)
	test.That(t, len(positions), test.ShouldEqual, 3)
	test.That(t, colors[2], test.ShouldResemble, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	test.That(t, colors[0], test.ShouldResemble, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
}

func TestEmptyMetaData(t *testing.T) {
	meta := New().MetaData()
	test.That(t, meta.Bounds().IsEmpty(), test.ShouldBeTrue)
}

func TestIterateBatches(t *testing.T) {
	pc := NewWithPrealloc(10)
	for i := 0; i < 10; i++ {
		test.That(t, pc.Set(NewVector(float64(i), 0, 0), Data{}), test.ShouldBeNil)
	}
	seen := map[float64]bool{}
	for batch := 0; batch < 3; batch++ {
		pc.Iterate(3, batch, func(p r3.Vector, d Data) bool {
			test.That(t, seen[p.X], test.ShouldBeFalse)
			seen[p.X] = true
			return true
		})
	}
	test.That(t, len(seen), test.ShouldEqual, 10)

	stopped := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		stopped++
		return stopped < 4
	})
	test.That(t, stopped, test.ShouldEqual, 4)
}

func TestLASFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pc := New()
	red := NewColoredData(color.NRGBA{R: 255, A: 255})
	red.Intensity = 900
	test.That(t, pc.Set(NewVector(1, 2, 3), red), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(-4, 5, 0.5), NewColoredData(color.NRGBA{B: 255, A: 255})), test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "cloud.las")
	test.That(t, WriteToLASFile(pc, fn), test.ShouldBeNil)

	read, err := NewFromFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Size(), test.ShouldEqual, 2)
	test.That(t, read.MetaData().HasColor, test.ShouldBeTrue)
	var got Data
	var found bool
	read.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		if p.Sub(r3.Vector{X: 1, Y: 2, Z: 3}).Norm() < 1e-3 {
			got, found = d, true
		}
		return true
	})
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, got.NRGBA(), test.ShouldResemble, color.NRGBA{R: 255, A: 255})
	test.That(t, got.Intensity, test.ShouldEqual, uint16(900))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "cloud.xyz"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
