package octree

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/annotator/spatialmath"
)

var unitBounds = spatialmath.AABB{Min: r3.Vector{X: 0, Y: 0, Z: 0}, Max: r3.Vector{X: 2, Y: 2, Z: 2}}

func TestChildBounds(t *testing.T) {
	for _, tc := range []struct {
		index int
		min   r3.Vector
	}{
		{0b000, r3.Vector{X: 0, Y: 0, Z: 0}},
		{0b001, r3.Vector{X: 0, Y: 0, Z: 1}},
		{0b010, r3.Vector{X: 0, Y: 1, Z: 0}},
		{0b100, r3.Vector{X: 1, Y: 0, Z: 0}},
		{0b111, r3.Vector{X: 1, Y: 1, Z: 1}},
	} {
		b := ChildBounds(unitBounds, tc.index)
		test.That(t, b.Min, test.ShouldResemble, tc.min)
		test.That(t, b.Size(), test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
	}
}

func TestNodeHierarchy(t *testing.T) {
	root := NewRoot(unitBounds)
	c4, err := root.AddChild(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c4.Name, test.ShouldEqual, "r4")
	test.That(t, c4.Level, test.ShouldEqual, 1)
	test.That(t, c4.Parent, test.ShouldEqual, root)

	again, err := root.AddChild(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldEqual, c4)

	_, err = root.AddChild(8)
	test.That(t, err, test.ShouldNotBeNil)

	c41, err := c4.AddChild(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c41.Name, test.ShouldEqual, "r41")
	test.That(t, c41.Bounds.Min, test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 0.5})

	found, ok := root.Find("r41")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, found, test.ShouldEqual, c41)
	_, ok = root.Find("r7")
	test.That(t, ok, test.ShouldBeFalse)

	var names []string
	root.Traverse(func(n *Node) bool {
		names = append(names, n.Name)
		return true
	})
	test.That(t, names, test.ShouldResemble, []string{"r", "r4", "r41"})
	test.That(t, root.HasChildren(), test.ShouldBeTrue)
	test.That(t, c41.HasChildren(), test.ShouldBeFalse)
	test.That(t, NodeProxy.String(), test.ShouldEqual, "proxy")
}

func loadedNode(name string, points int) *Node {
	n := &Node{Name: name}
	n.SetData(make([]r3.Vector, points), nil)
	return n
}

func TestCacheEviction(t *testing.T) {
	var evicted []string
	c := NewCache(100, func(n *Node) { evicted = append(evicted, n.Name) })

	a, b, d := loadedNode("a", 40), loadedNode("b", 40), loadedNode("d", 40)
	c.Touch(a)
	c.Touch(b)
	test.That(t, c.NumPoints(), test.ShouldEqual, 80)
	test.That(t, c.Evict(), test.ShouldEqual, 0)

	// a is seen again, so b becomes the oldest
	c.Touch(a)
	c.Touch(d)
	test.That(t, c.NumPoints(), test.ShouldEqual, 120)
	test.That(t, c.Evict(), test.ShouldEqual, 1)
	test.That(t, evicted, test.ShouldResemble, []string{"b"})
	test.That(t, b.State, test.ShouldEqual, Unloaded)
	test.That(t, b.Positions, test.ShouldBeNil)
	test.That(t, b.Generation, test.ShouldEqual, uint64(1))
	test.That(t, c.NumPoints(), test.ShouldEqual, 80)
	test.That(t, c.Len(), test.ShouldEqual, 2)

	c.Remove(a)
	test.That(t, a.State, test.ShouldEqual, Unloaded)
	test.That(t, c.NumPoints(), test.ShouldEqual, 40)

	c.Clear()
	test.That(t, c.Len(), test.ShouldEqual, 0)
	test.That(t, c.NumPoints(), test.ShouldEqual, 0)
	test.That(t, d.State, test.ShouldEqual, Unloaded)
}
