// Package octree holds the level-of-detail node hierarchy of a streamed point cloud: node
// bounds, load state and the least-recently-visible cache that decides what to unload.
package octree

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/spatialmath"
)

// NodeType is the hierarchy record type of a node.
type NodeType uint8

// The hierarchy node types. A proxy node stands in for a hierarchy chunk that has not been read
// yet; its byte range points into the hierarchy file rather than the point data.
const (
	NodeNormal NodeType = iota
	NodeLeaf
	NodeProxy
)

func (t NodeType) String() string {
	switch t {
	case NodeNormal:
		return "normal"
	case NodeLeaf:
		return "leaf"
	case NodeProxy:
		return "proxy"
	default:
		return fmt.Sprintf("node_type(%d)", uint8(t))
	}
}

// LoadState tracks a node's point data.
type LoadState int

// The load states.
const (
	Unloaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	return [...]string{"unloaded", "loading", "loaded", "failed"}[s]
}

// Node is one cell of the octree.
type Node struct {
	Name   string
	Level  int
	Bounds spatialmath.AABB
	Parent *Node
	// Children are indexed by octant: bit 4 is +x, bit 2 is +y, bit 1 is +z.
	Children [8]*Node

	Type       NodeType
	ChildMask  uint8
	NumPoints  uint32
	ByteOffset uint64
	ByteSize   uint64

	State     LoadState
	Positions []r3.Vector
	Colors    []color.NRGBA
	// Generation changes whenever the node's data is dropped or requested again, so results of
	// earlier fetches can be recognized and discarded.
	Generation uint64

	// LastVisible is the frame number in which the node was last selected for display.
	LastVisible uint64
}

// NewRoot returns the root node covering bounds.
func NewRoot(bounds spatialmath.AABB) *Node {
	return &Node{Name: "r", Bounds: bounds}
}

// ChildBounds returns the octant of parent with the given index.
func ChildBounds(parent spatialmath.AABB, index int) spatialmath.AABB {
	mid := parent.Center()
	out := parent
	if index&0b100 != 0 {
		out.Min.X = mid.X
	} else {
		out.Max.X = mid.X
	}
	if index&0b010 != 0 {
		out.Min.Y = mid.Y
	} else {
		out.Max.Y = mid.Y
	}
	if index&0b001 != 0 {
		out.Min.Z = mid.Z
	} else {
		out.Max.Z = mid.Z
	}
	return out
}

// AddChild creates (or returns the existing) child at index.
func (n *Node) AddChild(index int) (*Node, error) {
	if index < 0 || index > 7 {
		return nil, errors.Errorf("invalid octant index %d", index)
	}
	if c := n.Children[index]; c != nil {
		return c, nil
	}
	c := &Node{
		Name:   n.Name + strconv.Itoa(index),
		Level:  n.Level + 1,
		Bounds: ChildBounds(n.Bounds, index),
		Parent: n,
	}
	n.Children[index] = c
	return c, nil
}

// HasChildren reports whether any child slot is populated.
func (n *Node) HasChildren() bool {
	for _, c := range n.Children {
		if c != nil {
			return true
		}
	}
	return false
}

// Traverse visits n and its descendants depth first; returning false skips a node's children.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		if c != nil {
			c.Traverse(fn)
		}
	}
}

// Find returns the node with the given name below n.
func (n *Node) Find(name string) (*Node, bool) {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return len(c.Name) < len(name) && name[:len(c.Name)] == c.Name
	})
	return found, found != nil
}

// SetData stores decoded points and marks the node loaded.
func (n *Node) SetData(positions []r3.Vector, colors []color.NRGBA) {
	n.Positions = positions
	n.Colors = colors
	n.State = Loaded
}

// Unload drops the node's points so they can be fetched again later.
func (n *Node) Unload() {
	n.Positions = nil
	n.Colors = nil
	n.State = Unloaded
	n.Generation++
}
