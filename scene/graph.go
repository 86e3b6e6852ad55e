// Package scene holds the scene graph: an arena of nodes addressed by NodeID, with parent and
// child links stored as ids.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"go.viam.com/annotator/spatialmath"
)

// NodeID addresses a node in a Graph. Ids are never reused within a graph.
type NodeID int

// NoNode is the id of no node.
const NoNode NodeID = -1

// Kind classifies nodes for picking and selection.
type Kind int

// The kinds of nodes.
const (
	KindGroup Kind = iota
	KindMesh
	KindAnnotation
	KindModel
	KindPointCloud
	KindHelper
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindAnnotation:
		return "annotation"
	case KindModel:
		return "model"
	case KindPointCloud:
		return "point_cloud"
	case KindHelper:
		return "helper"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a single entry of the graph.
type Node struct {
	ID       NodeID
	Name     string
	Kind     Kind
	Local    spatialmath.Transform
	Geometry Geometry
	// Visible controls rendering only; picking is controlled by Pickable.
	Visible  bool
	Pickable bool

	parent   NodeID
	children []NodeID
}

// Parent returns the id of the node's parent, NoNode for the root or a detached node.
func (n *Node) Parent() NodeID {
	return n.parent
}

// Graph is an arena of nodes. It is not safe for concurrent use; all mutation happens on the
// interaction goroutine.
type Graph struct {
	nodes []*Node
	root  NodeID
	live  int
}

// NewGraph returns a graph containing only a root group.
func NewGraph() *Graph {
	g := &Graph{}
	g.root = g.alloc("root", KindGroup, nil)
	return g
}

func (g *Graph) alloc(name string, kind Kind, geom Geometry) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Local:    spatialmath.NewIdentityTransform(),
		Geometry: geom,
		Visible:  true,
		Pickable: kind != KindHelper,
		parent:   NoNode,
	})
	g.live++
	return id
}

// Root returns the id of the root node.
func (g *Graph) Root() NodeID {
	return g.root
}

// Len returns the number of live nodes, root included.
func (g *Graph) Len() int {
	return g.live
}

// Node returns the node for id, or false if it does not exist.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) || g.nodes[id] == nil {
		return nil, false
	}
	return g.nodes[id], true
}

// Contains reports whether id names a live node.
func (g *Graph) Contains(id NodeID) bool {
	_, ok := g.Node(id)
	return ok
}

// Add creates a node under parent.
func (g *Graph) Add(parent NodeID, name string, kind Kind, geom Geometry) (NodeID, error) {
	p, ok := g.Node(parent)
	if !ok {
		return NoNode, NewNodeNotFoundError(parent)
	}
	id := g.alloc(name, kind, geom)
	g.nodes[id].parent = parent
	p.children = append(p.children, id)
	return id, nil
}

// Parent returns the parent of id.
func (g *Graph) Parent(id NodeID) (NodeID, error) {
	n, ok := g.Node(id)
	if !ok {
		return NoNode, NewNodeNotFoundError(id)
	}
	return n.parent, nil
}

// Children returns a copy of the child ids of id, in insertion order.
func (g *Graph) Children(id NodeID) []NodeID {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	return append([]NodeID(nil), n.children...)
}

// Ancestors returns id followed by each of its ancestors up to the top of its tree.
func (g *Graph) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for cur := id; cur != NoNode; {
		n, ok := g.Node(cur)
		if !ok {
			break
		}
		out = append(out, cur)
		cur = n.parent
	}
	return out
}

// IsDescendant reports whether id is ancestor or lies beneath it.
func (g *Graph) IsDescendant(id, ancestor NodeID) bool {
	for _, a := range g.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Traverse visits id and its subtree depth first. Returning false from fn skips the subtree of
// that node.
func (g *Graph) Traverse(id NodeID, fn func(n *Node) bool) {
	n, ok := g.Node(id)
	if !ok {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		g.Traverse(c, fn)
	}
}

func (g *Graph) unlink(n *Node) {
	if n.parent == NoNode {
		return
	}
	if p, ok := g.Node(n.parent); ok {
		for i, c := range p.children {
			if c == n.ID {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = NoNode
}

// SetParent moves child under parent keeping its local transform, so its world pose follows the
// new parent.
func (g *Graph) SetParent(child, parent NodeID) error {
	c, ok := g.Node(child)
	if !ok {
		return NewNodeNotFoundError(child)
	}
	p, ok := g.Node(parent)
	if !ok {
		return NewNodeNotFoundError(parent)
	}
	if child == g.root {
		return ErrRootImmutable
	}
	if g.IsDescendant(parent, child) {
		return ErrCycle
	}
	if c.parent == parent {
		return nil
	}
	g.unlink(c)
	c.parent = parent
	p.children = append(p.children, child)
	return nil
}

// attachTolerance bounds the per-entry error allowed when a local matrix is rebuilt from its
// decomposition.
const attachTolerance = 1e-6

// Attach moves child under parent and rewrites its local transform so that its world pose is
// unchanged. When that local transform would need shear, as for a child rotated against a
// non-uniformly scaled parent, nothing changes and ErrShear is returned.
func (g *Graph) Attach(child, parent NodeID) error {
	if !g.Contains(child) {
		return NewNodeNotFoundError(child)
	}
	if !g.Contains(parent) {
		return NewNodeNotFoundError(parent)
	}
	if child == g.root {
		return ErrRootImmutable
	}
	if g.IsDescendant(parent, child) {
		return ErrCycle
	}
	world := g.WorldMatrix(child)
	parentWorld := g.WorldMatrix(parent)
	if parentWorld.Det() == 0 {
		return newSingularParentError(parent)
	}
	localMat := parentWorld.Inv().Mul4(world)
	local := spatialmath.DecomposeMatrix(localMat)
	if !local.Matrix().ApproxEqualThreshold(localMat, attachTolerance) {
		return newShearError(child, parent)
	}
	if err := g.SetParent(child, parent); err != nil {
		return err
	}
	g.nodes[child].Local = local
	return nil
}

// Detach moves id directly under the root, keeping its world pose.
func (g *Graph) Detach(id NodeID) error {
	return g.Attach(id, g.root)
}

// Remove deletes id and its whole subtree. The ids are not reused.
func (g *Graph) Remove(id NodeID) error {
	n, ok := g.Node(id)
	if !ok {
		return NewNodeNotFoundError(id)
	}
	if id == g.root {
		return ErrRootImmutable
	}
	g.unlink(n)
	var doomed []NodeID
	g.Traverse(id, func(n *Node) bool {
		doomed = append(doomed, n.ID)
		return true
	})
	for _, d := range doomed {
		g.nodes[d] = nil
		g.live--
	}
	return nil
}

// SetLocal replaces the local transform of id.
func (g *Graph) SetLocal(id NodeID, tf spatialmath.Transform) error {
	n, ok := g.Node(id)
	if !ok {
		return NewNodeNotFoundError(id)
	}
	n.Local = tf
	return nil
}

// WorldMatrix returns the matrix taking id's local coordinates to world coordinates. Unknown
// ids yield the identity.
func (g *Graph) WorldMatrix(id NodeID) mgl64.Mat4 {
	m := mgl64.Ident4()
	for _, a := range g.Ancestors(id) {
		m = g.nodes[a].Local.Matrix().Mul4(m)
	}
	return m
}

// WorldTransform returns the decomposed world pose of id.
func (g *Graph) WorldTransform(id NodeID) spatialmath.Transform {
	return spatialmath.DecomposeMatrix(g.WorldMatrix(id))
}

// WorldAABB returns the world-space box of id's own geometry, or of its whole subtree when
// recursive is set. Helper nodes never contribute.
func (g *Graph) WorldAABB(id NodeID, recursive bool) spatialmath.AABB {
	out := spatialmath.NewEmptyAABB()
	n, ok := g.Node(id)
	if !ok {
		return out
	}
	if !recursive {
		return g.ownWorldAABB(n)
	}
	g.Traverse(id, func(n *Node) bool {
		if n.Kind == KindHelper {
			return false
		}
		out = out.Union(g.ownWorldAABB(n))
		return true
	})
	return out
}

func (g *Graph) ownWorldAABB(n *Node) spatialmath.AABB {
	if n.Geometry == nil {
		return spatialmath.NewEmptyAABB()
	}
	return n.Geometry.Bounds().ApplyMatrix(g.WorldMatrix(n.ID))
}

// SetVisible sets the visibility of id and every descendant.
func (g *Graph) SetVisible(id NodeID, visible bool) {
	g.Traverse(id, func(n *Node) bool {
		n.Visible = visible
		return true
	})
}

// FindByName returns the first node with the given name in depth-first order from the root.
func (g *Graph) FindByName(name string) (NodeID, bool) {
	found := NoNode
	g.Traverse(g.root, func(n *Node) bool {
		if found != NoNode {
			return false
		}
		if n.Name == name {
			found = n.ID
			return false
		}
		return true
	})
	return found, found != NoNode
}
