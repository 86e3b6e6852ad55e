package scene

import "github.com/pkg/errors"

// ErrCycle is returned when a reparent would make a node its own ancestor.
var ErrCycle = errors.New("reparenting would create a cycle")

// ErrRootImmutable is returned for operations that may not be applied to the root node.
var ErrRootImmutable = errors.New("the root node cannot be moved or removed")

// ErrShear is returned when a node cannot keep its world pose under a new parent because its
// local transform would need shear.
var ErrShear = errors.New("world pose needs shear in the parent frame")

// NewNodeNotFoundError returns an error indicating that a node id is not live in the graph.
func NewNodeNotFoundError(id NodeID) error {
	return errors.Errorf("node with id %d not in scene graph", id)
}

// NewInvalidDimensionsError returns an error for annotation boxes with a non-positive side.
func NewInvalidDimensionsError(x, y, z float64) error {
	return errors.Errorf("box dimensions must all be positive, got (%v, %v, %v)", x, y, z)
}

func newSingularParentError(id NodeID) error {
	return errors.Errorf("node %d has a singular world transform and cannot be a parent", id)
}

func newShearError(child, parent NodeID) error {
	return errors.Wrapf(ErrShear, "cannot attach node %d to node %d", child, parent)
}
