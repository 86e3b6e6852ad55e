package gizmo

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// minScale keeps scale drags from collapsing a target to nothing.
const minScale = 1e-3

// ErrDisposed is returned by operations on a controller that has been torn down.
var ErrDisposed = errors.New("gizmo controller disposed")

// OrbitResource is the shared camera control that must be suspended while dragging and released
// once at teardown.
type OrbitResource interface {
	SetEnabled(enabled bool)
	Dispose() error
}

// Controller owns every gizmo binding. It is used from the interaction goroutine only.
type Controller struct {
	graph  *scene.Graph
	orbit  OrbitResource
	logger logging.Logger

	bindings map[scene.NodeID]*Binding
	active   scene.NodeID
	dragging bool
	disposed bool
}

// NewController returns a controller with no bindings.
func NewController(graph *scene.Graph, orbit OrbitResource, logger logging.Logger) *Controller {
	return &Controller{
		graph:    graph,
		orbit:    orbit,
		logger:   logger,
		bindings: map[scene.NodeID]*Binding{},
		active:   scene.NoNode,
	}
}

func (c *Controller) transition(b *Binding, ev event) error {
	to, err := next(b.State, ev)
	if err != nil {
		return err
	}
	if to != b.State {
		c.logger.Debugw("gizmo transition", "target", b.Target, "from", b.State, "to", to)
	}
	b.State = to
	switch to {
	case BoundSelected:
		b.Gizmo.visible, b.Gizmo.enabled = true, true
	case BoundHidden, Unbound:
		b.Gizmo.visible, b.Gizmo.enabled = false, false
	}
	if n, ok := c.graph.Node(b.Gizmo.helper); ok {
		n.Visible = b.Gizmo.visible
	}
	return nil
}

// Bind creates a hidden gizmo for target. Binding an already bound target does nothing.
func (c *Controller) Bind(target scene.NodeID) error {
	if c.disposed {
		return ErrDisposed
	}
	if _, ok := c.bindings[target]; ok {
		return nil
	}
	n, ok := c.graph.Node(target)
	if !ok {
		return scene.NewNodeNotFoundError(target)
	}
	helper, err := c.graph.Add(c.graph.Root(), "gizmo:"+n.Name, scene.KindHelper, newAxesGeometry(DefaultGizmoSize))
	if err != nil {
		return err
	}
	b := &Binding{Target: target, Gizmo: &TransformGizmo{helper: helper, mode: ModeTranslate}, State: Unbound}
	if err := c.transition(b, evBind); err != nil {
		return err
	}
	c.bindings[target] = b
	c.syncHelper(b)
	return nil
}

// Select makes target's gizmo the only interactive one. The previously active gizmo is hidden
// first and a drag on it is ended.
func (c *Controller) Select(target scene.NodeID) error {
	if c.disposed {
		return ErrDisposed
	}
	b, ok := c.bindings[target]
	if !ok {
		return utils.NewMissingBindingWarning("select", target)
	}
	if c.active != scene.NoNode && c.active != target {
		if c.dragging {
			c.EndDrag()
		}
		if prev, ok := c.bindings[c.active]; ok {
			if err := c.transition(prev, evDeselect); err != nil {
				return err
			}
		}
		c.active = scene.NoNode
	}
	if err := c.transition(b, evSelect); err != nil {
		return err
	}
	c.active = target
	c.syncHelper(b)
	return nil
}

// Deselect hides the active gizmo, if any, and ends any drag in progress.
func (c *Controller) Deselect() {
	if c.dragging {
		c.EndDrag()
	}
	if c.active == scene.NoNode {
		return
	}
	if b, ok := c.bindings[c.active]; ok {
		if err := c.transition(b, evDeselect); err != nil {
			c.logger.Errorw("deselect failed", "target", c.active, "error", err)
		}
	}
	c.active = scene.NoNode
}

// SetMode changes the transform mode of target's gizmo. Without a binding nothing changes and a
// warning is logged and returned.
func (c *Controller) SetMode(target scene.NodeID, mode Mode) error {
	b, ok := c.bindings[target]
	if !ok || c.disposed {
		err := utils.NewMissingBindingWarning("set mode", target)
		c.logger.Warnw("cannot set gizmo mode", "target", target, "mode", mode, "error", err)
		return err
	}
	b.Gizmo.mode = mode
	return nil
}

// Mode returns target's gizmo mode.
func (c *Controller) Mode(target scene.NodeID) (Mode, bool) {
	b, ok := c.bindings[target]
	if !ok {
		return ModeTranslate, false
	}
	return b.Gizmo.mode, true
}

// State returns target's gizmo state; Unbound when there is no binding.
func (c *Controller) State(target scene.NodeID) State {
	if b, ok := c.bindings[target]; ok {
		return b.State
	}
	return Unbound
}

// Binding returns the binding for target.
func (c *Controller) Binding(target scene.NodeID) (*Binding, bool) {
	b, ok := c.bindings[target]
	return b, ok
}

// Active returns the target whose gizmo is selected.
func (c *Controller) Active() (scene.NodeID, bool) {
	return c.active, c.active != scene.NoNode
}

// Bound returns every bound target in id order.
func (c *Controller) Bound() []scene.NodeID {
	ids := lo.Keys(c.bindings)
	slices.Sort(ids)
	return ids
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	return c.dragging
}

// BeginDrag starts dragging the active gizmo and suspends camera orbiting.
func (c *Controller) BeginDrag() error {
	if c.disposed {
		return ErrDisposed
	}
	if c.active == scene.NoNode {
		return utils.NewMissingBindingWarning("begin drag", nil)
	}
	c.dragging = true
	c.orbit.SetEnabled(false)
	return nil
}

// EndDrag finishes a drag and resumes camera orbiting.
func (c *Controller) EndDrag() {
	if c.disposed || !c.dragging {
		return
	}
	c.dragging = false
	c.orbit.SetEnabled(true)
}

// Drag applies delta to the active target according to its gizmo mode: a translation in the
// target's parent frame, roll/pitch/yaw radians, or a relative scale change per axis.
func (c *Controller) Drag(delta r3.Vector) error {
	if !c.dragging {
		return errors.New("no drag in progress")
	}
	b, ok := c.bindings[c.active]
	if !ok {
		return utils.NewMissingBindingWarning("drag", c.active)
	}
	n, ok := c.graph.Node(b.Target)
	if !ok {
		return scene.NewNodeNotFoundError(b.Target)
	}
	switch b.Gizmo.mode {
	case ModeTranslate:
		n.Local.Position = n.Local.Position.Add(delta)
	case ModeRotate:
		rot := (&spatialmath.EulerAngles{Roll: delta.X, Pitch: delta.Y, Yaw: delta.Z}).Quaternion()
		n.Local.Rotation = spatialmath.NormalizeQuat(quat.Mul(rot, n.Local.Rotation))
	case ModeScale:
		s := n.Local.Scale
		n.Local.Scale = r3.Vector{
			X: max(minScale, s.X*(1+delta.X)),
			Y: max(minScale, s.Y*(1+delta.Y)),
			Z: max(minScale, s.Z*(1+delta.Z)),
		}
	}
	c.syncHelper(b)
	return nil
}

// SyncHelpers moves every helper node onto its target's world position.
func (c *Controller) SyncHelpers() {
	for _, b := range c.bindings {
		c.syncHelper(b)
	}
}

func (c *Controller) syncHelper(b *Binding) {
	helper, ok := c.graph.Node(b.Gizmo.helper)
	if !ok || !c.graph.Contains(b.Target) {
		return
	}
	world := c.graph.WorldTransform(b.Target)
	helper.Local = spatialmath.Transform{Position: world.Position, Rotation: world.Rotation, Scale: r3.Vector{X: 1, Y: 1, Z: 1}}
}

// Unbind releases target's gizmo.
func (c *Controller) Unbind(target scene.NodeID) error {
	b, ok := c.bindings[target]
	if !ok {
		return utils.NewMissingBindingWarning("unbind", target)
	}
	if c.active == target {
		c.Deselect()
	}
	delete(c.bindings, target)
	return c.release(b)
}

func (c *Controller) release(b *Binding) error {
	err := c.transition(b, evUnbind)
	if c.graph.Contains(b.Gizmo.helper) {
		err = multierr.Append(err, c.graph.Remove(b.Gizmo.helper))
	}
	return multierr.Append(err, b.Gizmo.Dispose())
}

// DisposeAll detaches and releases every gizmo and then the shared orbit resource, exactly once.
// Errors are combined; the orbit resource is released even when a gizmo fails. Calling it again
// does nothing.
func (c *Controller) DisposeAll() (err error) {
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.dragging = false
	c.active = scene.NoNode
	defer func() {
		err = multierr.Append(err, c.orbit.Dispose())
	}()
	for _, target := range c.Bound() {
		b := c.bindings[target]
		delete(c.bindings, target)
		err = multierr.Append(err, c.release(b))
	}
	return err
}

// Disposed reports whether DisposeAll has run.
func (c *Controller) Disposed() bool {
	return c.disposed
}
