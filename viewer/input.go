package viewer

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/framing"
	"go.viam.com/annotator/gizmo"
	"go.viam.com/annotator/picking"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/utils"
)

// Placement is what a double click on the reference adds.
type Placement int

// The placement modes.
const (
	PlacementNone Placement = iota
	PlacementCube
	PlacementModel
)

func (p Placement) String() string {
	switch p {
	case PlacementNone:
		return "none"
	case PlacementCube:
		return "cube"
	case PlacementModel:
		return "model"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// Keys handled by Key.
const (
	KeyTranslate = "t"
	KeyRotate    = "r"
	KeyScale     = "s"
	KeyEscape    = "Escape"
	KeyGrow      = "+"
	KeyShrink    = "-"
	KeyRecenter  = "c"
)

type pointerState struct {
	down     bool
	orbiting bool
	x, y     float64
}

func (v *Viewer) rect() picking.Rect {
	w, h := v.manager.Size()
	return picking.Rect{Width: float64(w), Height: float64(h)}
}

// PointerDown selects the annotation under the pixel, starts dragging it when it is already
// selected, or starts orbiting when nothing is hit. Coordinates are relative to the viewport.
func (v *Viewer) PointerDown(x, y float64) {
	v.pointer = pointerState{down: true, x: x, y: y}
	graph := v.Graph()
	for _, hit := range v.picker.Pick(x, y, v.rect(), v.manager.Camera(), graph) {
		box, ok := graph.OwningAnnotation(hit.Node)
		if !ok {
			continue
		}
		if active, ok := v.gizmos.Active(); ok && active == box {
			if err := v.gizmos.BeginDrag(); err != nil {
				v.logger.Debugw("cannot drag", "target", box, "error", err)
			}
			return
		}
		v.selectBox(box)
		return
	}
	v.pointer.orbiting = true
}

// PointerMove drags the selected annotation or orbits the camera, depending on what the last
// PointerDown started.
func (v *Viewer) PointerMove(x, y float64) {
	if !v.pointer.down {
		return
	}
	dx, dy := x-v.pointer.x, y-v.pointer.y
	fromX, fromY := v.pointer.x, v.pointer.y
	v.pointer.x, v.pointer.y = x, y
	_, height := v.manager.Size()
	switch {
	case v.gizmos.Dragging():
		delta, ok := v.dragDelta(fromX, fromY, x, y, dx, dy)
		if !ok {
			return
		}
		if err := v.gizmos.Drag(delta); err != nil {
			v.logger.Debugw("drag failed", "error", err)
		}
	case v.pointer.orbiting:
		v.manager.Orbit().Rotate(dx, dy, height)
	}
}

// dragDelta converts a pointer motion into the delta for the active gizmo's mode. Translation
// follows the pointer on the plane through the target facing the camera.
func (v *Viewer) dragDelta(fromX, fromY, x, y, dx, dy float64) (r3.Vector, bool) {
	target, ok := v.gizmos.Active()
	if !ok {
		return r3.Vector{}, false
	}
	mode, _ := v.gizmos.Mode(target)
	_, height := v.manager.Size()
	if height <= 0 {
		return r3.Vector{}, false
	}
	switch mode {
	case gizmo.ModeRotate:
		k := 2 * math.Pi / float64(height)
		return r3.Vector{X: dy * k, Y: dx * k}, true
	case gizmo.ModeScale:
		s := -dy / float64(height) * 2
		return r3.Vector{X: s, Y: s, Z: s}, true
	default:
		center := v.Graph().WorldTransform(target).Position
		from, ok1 := v.onViewPlane(fromX, fromY, center)
		to, ok2 := v.onViewPlane(x, y, center)
		if !ok1 || !ok2 {
			return r3.Vector{}, false
		}
		return to.Sub(from), true
	}
}

// onViewPlane intersects the pixel's ray with the plane through point facing the camera.
func (v *Viewer) onViewPlane(px, py float64, point r3.Vector) (r3.Vector, bool) {
	ndcX, ndcY, ok := picking.NormalizedDeviceCoords(px, py, v.rect())
	if !ok {
		return r3.Vector{}, false
	}
	cam := v.manager.Camera()
	ray := picking.RayFromCamera(ndcX, ndcY, cam)
	normal := cam.Direction()
	denom := ray.Direction.Dot(normal)
	if math.Abs(denom) < 1e-9 {
		return r3.Vector{}, false
	}
	t := point.Sub(ray.Origin).Dot(normal) / denom
	return ray.At(t), true
}

// PointerUp ends any drag or orbit.
func (v *Viewer) PointerUp() {
	v.pointer = pointerState{}
	v.gizmos.EndDrag()
}

// Wheel zooms the camera.
func (v *Viewer) Wheel(deltaY float64) {
	v.manager.Zoom(deltaY)
}

// DoubleClick places an annotation on the reference surface under the pixel when a placement
// mode is on, and clears the selection otherwise.
func (v *Viewer) DoubleClick(x, y float64) {
	if v.placement == PlacementNone {
		v.Deselect()
		return
	}
	p, ok := v.picker.ProjectToSurface(x, y, v.rect(), v.manager.Camera(), v.Graph(), v.reference)
	if !ok {
		return
	}
	if _, err := v.place(p); err != nil {
		v.logger.Warnw("cannot place annotation", "point", p, "error", err)
	}
}

// Key handles a keyboard shortcut. Unknown keys are ignored.
func (v *Viewer) Key(key string) {
	switch key {
	case KeyTranslate, KeyRotate, KeyScale:
		mode, err := gizmo.ParseMode(key)
		if err == nil {
			//nolint:errcheck
			v.SetTransformMode(mode)
		}
	case KeyEscape:
		v.Deselect()
	case KeyGrow, "=":
		for _, h := range v.clouds {
			h.IncrementPointSize()
		}
	case KeyShrink:
		for _, h := range v.clouds {
			h.DecrementPointSize()
		}
	case KeyRecenter:
		v.Recenter()
	}
}

// SetTransformMode changes the mode of the selected annotation's gizmo. Without a selection it
// returns a MissingBindingWarning and nothing changes.
func (v *Viewer) SetTransformMode(mode gizmo.Mode) error {
	target, ok := v.gizmos.Active()
	if !ok {
		err := utils.NewMissingBindingWarning("set mode", nil)
		v.logger.Debugw("no selection for mode change", "mode", mode)
		return err
	}
	if err := v.gizmos.SetMode(target, mode); err != nil {
		return err
	}
	v.listener.TransformModeChanged(mode)
	return nil
}

// Placement returns the current placement mode.
func (v *Viewer) Placement() Placement {
	return v.placement
}

// TogglePlacement switches cube placement on or off. Any chosen model is forgotten.
func (v *Viewer) TogglePlacement() {
	v.pending = nil
	if v.placement == PlacementCube {
		v.placement = PlacementNone
		return
	}
	v.placement = PlacementCube
}

// SelectModel switches to model placement with the named catalog entry. The next placement adds
// a box of the entry's dimensions and loads the model into it.
func (v *Viewer) SelectModel(name string) error {
	entry, ok := v.cfg.Models.Find(name)
	if !ok {
		return errors.Errorf("no model named %q", name)
	}
	v.pending = &entry
	v.placement = PlacementModel
	return nil
}

// place adds an annotation box centered at p and binds a gizmo to it. In model placement the
// chosen model is loaded into the box and the mode falls back to none.
func (v *Viewer) place(p r3.Vector) (scene.NodeID, error) {
	dims := *v.cfg.Annotation.BoxSize
	entry := v.pending
	if v.placement == PlacementModel && entry != nil {
		dims = entry.Dimensions
	}
	graph := v.Graph()
	v.annotations++
	box, err := graph.NewBoxAnnotation(graph.Root(), scene.AnnotationName(v.annotations), p, dims, v.cfg.Annotation.EdgeColor())
	if err != nil {
		return scene.NoNode, err
	}
	if err := v.gizmos.Bind(box); err != nil {
		return scene.NoNode, err
	}
	v.logger.Debugw("placed annotation", "box", box, "center", p, "dims", dims)
	if v.placement == PlacementModel && entry != nil {
		v.pending = nil
		v.placement = PlacementNone
		v.loadModelInto(*entry, box)
	}
	return box, nil
}

func (v *Viewer) selectBox(box scene.NodeID) {
	if err := v.gizmos.Select(box); err != nil {
		v.logger.Warnw("cannot select annotation", "box", box, "error", err)
		return
	}
	v.listener.SelectionChanged(true, box)
}

// Deselect hides the selected gizmo and reports an empty selection.
func (v *Viewer) Deselect() {
	v.gizmos.Deselect()
	v.listener.SelectionChanged(false, scene.NoNode)
}

// Recenter frames the reference group.
func (v *Viewer) Recenter() {
	err := framing.Frame(v.Graph(), v.reference, v.manager.Camera(), framing.Options{
		ZoomFactor:   v.cfg.Framing.ZoomFactor,
		MinDimension: v.cfg.Framing.MinDimension,
	})
	if err != nil {
		v.logger.Debugw("nothing to recenter on", "error", err)
	}
}
