// Package gizmo manages transform gizmos bound to scene nodes: at most one is interactive at a
// time, and dragging one suspends camera orbiting.
package gizmo

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/scene"
)

// Mode is the kind of transform a gizmo applies.
type Mode int

// The gizmo modes.
const (
	ModeTranslate Mode = iota
	ModeRotate
	ModeScale
)

func (m Mode) String() string {
	switch m {
	case ModeTranslate:
		return "translate"
	case ModeRotate:
		return "rotate"
	case ModeScale:
		return "scale"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "translate", "t":
		return ModeTranslate, nil
	case "rotate", "r":
		return ModeRotate, nil
	case "scale", "s":
		return ModeScale, nil
	}
	return ModeTranslate, errors.Errorf("unknown transform mode %q", s)
}

// ErrAlreadyDisposed is returned when a gizmo's render resources are released twice.
var ErrAlreadyDisposed = errors.New("gizmo already disposed")

// DefaultGizmoSize is the axis length of the helper geometry.
const DefaultGizmoSize = 1.

// TransformGizmo is the visible handle for a bound target. Its helper node lives directly under
// the scene root and is never pickable.
type TransformGizmo struct {
	helper   scene.NodeID
	mode     Mode
	visible  bool
	enabled  bool
	disposed bool
}

// Helper returns the gizmo's helper node.
func (tg *TransformGizmo) Helper() scene.NodeID {
	return tg.helper
}

// Mode returns the current mode.
func (tg *TransformGizmo) Mode() Mode {
	return tg.mode
}

// Visible reports whether the gizmo is shown.
func (tg *TransformGizmo) Visible() bool {
	return tg.visible
}

// Enabled reports whether the gizmo accepts drags.
func (tg *TransformGizmo) Enabled() bool {
	return tg.enabled
}

// Dispose releases the render resources of the gizmo.
func (tg *TransformGizmo) Dispose() error {
	if tg.disposed {
		return ErrAlreadyDisposed
	}
	tg.disposed = true
	tg.visible = false
	tg.enabled = false
	return nil
}

func newAxesGeometry(size float64) *scene.LineSegments {
	return &scene.LineSegments{
		Segments: [][2]r3.Vector{
			{{}, {X: size}},
			{{}, {Y: size}},
			{{}, {Z: size}},
		},
		Color: color.RGBA{R: 0x00, G: 0xbf, B: 0xff, A: 0xff},
	}
}

// Binding ties a target node to its gizmo.
type Binding struct {
	Target scene.NodeID
	Gizmo  *TransformGizmo
	State  State
}
