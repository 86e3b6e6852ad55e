package viewport

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/spatialmath"
)

// ErrAlreadyDisposed is returned when a released resource is released again.
var ErrAlreadyDisposed = errors.New("resource already disposed")

const minPolarAngle = 1e-6

// OrbitControls rotates and pans a camera around its target. Input accumulates into pending
// deltas that Update applies a damped fraction of each frame.
type OrbitControls struct {
	camera   *Camera
	damping  float64
	enabled  bool
	disposed bool

	RotateSpeed float64
	PanSpeed    float64

	thetaDelta float64
	phiDelta   float64
	panDelta   r3.Vector
}

// NewOrbitControls returns enabled controls for camera. A damping of 0 applies input immediately.
func NewOrbitControls(camera *Camera, damping float64) *OrbitControls {
	return &OrbitControls{
		camera:      camera,
		damping:     damping,
		enabled:     true,
		RotateSpeed: 1,
		PanSpeed:    1,
	}
}

// SetEnabled turns input handling on or off. Pending motion is dropped when disabling.
func (oc *OrbitControls) SetEnabled(enabled bool) {
	if oc.disposed {
		return
	}
	oc.enabled = enabled
	if !enabled {
		oc.thetaDelta, oc.phiDelta, oc.panDelta = 0, 0, r3.Vector{}
	}
}

// Enabled reports whether the controls respond to input.
func (oc *OrbitControls) Enabled() bool {
	return oc.enabled && !oc.disposed
}

// Disposed reports whether Dispose has been called.
func (oc *OrbitControls) Disposed() bool {
	return oc.disposed
}

// Rotate queues a rotation from a pointer drag of (dx, dy) pixels over a viewport of the given
// height.
func (oc *OrbitControls) Rotate(dx, dy float64, viewportHeight int) {
	if !oc.Enabled() || viewportHeight <= 0 {
		return
	}
	h := float64(viewportHeight)
	oc.thetaDelta -= 2 * math.Pi * dx / h * oc.RotateSpeed
	oc.phiDelta -= 2 * math.Pi * dy / h * oc.RotateSpeed
}

// Pan queues a translation of camera and target from a pointer drag of (dx, dy) pixels.
func (oc *OrbitControls) Pan(dx, dy float64, viewportHeight int) {
	if !oc.Enabled() || viewportHeight <= 0 {
		return
	}
	cam := oc.camera
	perPixel := cam.ScreenHeightAt(cam.Distance()) / float64(viewportHeight) * oc.PanSpeed
	forward := cam.Direction()
	up := cam.effectiveUp().Normalize()
	right := forward.Cross(up)
	if right.Norm2() == 0 {
		return
	}
	right = right.Normalize()
	camUp := right.Cross(forward).Normalize()
	oc.panDelta = oc.panDelta.Add(right.Mul(-dx * perPixel)).Add(camUp.Mul(dy * perPixel))
}

// Update applies pending motion to the camera and reports whether the camera moved.
func (oc *OrbitControls) Update() bool {
	if oc.disposed {
		return false
	}
	frac := 1.
	if oc.damping > 0 {
		frac = oc.damping
	}
	theta := oc.thetaDelta * frac
	phi := oc.phiDelta * frac
	pan := oc.panDelta.Mul(frac)
	if oc.damping > 0 {
		oc.thetaDelta *= 1 - oc.damping
		oc.phiDelta *= 1 - oc.damping
		oc.panDelta = oc.panDelta.Mul(1 - oc.damping)
	} else {
		oc.thetaDelta, oc.phiDelta, oc.panDelta = 0, 0, r3.Vector{}
	}
	if math.Abs(theta) < 1e-9 && math.Abs(phi) < 1e-9 && pan.Norm2() < 1e-18 {
		return false
	}

	cam := oc.camera
	up := cam.Up
	if up.Norm2() == 0 {
		up = r3.Vector{Y: 1}
	}
	up = up.Normalize()
	offset := cam.Position.Sub(cam.Target)
	if offset.Norm2() > 0 {
		offset = spatialmath.RotateVector(spatialmath.QuatFromAxisAngle(up, theta), offset)
		polar := math.Acos(math.Max(-1, math.Min(1, offset.Normalize().Dot(up))))
		newPolar := math.Max(minPolarAngle, math.Min(math.Pi-minPolarAngle, polar+phi))
		if right := up.Cross(offset); right.Norm2() > 0 {
			offset = spatialmath.RotateVector(spatialmath.QuatFromAxisAngle(right, newPolar-polar), offset)
		}
	}
	cam.Target = cam.Target.Add(pan)
	cam.Position = cam.Target.Add(offset)
	return true
}

// Dispose releases the controls. A second call returns ErrAlreadyDisposed.
func (oc *OrbitControls) Dispose() error {
	if oc.disposed {
		return ErrAlreadyDisposed
	}
	oc.disposed = true
	oc.enabled = false
	return nil
}
