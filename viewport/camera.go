// Package viewport owns the camera, the viewport size and the per-frame render call.
package viewport

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/utils"
)

// FallbackUp is used as the up vector when the view direction is parallel to the camera's up.
var FallbackUp = r3.Vector{Z: 1}

// Camera is a perspective camera. Fov is the vertical field of view in degrees.
type Camera struct {
	Position r3.Vector
	Target   r3.Vector
	Up       r3.Vector
	Fov      float64
	Aspect   float64
	Near     float64
	Far      float64

	// matrices are recomputed only when one of their inputs changed
	viewKey  [3]r3.Vector
	view     mgl64.Mat4
	projKey  [4]float64
	proj     mgl64.Mat4
	computed bool
}

// NewCamera returns a camera at position looking at the origin with +Y up.
func NewCamera(fov, aspect, near, far float64, position r3.Vector) *Camera {
	return &Camera{
		Position: position,
		Up:       r3.Vector{Y: 1},
		Fov:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target r3.Vector) {
	c.Target = target
}

// Direction returns the unit view direction, or -Z when position and target coincide.
func (c *Camera) Direction() r3.Vector {
	d := c.Target.Sub(c.Position)
	if d.Norm2() == 0 {
		return r3.Vector{Z: -1}
	}
	return d.Normalize()
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 {
	return c.Target.Sub(c.Position).Norm()
}

func (c *Camera) effectiveUp() r3.Vector {
	up := c.Up
	if up.Norm2() == 0 {
		up = r3.Vector{Y: 1}
	}
	if c.Direction().Cross(up.Normalize()).Norm2() < 1e-12 {
		return FallbackUp
	}
	return up
}

func (c *Camera) refresh() {
	vk := [3]r3.Vector{c.Position, c.Target, c.Up}
	if !c.computed || vk != c.viewKey {
		c.viewKey = vk
		target := c.Target
		if target == c.Position {
			target = c.Position.Add(c.Direction())
		}
		up := c.effectiveUp()
		c.view = mgl64.LookAtV(spatialmath.R3ToVec3(c.Position), spatialmath.R3ToVec3(target), spatialmath.R3ToVec3(up))
	}
	pk := [4]float64{c.Fov, c.Aspect, c.Near, c.Far}
	if !c.computed || pk != c.projKey {
		c.projKey = pk
		c.proj = mgl64.Perspective(utils.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
	}
	c.computed = true
}

// ViewMatrix returns the world to camera matrix.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	c.refresh()
	return c.view
}

// ProjectionMatrix returns the camera to clip space matrix.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	c.refresh()
	return c.proj
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	c.refresh()
	return c.proj.Mul4(c.view)
}

// Project maps a world point to normalized device coordinates. ok is false for points behind
// the camera.
func (c *Camera) Project(p r3.Vector) (r3.Vector, bool) {
	return projectWith(c.ViewProjection(), p)
}

// Unproject maps normalized device coordinates back into the world.
func (c *Camera) Unproject(ndc r3.Vector) r3.Vector {
	return spatialmath.TransformPoint(c.ViewProjection().Inv(), ndc)
}

// ScreenHeightAt returns how much world height fills the vertical field of view at distance.
func (c *Camera) ScreenHeightAt(distance float64) float64 {
	return 2 * distance * math.Tan(utils.DegToRad(c.Fov)/2)
}

// Clone returns a copy of the camera state.
func (c *Camera) Clone() *Camera {
	cp := *c
	return &cp
}

func projectWith(viewProj mgl64.Mat4, p r3.Vector) (r3.Vector, bool) {
	v := viewProj.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if v[3] <= 0 {
		return r3.Vector{}, false
	}
	return r3.Vector{X: v[0] / v[3], Y: v[1] / v[3], Z: v[2] / v[3]}, true
}
