// Package framing places a camera so that a target fills the view.
package framing

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/utils"
	"go.viam.com/annotator/viewport"
)

// Defaults for framing.
const (
	// SizingFactor is the ratio of far clip to target size, and of target size to near clip.
	SizingFactor        = 100.
	DefaultMinDimension = 1.
	DefaultZoomFactor   = 1.
	// CenterZoomFactor is used when re-centering on a freshly loaded reference model.
	CenterZoomFactor = 0.5
)

// DefaultAxis is the direction from the target to the camera.
var DefaultAxis = r3.Vector{Y: -1}

// Options tunes a single Frame call.
type Options struct {
	// ZoomFactor multiplies the fitted distance; 0 means 1.
	ZoomFactor float64
	// FirstChildOnly frames the target's first child instead of the target.
	FirstChildOnly bool
	// Axis is the direction from the target to the camera; zero means DefaultAxis.
	Axis r3.Vector
	// MinDimension replaces a zero target size; 0 means DefaultMinDimension.
	MinDimension float64
}

// Config is the framing section of the viewer config.
type Config struct {
	MinDimension float64 `json:"min_dimension,omitempty"`
	ZoomFactor   float64 `json:"zoom_factor,omitempty"`
}

// Validate fills defaults.
func (cfg *Config) Validate(path string) error {
	if cfg.MinDimension == 0 {
		cfg.MinDimension = DefaultMinDimension
	}
	if cfg.ZoomFactor == 0 {
		cfg.ZoomFactor = CenterZoomFactor
	}
	if cfg.MinDimension < 0 || cfg.ZoomFactor < 0 {
		return goutils.NewConfigValidationError(path, errors.New("min_dimension and zoom_factor must not be negative"))
	}
	return nil
}

// Distance returns the camera distance at which a target of size maxDim fills a vertical field
// of view of fovDegrees, times zoom.
func Distance(maxDim, fovDegrees, zoom float64) float64 {
	return maxDim / math.Tan(utils.DegToRad(fovDegrees)/2) * zoom
}

// ClipPlanes returns the near and far planes for a target of size maxDim.
func ClipPlanes(maxDim float64) (near, far float64) {
	return maxDim / SizingFactor, maxDim * SizingFactor
}

// Frame moves camera onto opts.Axis from the center of target's bounds, looking at the center,
// with clip planes sized to the target. An unknown or empty target leaves the camera untouched
// and returns a MissingBindingWarning.
func Frame(graph *scene.Graph, target scene.NodeID, camera *viewport.Camera, opts Options) error {
	if !graph.Contains(target) {
		return utils.NewMissingBindingWarning("frame", target)
	}
	subject := target
	if opts.FirstChildOnly {
		children := graph.Children(target)
		if len(children) == 0 {
			return utils.NewMissingBindingWarning("frame first child", target)
		}
		subject = children[0]
	}
	bounds := graph.WorldAABB(subject, true)
	if bounds.IsEmpty() {
		return utils.NewMissingBindingWarning("frame", target)
	}

	zoom := opts.ZoomFactor
	if zoom == 0 {
		zoom = DefaultZoomFactor
	}
	axis := opts.Axis
	if axis.Norm2() == 0 {
		axis = DefaultAxis
	}
	minDim := opts.MinDimension
	if minDim == 0 {
		minDim = DefaultMinDimension
	}
	maxDim := bounds.MaxDimension()
	if maxDim == 0 {
		maxDim = minDim
	}

	center := bounds.Center()
	camera.Position = center.Add(axis.Normalize().Mul(Distance(maxDim, camera.Fov, zoom)))
	camera.LookAt(center)
	camera.Near, camera.Far = ClipPlanes(maxDim)
	return nil
}
