package utils

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DegenerateGeometryError is returned when a box or model has a zero-sized axis, so no finite
// scale can fit one into the other. The operation that returns it leaves the scene untouched.
type DegenerateGeometryError struct {
	What string
	Size r3.Vector
}

// NewDegenerateGeometryError is used when a bounding volume has a zero (or negative) extent.
func NewDegenerateGeometryError(what string, size r3.Vector) error {
	return &DegenerateGeometryError{What: what, Size: size}
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate %s geometry: size (%g, %g, %g) has a zero axis", e.What, e.Size.X, e.Size.Y, e.Size.Z)
}

// LoadFailureReason classifies a ResourceLoadError for reporting to a user.
type LoadFailureReason string

// Load failure reasons reported to the UI shell.
const (
	LoadFailureNetwork   LoadFailureReason = "network"
	LoadFailureParse     LoadFailureReason = "parse"
	LoadFailureNotFound  LoadFailureReason = "not_found"
	LoadFailureCanceled  LoadFailureReason = "canceled"
	LoadFailureGeometry  LoadFailureReason = "geometry"
	LoadFailureBadSource LoadFailureReason = "bad_source"
)

// ResourceLoadError is returned when a model or point cloud resource could not be fetched or
// parsed. The scene is left without any partially attached nodes.
type ResourceLoadError struct {
	Location string
	Reason   LoadFailureReason
	Err      error
}

// NewResourceLoadError wraps err with the location that failed and a reason code.
func NewResourceLoadError(location string, reason LoadFailureReason, err error) error {
	return &ResourceLoadError{Location: location, Reason: reason, Err: err}
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("failed to load %q (%s): %v", e.Location, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResourceLoadError) Unwrap() error {
	return e.Err
}

// MissingBindingWarning is returned by requests made against a target that has nothing bound to
// it. Callers log it and carry on.
type MissingBindingWarning struct {
	Operation string
	Target    interface{}
}

// NewMissingBindingWarning is used when an operation names a target with no binding.
func NewMissingBindingWarning(operation string, target interface{}) error {
	return &MissingBindingWarning{Operation: operation, Target: target}
}

func (e *MissingBindingWarning) Error() string {
	return fmt.Sprintf("%s: nothing bound to target %v", e.Operation, e.Target)
}

// DegenerateViewportError is returned when the viewport has zero area. Frames are skipped until a
// non-degenerate size arrives.
type DegenerateViewportError struct {
	Width, Height int
}

// NewDegenerateViewportError is used when a viewport resize has zero area.
func NewDegenerateViewportError(width, height int) error {
	return &DegenerateViewportError{Width: width, Height: height}
}

func (e *DegenerateViewportError) Error() string {
	return fmt.Sprintf("degenerate viewport %dx%d", e.Width, e.Height)
}

// IsWarning reports whether err only needs logging; every error in this taxonomy is recoverable,
// but warnings do not need to be surfaced to a user.
func IsWarning(err error) bool {
	var missing *MissingBindingWarning
	var viewport *DegenerateViewportError
	return errors.As(err, &missing) || errors.As(err, &viewport)
}
