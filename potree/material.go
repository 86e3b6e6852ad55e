package potree

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// SizeType controls how point size reacts to distance and density.
type SizeType int

// The point size types.
const (
	SizeFixed SizeType = iota
	SizeAttenuated
	SizeAdaptive
)

func (st SizeType) String() string {
	switch st {
	case SizeFixed:
		return "fixed"
	case SizeAttenuated:
		return "attenuated"
	case SizeAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("size_type(%d)", int(st))
	}
}

// ParseSizeType parses the names returned by SizeType.String.
func ParseSizeType(s string) (SizeType, error) {
	for _, st := range []SizeType{SizeFixed, SizeAttenuated, SizeAdaptive} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, errors.Errorf("unknown point size type %q", s)
}

// ClipMode selects which screen axis the clip extent limits.
type ClipMode int

// The clip modes.
const (
	ClipDisabled ClipMode = iota
	ClipHorizontally
	ClipVertically
)

func (cm ClipMode) String() string {
	switch cm {
	case ClipDisabled:
		return "disabled"
	case ClipHorizontally:
		return "horizontal"
	case ClipVertically:
		return "vertical"
	default:
		return fmt.Sprintf("clip_mode(%d)", int(cm))
	}
}

// ClipExtent is a normalized screen rectangle: MinX, MinY, MaxX, MaxY in [0, 1].
type ClipExtent [4]float64

// DefaultClipExtent covers the whole screen.
var DefaultClipExtent = ClipExtent{0, 0, 1, 1}

// Validate checks the extent is ordered and within the unit square.
func (ce ClipExtent) Validate() error {
	for _, v := range ce {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return errors.Errorf("clip extent %v must lie in [0, 1]", ce)
		}
	}
	if ce[0] > ce[2] || ce[1] > ce[3] {
		return errors.Errorf("clip extent %v has min greater than max", ce)
	}
	return nil
}

// Material holds the render parameters of a point cloud.
type Material struct {
	Size       float64
	SizeType   SizeType
	Clip       ClipMode
	ClipExtent ClipExtent
}

// NewMaterial returns the material a freshly loaded cloud gets.
func NewMaterial(cfg Config) Material {
	return Material{
		Size:       cfg.DefaultPointSize,
		SizeType:   SizeAdaptive,
		Clip:       ClipHorizontally,
		ClipExtent: DefaultClipExtent,
	}
}

// Validate checks the clip extent.
func (m Material) Validate() error {
	return m.ClipExtent.Validate()
}
