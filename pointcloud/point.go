package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Data is what a point carries besides its position. The zero value is an uncolored point with
// no return intensity.
type Data struct {
	Color    color.NRGBA
	HasColor bool
	// Intensity is the LAS return strength.
	Intensity uint16
}

// NewColoredData returns data for a point of color c.
func NewColoredData(c color.NRGBA) Data {
	return Data{Color: c, HasColor: true}
}

// NRGBA returns the point's color, opaque white when it has none.
func (d Data) NRGBA() color.NRGBA {
	if !d.HasColor {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	c := d.Color
	c.A = 0xff
	return c
}
