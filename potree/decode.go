package potree

import (
	"encoding/binary"
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// decodePoints reads numPoints DEFAULT-encoded points. Positions are stored as integers relative
// to the dataset offset; 16 bit colors are scaled down to 8 bits.
func decodePoints(md *Metadata, data []byte, numPoints int) ([]r3.Vector, []color.NRGBA, error) {
	stride := md.bytesPerPoint
	if len(data) < numPoints*stride {
		return nil, nil, errors.Errorf("need %d bytes for %d points, got %d", numPoints*stride, numPoints, len(data))
	}
	positions := make([]r3.Vector, numPoints)
	colors := make([]color.NRGBA, numPoints)
	for i := 0; i < numPoints; i++ {
		p := data[i*stride:]
		pos := p[md.positionOffset:]
		positions[i] = r3.Vector{
			X: float64(int32(binary.LittleEndian.Uint32(pos[0:4])))*md.Scale[0] + md.Offset[0],
			Y: float64(int32(binary.LittleEndian.Uint32(pos[4:8])))*md.Scale[1] + md.Offset[1],
			Z: float64(int32(binary.LittleEndian.Uint32(pos[8:12])))*md.Scale[2] + md.Offset[2],
		}
		if md.rgbOffset < 0 {
			colors[i] = white
			continue
		}
		rgb := p[md.rgbOffset:]
		colors[i] = color.NRGBA{
			R: colorChannel(binary.LittleEndian.Uint16(rgb[0:2])),
			G: colorChannel(binary.LittleEndian.Uint16(rgb[2:4])),
			B: colorChannel(binary.LittleEndian.Uint16(rgb[4:6])),
			A: 0xff,
		}
	}
	return positions, colors, nil
}

func colorChannel(v uint16) uint8 {
	if v > 255 {
		return uint8(v / 256)
	}
	return uint8(v)
}
