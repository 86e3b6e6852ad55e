package potree

import (
	"encoding/json"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/spatialmath"
)

// hierarchyRecordSize is the size of one node record in hierarchy.bin.
const hierarchyRecordSize = 22

// EncodingDefault is the only point encoding supported. Brotli-compressed datasets are rejected.
const EncodingDefault = "DEFAULT"

// Attribute describes one interleaved per-point attribute in octree.bin.
type Attribute struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Size        int       `json:"size"`
	NumElements int       `json:"numElements"`
	ElementSize int       `json:"elementSize"`
	Type        string    `json:"type"`
	Min         []float64 `json:"min,omitempty"`
	Max         []float64 `json:"max,omitempty"`
}

// HierarchyInfo describes the layout of hierarchy.bin.
type HierarchyInfo struct {
	FirstChunkSize uint64 `json:"firstChunkSize"`
	StepSize       int    `json:"stepSize"`
	Depth          int    `json:"depth"`
}

type jsonBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Metadata is the decoded metadata.json of a dataset.
type Metadata struct {
	Version     string        `json:"version"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Points      uint64        `json:"points"`
	Projection  string        `json:"projection"`
	Hierarchy   HierarchyInfo `json:"hierarchy"`
	Offset      [3]float64    `json:"offset"`
	Scale       [3]float64    `json:"scale"`
	Spacing     float64       `json:"spacing"`
	BoundingBox jsonBox       `json:"boundingBox"`
	Encoding    string        `json:"encoding"`
	Attributes  []Attribute   `json:"attributes"`

	bytesPerPoint  int
	positionOffset int
	rgbOffset      int
}

// ParseMetadata decodes and checks metadata.json.
func ParseMetadata(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Wrap(err, "decoding metadata")
	}
	if !strings.HasPrefix(md.Version, "2.") {
		return nil, errors.Errorf("unsupported potree version %q", md.Version)
	}
	if md.Encoding == "" {
		md.Encoding = EncodingDefault
	}
	if md.Encoding != EncodingDefault {
		return nil, errors.Errorf("unsupported encoding %q", md.Encoding)
	}
	if md.Hierarchy.FirstChunkSize == 0 || md.Hierarchy.FirstChunkSize%hierarchyRecordSize != 0 {
		return nil, errors.Errorf("invalid first hierarchy chunk size %d", md.Hierarchy.FirstChunkSize)
	}
	for i, s := range md.Scale {
		if s == 0 {
			return nil, errors.Errorf("scale component %d is zero", i)
		}
	}
	if md.Bounds().IsEmpty() {
		return nil, errors.New("empty bounding box")
	}

	md.positionOffset, md.rgbOffset = -1, -1
	for _, a := range md.Attributes {
		if a.Size <= 0 {
			return nil, errors.Errorf("attribute %q has size %d", a.Name, a.Size)
		}
		switch {
		case a.Name == "position" || a.Name == "POSITION_CARTESIAN":
			if a.Type != "int32" || a.NumElements != 3 {
				return nil, errors.Errorf("position attribute must be 3 x int32, got %d x %s", a.NumElements, a.Type)
			}
			md.positionOffset = md.bytesPerPoint
		case a.Name == "rgb" || a.Name == "RGBA":
			if a.Type == "uint16" && a.NumElements >= 3 {
				md.rgbOffset = md.bytesPerPoint
			}
		}
		md.bytesPerPoint += a.Size
	}
	if md.positionOffset < 0 {
		return nil, errors.New("no position attribute")
	}
	return &md, nil
}

// Bounds returns the dataset's bounding box.
func (md *Metadata) Bounds() spatialmath.AABB {
	return spatialmath.AABB{
		Min: r3.Vector{X: md.BoundingBox.Min[0], Y: md.BoundingBox.Min[1], Z: md.BoundingBox.Min[2]},
		Max: r3.Vector{X: md.BoundingBox.Max[0], Y: md.BoundingBox.Max[1], Z: md.BoundingBox.Max[2]},
	}
}

// BytesPerPoint is the stride of one point in octree.bin.
func (md *Metadata) BytesPerPoint() int {
	return md.bytesPerPoint
}

// HasColor reports whether points carry an rgb attribute.
func (md *Metadata) HasColor() bool {
	return md.rgbOffset >= 0
}
