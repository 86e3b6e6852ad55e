package viewport

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
)

// SnapshotRenderer rasterizes a wireframe view of the scene into an image. Meshes draw as
// triangle outlines, line segments as lines and points as single dots.
type SnapshotRenderer struct {
	dc         *gg.Context
	background color.Color
	closed     bool
}

// NewSnapshotRenderer returns a renderer with the given background color, as a hex string.
func NewSnapshotRenderer(width, height int, background string) (*SnapshotRenderer, error) {
	bg, err := colorful.Hex(background)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid background color %q", background)
	}
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	return &SnapshotRenderer{dc: gg.NewContext(width, height), background: bg}, nil
}

// SetSize reallocates the backing image when the size changes.
func (sr *SnapshotRenderer) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if sr.dc.Width() == width && sr.dc.Height() == height {
		return
	}
	sr.dc = gg.NewContext(width, height)
}

// Render draws every visible node.
func (sr *SnapshotRenderer) Render(graph *scene.Graph, camera *Camera) error {
	if sr.closed {
		return errors.New("renderer closed")
	}
	dc := sr.dc
	dc.SetColor(sr.background)
	dc.Clear()
	dc.SetLineWidth(1)

	w, h := float64(dc.Width()), float64(dc.Height())
	vp := camera.ViewProjection()
	toScreen := func(p r3.Vector) (float64, float64, bool) {
		ndc, ok := projectWith(vp, p)
		if !ok || ndc.Z < -1 || ndc.Z > 1 {
			return 0, 0, false
		}
		return (ndc.X + 1) / 2 * w, (1 - ndc.Y) / 2 * h, true
	}
	line := func(a, b r3.Vector) {
		ax, ay, okA := toScreen(a)
		bx, by, okB := toScreen(b)
		if okA && okB {
			dc.DrawLine(ax, ay, bx, by)
		}
	}

	graph.Traverse(graph.Root(), func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		if n.Geometry == nil {
			return true
		}
		world := graph.WorldMatrix(n.ID)
		switch geom := n.Geometry.(type) {
		case *scene.LineSegments:
			dc.SetColor(geom.Color)
			for _, s := range geom.Segments {
				line(spatialmath.TransformPoint(world, s[0]), spatialmath.TransformPoint(world, s[1]))
			}
			dc.Stroke()
		case *scene.MeshGeometry:
			dc.SetColor(geom.Color)
			if geom.Mesh != nil {
				for _, tri := range geom.Mesh.Triangles() {
					pts := tri.Points()
					for i := range pts {
						line(spatialmath.TransformPoint(world, pts[i]), spatialmath.TransformPoint(world, pts[(i+1)%3]))
					}
				}
			}
			dc.Stroke()
		case PointSource:
			geom.EachPoint(func(p r3.Vector, c color.NRGBA) {
				if x, y, ok := toScreen(spatialmath.TransformPoint(world, p)); ok {
					dc.SetColor(c)
					dc.SetPixel(int(x), int(y))
				}
			})
		case *scene.Points:
			for i, p := range geom.Positions {
				c := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
				if i < len(geom.Colors) {
					c = geom.Colors[i]
				}
				if x, y, ok := toScreen(spatialmath.TransformPoint(world, p)); ok {
					dc.SetColor(c)
					dc.SetPixel(int(x), int(y))
				}
			}
		}
		return true
	})
	return nil
}

// PointSource is implemented by geometries that stream their points, such as paged point clouds.
type PointSource interface {
	EachPoint(fn func(p r3.Vector, c color.NRGBA))
}

// Image returns the last rendered image.
func (sr *SnapshotRenderer) Image() image.Image {
	return sr.dc.Image()
}

// SavePNG writes the last rendered image to path.
func (sr *SnapshotRenderer) SavePNG(path string) error {
	return sr.dc.SavePNG(path)
}

// Close marks the renderer unusable.
func (sr *SnapshotRenderer) Close() error {
	sr.closed = true
	return nil
}
