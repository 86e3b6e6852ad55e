// Package picking answers which scene nodes lie under a viewport pixel.
package picking

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/spatialmath"
	"go.viam.com/annotator/viewport"
)

// Default pick tolerances in world units.
const (
	DefaultLineThreshold  = 1.
	DefaultPointThreshold = 0.07
)

// Config holds the pick tolerances.
type Config struct {
	LineThreshold  float64 `json:"line_threshold,omitempty"`
	PointThreshold float64 `json:"point_threshold,omitempty"`
}

// Validate fills defaults and rejects negative tolerances.
func (cfg *Config) Validate(path string) error {
	if cfg.LineThreshold == 0 {
		cfg.LineThreshold = DefaultLineThreshold
	}
	if cfg.PointThreshold == 0 {
		cfg.PointThreshold = DefaultPointThreshold
	}
	if cfg.LineThreshold < 0 || cfg.PointThreshold < 0 {
		return goutils.NewConfigValidationError(path, errors.New("pick thresholds must not be negative"))
	}
	return nil
}

// Rect is the on-screen rectangle of the viewport.
type Rect struct {
	Left, Top, Width, Height float64
}

// Intersection is one hit, in world space.
type Intersection struct {
	Node     scene.NodeID
	Point    r3.Vector
	Distance float64
}

// Service runs pick queries.
type Service struct {
	cfg Config
}

// NewService returns a pick service with the given tolerances.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// NormalizedDeviceCoords converts a pixel position to [-1, 1] coordinates with +Y up. ok is
// false for an empty rect.
func NormalizedDeviceCoords(px, py float64, rect Rect) (x, y float64, ok bool) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return 0, 0, false
	}
	x = (px-rect.Left)/rect.Width*2 - 1
	y = -(py-rect.Top)/rect.Height*2 + 1
	return x, y, true
}

// RayFromCamera returns the world ray through the given normalized device coordinates.
func RayFromCamera(ndcX, ndcY float64, camera *viewport.Camera) spatialmath.Ray {
	through := camera.Unproject(r3.Vector{X: ndcX, Y: ndcY, Z: 0.5})
	return spatialmath.NewRay(camera.Position, through.Sub(camera.Position))
}

// Pick returns every pickable node under the pixel, nearest first.
func (s *Service) Pick(px, py float64, rect Rect, camera *viewport.Camera, graph *scene.Graph) []Intersection {
	x, y, ok := NormalizedDeviceCoords(px, py, rect)
	if !ok {
		return nil
	}
	return s.Raycast(RayFromCamera(x, y, camera), graph, graph.Root())
}

// ProjectToSurface returns the nearest point under the pixel on the subtree of root.
func (s *Service) ProjectToSurface(
	px, py float64, rect Rect, camera *viewport.Camera, graph *scene.Graph, root scene.NodeID,
) (r3.Vector, bool) {
	x, y, ok := NormalizedDeviceCoords(px, py, rect)
	if !ok || !graph.Contains(root) {
		return r3.Vector{}, false
	}
	hits := s.Raycast(RayFromCamera(x, y, camera), graph, root)
	if len(hits) == 0 {
		return r3.Vector{}, false
	}
	return hits[0].Point, true
}

// Raycast intersects a world ray with the subtree of root. Helper subtrees are skipped.
func (s *Service) Raycast(ray spatialmath.Ray, graph *scene.Graph, root scene.NodeID) []Intersection {
	var out []Intersection
	graph.Traverse(root, func(n *scene.Node) bool {
		if n.Kind == scene.KindHelper {
			return false
		}
		if !n.Pickable || n.Geometry == nil {
			return true
		}
		world := graph.WorldMatrix(n.ID)
		if world.Det() == 0 {
			return true
		}
		local := ray.ApplyMatrix(world.Inv())
		scale := averageScale(world)
		if scale == 0 {
			return true
		}
		params := scene.RaycastParams{
			LineThreshold:  s.cfg.LineThreshold / scale,
			PointThreshold: s.cfg.PointThreshold / scale,
		}
		for _, hit := range n.Geometry.Raycast(local, params) {
			p := spatialmath.TransformPoint(world, hit.Point)
			out = append(out, Intersection{Node: n.ID, Point: p, Distance: p.Sub(ray.Origin).Norm()})
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

func averageScale(m mgl64.Mat4) float64 {
	sum := 0.
	for i := 0; i < 3; i++ {
		c := m.Col(i)
		sum += r3.Vector{X: c[0], Y: c[1], Z: c[2]}.Norm()
	}
	return sum / 3
}
