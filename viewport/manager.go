package viewport

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/scene"
	"go.viam.com/annotator/utils"
)

// Renderer draws a scene graph from a camera. Implementations own whatever render resources they
// need and release them in Close.
type Renderer interface {
	SetSize(width, height int)
	Render(graph *scene.Graph, camera *Camera) error
	Close() error
}

// Manager owns the camera, the scene graph and the viewport size.
type Manager struct {
	cfg      Config
	renderer Renderer
	logger   logging.Logger

	graph  *scene.Graph
	camera *Camera
	orbit  *OrbitControls

	width, height int
	degenerate    bool
	frames        uint64
}

// NewManager returns a manager; call Initialize before rendering.
func NewManager(cfg Config, renderer Renderer, logger logging.Logger) *Manager {
	return &Manager{cfg: cfg, renderer: renderer, logger: logger}
}

// Initialize creates the scene root, the camera and its orbit controls for a viewport of the
// given size. A zero-area size leaves the viewport degenerate until a valid Resize.
func (m *Manager) Initialize(width, height int) (*Camera, scene.NodeID) {
	m.graph = scene.NewGraph()
	pos := DefaultCameraPosition
	if m.cfg.Position != nil {
		pos = *m.cfg.Position
	}
	m.camera = NewCamera(m.cfg.Fov, 1, m.cfg.Near, m.cfg.Far, pos)
	m.camera.LookAt(r3.Vector{})
	m.orbit = NewOrbitControls(m.camera, m.cfg.OrbitDamping)
	if err := m.Resize(width, height); err != nil {
		m.logger.Warnw("initial viewport is degenerate; rendering deferred", "error", err)
	}
	return m.camera, m.graph.Root()
}

// Graph returns the scene graph.
func (m *Manager) Graph() *scene.Graph {
	return m.graph
}

// Camera returns the camera.
func (m *Manager) Camera() *Camera {
	return m.camera
}

// Orbit returns the orbit controls.
func (m *Manager) Orbit() *OrbitControls {
	return m.orbit
}

// Size returns the current viewport size.
func (m *Manager) Size() (int, int) {
	return m.width, m.height
}

// Degenerate reports whether the last resize had zero area.
func (m *Manager) Degenerate() bool {
	return m.degenerate
}

// Frames returns how many frames have been rendered.
func (m *Manager) Frames() uint64 {
	return m.frames
}

// Resize updates the aspect ratio and projection, keeping camera position and orientation.
func (m *Manager) Resize(width, height int) error {
	if m.camera == nil {
		return errors.New("viewport not initialized")
	}
	if width <= 0 || height <= 0 {
		m.degenerate = true
		m.width, m.height = width, height
		return utils.NewDegenerateViewportError(width, height)
	}
	m.degenerate = false
	m.width, m.height = width, height
	m.camera.Aspect = float64(width) / float64(height)
	if m.renderer != nil {
		m.renderer.SetSize(width, height)
	}
	return nil
}

// RenderFrame draws one frame and reports whether anything was drawn.
func (m *Manager) RenderFrame() bool {
	if m.camera == nil || m.degenerate || m.renderer == nil {
		return false
	}
	m.orbit.Update()
	if err := m.renderer.Render(m.graph, m.camera); err != nil {
		m.logger.Errorw("render failed", "error", err)
		return false
	}
	m.frames++
	return true
}

// Zoom dollies the camera along its view direction by deltaY wheel units, keeping the distance
// to the target within the configured range.
func (m *Manager) Zoom(deltaY float64) {
	if m.camera == nil {
		return
	}
	cam := m.camera
	dist := cam.Distance()
	next := utils.Clamp(dist+deltaY*m.cfg.ZoomSpeed, m.cfg.MinZoomDistance, m.cfg.MaxZoomDistance)
	cam.Position = cam.Target.Sub(cam.Direction().Mul(next))
}

// Close releases the renderer.
func (m *Manager) Close() error {
	if m.renderer == nil {
		return nil
	}
	return m.renderer.Close()
}
