package viewport

import (
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Defaults for the camera and wheel zoom.
const (
	DefaultFov             = 60.
	DefaultNear            = 0.01
	DefaultFar             = 3000.
	DefaultMinZoomDistance = 2.
	DefaultMaxZoomDistance = 20.
	DefaultZoomSpeed       = 0.5 * 0.01
	DefaultOrbitDamping    = 0.05
	DefaultBackground      = "#1e1e1e"
)

// DefaultCameraPosition is where a new camera is placed.
var DefaultCameraPosition = r3.Vector{X: 0, Y: 2, Z: 5}

// Config describes the camera and viewport behavior.
type Config struct {
	Fov             float64    `json:"fov,omitempty"`
	Near            float64    `json:"near,omitempty"`
	Far             float64    `json:"far,omitempty"`
	Position        *r3.Vector `json:"position,omitempty"`
	MinZoomDistance float64    `json:"min_zoom_distance,omitempty"`
	MaxZoomDistance float64    `json:"max_zoom_distance,omitempty"`
	ZoomSpeed       float64    `json:"zoom_speed,omitempty"`
	OrbitDamping    float64    `json:"orbit_damping,omitempty"`
	Background      string     `json:"background,omitempty"`
}

// DefaultConfig returns a config with every default filled.
func DefaultConfig() Config {
	var cfg Config
	//nolint:errcheck
	cfg.Validate("")
	return cfg
}

// Validate fills defaults and checks the camera parameters.
func (cfg *Config) Validate(path string) error {
	if cfg.Fov == 0 {
		cfg.Fov = DefaultFov
	}
	if cfg.Near == 0 {
		cfg.Near = DefaultNear
	}
	if cfg.Far == 0 {
		cfg.Far = DefaultFar
	}
	if cfg.Position == nil {
		pos := DefaultCameraPosition
		cfg.Position = &pos
	}
	if cfg.MinZoomDistance == 0 {
		cfg.MinZoomDistance = DefaultMinZoomDistance
	}
	if cfg.MaxZoomDistance == 0 {
		cfg.MaxZoomDistance = DefaultMaxZoomDistance
	}
	if cfg.ZoomSpeed == 0 {
		cfg.ZoomSpeed = DefaultZoomSpeed
	}
	if cfg.OrbitDamping == 0 {
		cfg.OrbitDamping = DefaultOrbitDamping
	}
	if cfg.Background == "" {
		cfg.Background = DefaultBackground
	}

	if cfg.Fov <= 0 || cfg.Fov >= 180 {
		return goutils.NewConfigValidationError(path, errors.Errorf("fov must be in (0, 180), got %v", cfg.Fov))
	}
	if cfg.Near <= 0 || cfg.Far <= cfg.Near {
		return goutils.NewConfigValidationError(path, errors.Errorf("need 0 < near < far, got near %v far %v", cfg.Near, cfg.Far))
	}
	if cfg.MinZoomDistance < 0 || cfg.MaxZoomDistance < cfg.MinZoomDistance {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("need 0 <= min_zoom_distance <= max_zoom_distance, got %v and %v", cfg.MinZoomDistance, cfg.MaxZoomDistance))
	}
	if cfg.OrbitDamping < 0 || cfg.OrbitDamping > 1 {
		return goutils.NewConfigValidationError(path, errors.Errorf("orbit_damping must be in [0, 1], got %v", cfg.OrbitDamping))
	}
	if _, err := colorful.Hex(cfg.Background); err != nil {
		return goutils.NewConfigValidationError(path, errors.Wrapf(err, "invalid background color %q", cfg.Background))
	}
	return nil
}
