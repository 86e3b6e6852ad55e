package potree

import (
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Streaming defaults.
const (
	DefaultPointBudget        = 1_000_000
	DefaultMaxConcurrentLoads = 4
	DefaultMinNodePixelSize   = 50.
	DefaultPointSize          = 1.
	DefaultPointSizeStep      = 0.2
	MinimumPointSize          = 0.
)

// Config controls paging and the point size adjustments.
type Config struct {
	PointBudget        int     `json:"point_budget,omitempty"`
	CacheBudget        int     `json:"cache_budget,omitempty"`
	MaxConcurrentLoads int     `json:"max_concurrent_loads,omitempty"`
	MinNodePixelSize   float64 `json:"min_node_pixel_size,omitempty"`
	DefaultPointSize   float64 `json:"default_point_size,omitempty"`
	PointSizeStep      float64 `json:"point_size_step,omitempty"`
	MinimumPointSize   float64 `json:"minimum_point_size,omitempty"`
}

// DefaultConfig returns a config with every default filled.
func DefaultConfig() Config {
	var cfg Config
	//nolint:errcheck
	cfg.Validate("")
	return cfg
}

// Validate fills defaults and checks budgets. The cache must be able to hold at least one frame's
// worth of visible points, or visible nodes would be evicted right after loading.
func (cfg *Config) Validate(path string) error {
	if cfg.PointBudget == 0 {
		cfg.PointBudget = DefaultPointBudget
	}
	if cfg.CacheBudget == 0 {
		cfg.CacheBudget = 2 * cfg.PointBudget
	}
	if cfg.MaxConcurrentLoads == 0 {
		cfg.MaxConcurrentLoads = DefaultMaxConcurrentLoads
	}
	if cfg.MinNodePixelSize == 0 {
		cfg.MinNodePixelSize = DefaultMinNodePixelSize
	}
	if cfg.DefaultPointSize == 0 {
		cfg.DefaultPointSize = DefaultPointSize
	}
	if cfg.PointSizeStep == 0 {
		cfg.PointSizeStep = DefaultPointSizeStep
	}

	if cfg.PointBudget < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("point_budget must be positive, got %d", cfg.PointBudget))
	}
	if cfg.CacheBudget < cfg.PointBudget {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("cache_budget (%d) must be at least point_budget (%d)", cfg.CacheBudget, cfg.PointBudget))
	}
	if cfg.MaxConcurrentLoads < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("max_concurrent_loads must be positive, got %d", cfg.MaxConcurrentLoads))
	}
	if cfg.MinNodePixelSize < 0 || cfg.PointSizeStep < 0 || cfg.MinimumPointSize < 0 {
		return goutils.NewConfigValidationError(path, errors.New("pixel size, point size step and minimum point size cannot be negative"))
	}
	if cfg.DefaultPointSize < cfg.MinimumPointSize {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("default_point_size (%v) is below minimum_point_size (%v)", cfg.DefaultPointSize, cfg.MinimumPointSize))
	}
	return nil
}
