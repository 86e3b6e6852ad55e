// Package config defines the viewer configuration and how it is read from disk.
package config

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/annotator/framing"
	"go.viam.com/annotator/logging"
	"go.viam.com/annotator/model"
	"go.viam.com/annotator/picking"
	"go.viam.com/annotator/potree"
	"go.viam.com/annotator/viewport"
)

// Annotation defaults.
const (
	DefaultAnnotationColor = "#fff000"
)

// DefaultBoxSize is the size of boxes placed in cube placement mode.
var DefaultBoxSize = r3.Vector{X: 2, Y: 2, Z: 2}

// Config describes a viewer.
type Config struct {
	Viewport   viewport.Config              `json:"viewport"`
	Picking    picking.Config               `json:"picking"`
	Framing    framing.Config               `json:"framing"`
	PointCloud potree.Config                `json:"point_cloud"`
	Annotation AnnotationConfig             `json:"annotation"`
	Models     model.Catalog                `json:"models,omitempty"`
	LogConfig  []logging.LoggerPatternConfig `json:"log,omitempty"`
	LogFile    *LogFileConfig               `json:"log_file,omitempty"`
	Debug      bool                         `json:"debug,omitempty"`

	// ConfigFilePath is the path the config was read from, if any.
	ConfigFilePath string `json:"-"`
}

// Log file defaults.
const (
	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
)

// LogFileConfig copies log output into a file rotated by size.
type LogFileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// Validate fills defaults and requires a path.
func (lc *LogFileConfig) Validate(path string) error {
	if lc.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if lc.MaxSizeMB < 0 || lc.MaxBackups < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_size_mb and max_backups cannot be negative"))
	}
	if lc.MaxSizeMB == 0 {
		lc.MaxSizeMB = DefaultLogFileMaxSizeMB
	}
	if lc.MaxBackups == 0 {
		lc.MaxBackups = DefaultLogFileMaxBackups
	}
	return nil
}

// AnnotationConfig describes how annotation boxes look.
type AnnotationConfig struct {
	Color   string     `json:"color,omitempty"`
	BoxSize *r3.Vector `json:"box_size,omitempty"`
}

// Validate fills defaults and checks the color and box size.
func (ac *AnnotationConfig) Validate(path string) error {
	if ac.Color == "" {
		ac.Color = DefaultAnnotationColor
	}
	if ac.BoxSize == nil {
		size := DefaultBoxSize
		ac.BoxSize = &size
	}
	if _, err := colorful.Hex(ac.Color); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrapf(err, "invalid color %q", ac.Color))
	}
	if ac.BoxSize.X <= 0 || ac.BoxSize.Y <= 0 || ac.BoxSize.Z <= 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("box_size must be positive, got %v", *ac.BoxSize))
	}
	return nil
}

// EdgeColor returns the box edge color.
func (ac *AnnotationConfig) EdgeColor() color.RGBA {
	c, err := colorful.Hex(ac.Color)
	if err != nil {
		c, _ = colorful.Hex(DefaultAnnotationColor)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Validate fills defaults in every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Viewport.Validate("viewport"); err != nil {
		return err
	}
	if err := c.Picking.Validate("picking"); err != nil {
		return err
	}
	if err := c.Framing.Validate("framing"); err != nil {
		return err
	}
	if err := c.PointCloud.Validate("point_cloud"); err != nil {
		return err
	}
	if err := c.Annotation.Validate("annotation"); err != nil {
		return err
	}
	if c.Models == nil {
		c.Models = model.DefaultCatalog()
	}
	seen := map[string]bool{}
	for idx := range c.Models {
		path := fmt.Sprintf("models.%d", idx)
		if err := c.Models[idx].Validate(path); err != nil {
			return err
		}
		if seen[c.Models[idx].Name] {
			return utils.NewConfigValidationError(path, errors.Errorf("duplicate model name %q", c.Models[idx].Name))
		}
		seen[c.Models[idx].Name] = true
	}
	if c.LogFile != nil {
		if err := c.LogFile.Validate("log_file"); err != nil {
			return err
		}
	}
	for idx, lpc := range c.LogConfig {
		if !logging.ValidatePattern(lpc.Pattern) {
			return utils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), errors.Errorf("invalid logger pattern %q", lpc.Pattern))
		}
		if _, err := logging.LevelFromString(lpc.Level); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), err)
		}
	}
	return nil
}

// Default returns a validated config with every default filled.
func Default() *Config {
	cfg := &Config{}
	//nolint:errcheck
	cfg.Validate()
	return cfg
}
