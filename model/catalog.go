// Package model loads equipment and reference models into the scene graph.
package model

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Entry is one loadable model: where to find it and the physical size of the box it is placed
// in.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Dimensions r3.Vector `json:"dimensions"`
}

// Validate ensures the entry names a path and has a positive box size.
func (e *Entry) Validate(path string) error {
	if e.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if e.Path == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if e.Dimensions.X <= 0 || e.Dimensions.Y <= 0 || e.Dimensions.Z <= 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("dimensions must be positive, got (%g, %g, %g)", e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z))
	}
	return nil
}

// Catalog is the list of models an operator can place.
type Catalog []Entry

// Find returns the entry with the given name.
func (c Catalog) Find(name string) (Entry, bool) {
	for _, e := range c {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the entry names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, e := range c {
		names = append(names, e.Name)
	}
	return names
}

// DefaultCatalog is the built-in set of antenna and junction models.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Name:       "Poynting_HELI-3",
			Path:       "assets/Antenna/Helical/Poynting_HELI-3/Poynting_HELI-3.obj",
			Dimensions: r3.Vector{X: 1.04, Y: 0.145, Z: 0.12},
		},
		{
			Name:       "Antenna-Omni",
			Path:       "assets/Antenna/Omni/3X-RRV4-65B-R12/3X-RRV4-65B-R12.obj",
			Dimensions: r3.Vector{X: 0.58, Y: 2.1, Z: 0.58},
		},
		{
			Name:       "Antenna-Dish",
			Path:       "assets/Antenna/Dish/HX6-11W-2WH/HX6-11W-2WH.obj",
			Dimensions: r3.Vector{X: 1.8, Y: 1.8, Z: 1.206},
		},
		{
			Name:       "Antenna-Panel",
			Path:       "assets/Antenna/Panel/APXBL06B_43-CT5/APXBL06B_43-CT5.obj",
			Dimensions: r3.Vector{X: 0.35, Y: 0.62, Z: 0.2},
		},
		{
			Name:       "BENELEC_174502S",
			Path:       "assets/Transceiver%20Junction/Splitters/BENELEC_174502S/BENELEC_174502S.obj",
			Dimensions: r3.Vector{X: 0.082, Y: 0.105, Z: 0.024},
		},
	}
}
