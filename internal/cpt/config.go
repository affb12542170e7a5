// Package cpt derives stress profiles and normalized indices from cone
// penetration test soundings and classifies every sample with a selectable
// scheme.
//
// Units: depth m, qc and qt MPa, fs, u2 and stresses kPa, unit weights kN/m³.
package cpt

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStaleResult          = errors.New("stale result")
)

// DefaultWaterUnitWeight is used when Config.WaterUnitWeight is zero.
const DefaultWaterUnitWeight = 9.81

// UnitWeightPoint is the soil unit weight at a depth.
type UnitWeightPoint struct {
	Depth  float64
	Weight float64
}

// UnitWeightProfile is a depth ordered unit weight profile. A single point is a
// constant unit weight.
type UnitWeightProfile []UnitWeightPoint

func ConstantUnitWeight(w float64) UnitWeightProfile {
	return UnitWeightProfile{{Depth: 0, Weight: w}}
}

// Config is supplied by the caller for every calculation.
type Config struct {
	AreaRatio        float64
	UnitWeight       UnitWeightProfile
	GroundwaterDepth float64
	// ElevatedGroundwaterDepth takes precedence over GroundwaterDepth for
	// hydrostatic pressure when set.
	ElevatedGroundwaterDepth sql.NullFloat64
	WaterUnitWeight          float64
	Method                   string
}

func (c Config) waterUnitWeight() float64 {
	if c.WaterUnitWeight == 0 {
		return DefaultWaterUnitWeight
	}
	return c.WaterUnitWeight
}

// groundwaterLevel is the depth used for hydrostatic pressure.
func (c Config) groundwaterLevel() float64 {
	if c.ElevatedGroundwaterDepth.Valid {
		return c.ElevatedGroundwaterDepth.Float64
	}
	return c.GroundwaterDepth
}

// Validate checks every configuration value before any computation starts.
func (c Config) Validate() error {
	if err := validateAreaRatio(c.AreaRatio); err != nil {
		return err
	}
	return c.validateStress()
}

func validateAreaRatio(a float64) error {
	if math.IsNaN(a) || a <= 0 || a > 1 {
		return fmt.Errorf("%w: area ratio must be in (0, 1], got %v", ErrInvalidConfiguration, a)
	}
	return nil
}

func (c Config) validateStress() error {
	if len(c.UnitWeight) == 0 {
		return fmt.Errorf("%w: unit weight is required", ErrInvalidConfiguration)
	}
	for i, p := range c.UnitWeight {
		if math.IsNaN(p.Weight) || p.Weight <= 0 {
			return fmt.Errorf("%w: unit weight must be positive, got %v", ErrInvalidConfiguration, p.Weight)
		}
		if math.IsNaN(p.Depth) || p.Depth < 0 {
			return fmt.Errorf("%w: unit weight profile depth must be non-negative, got %v", ErrInvalidConfiguration, p.Depth)
		}
		if i > 0 && p.Depth < c.UnitWeight[i-1].Depth {
			return fmt.Errorf("%w: unit weight profile depths must be non-decreasing", ErrInvalidConfiguration)
		}
	}
	if math.IsNaN(c.GroundwaterDepth) || c.GroundwaterDepth < 0 {
		return fmt.Errorf("%w: groundwater depth must be non-negative, got %v", ErrInvalidConfiguration, c.GroundwaterDepth)
	}
	if e := c.ElevatedGroundwaterDepth; e.Valid && (math.IsNaN(e.Float64) || e.Float64 < 0) {
		return fmt.Errorf("%w: elevated groundwater depth must be non-negative, got %v", ErrInvalidConfiguration, e.Float64)
	}
	if w := c.WaterUnitWeight; math.IsNaN(w) || w < 0 {
		return fmt.Errorf("%w: water unit weight must be positive, got %v", ErrInvalidConfiguration, w)
	}
	return nil
}

// DepthBelowGround converts a groundwater elevation into a depth below a
// ground surface elevation.
func DepthBelowGround(groundElevation, waterElevation float64) (float64, error) {
	d := groundElevation - waterElevation
	if math.IsNaN(d) || d < 0 {
		return 0, fmt.Errorf("%w: groundwater elevation %v is above ground elevation %v", ErrInvalidConfiguration, waterElevation, groundElevation)
	}
	return d, nil
}
