package cpt

import (
	"fmt"
	"math"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/models"
)

// ValidateSeries requires a non-empty series with finite, non-negative and
// strictly increasing depths. The series is never reordered.
func ValidateSeries(readings []models.RawReading) error {
	if len(readings) == 0 {
		return fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	for i, r := range readings {
		if math.IsNaN(r.Depth) || math.IsInf(r.Depth, 0) || r.Depth < 0 {
			return fmt.Errorf("%w: reading %d has invalid depth %v", ErrInvalidInput, i, r.Depth)
		}
		if i > 0 && r.Depth <= readings[i-1].Depth {
			return fmt.Errorf("%w: depth %v at reading %d does not increase on %v", ErrInvalidInput, r.Depth, i, readings[i-1].Depth)
		}
	}
	return nil
}

// ClassifySeries labels every sample with the scheme. The derived slice is
// not modified.
func ClassifySeries(derived []models.DerivedParameters, scheme classify.Scheme) []models.ClassifiedSample {
	out := make([]models.ClassifiedSample, len(derived))
	for i, d := range derived {
		out[i] = models.ClassifiedSample{
			DerivedParameters: d,
			Zone:              scheme.Classify(d),
			Scheme:            scheme.Name(),
		}
	}
	return out
}

// Interpret runs the full pipeline over one series. It is pure: the same
// readings, configuration and scheme always yield the same samples, one per
// reading in input order.
func Interpret(readings []models.RawReading, cfg Config, scheme classify.Scheme) ([]models.ClassifiedSample, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, fmt.Errorf("%w: %q", classify.ErrUnknownScheme, cfg.Method)
	}
	if err := ValidateSeries(readings); err != nil {
		return nil, err
	}

	depths := make([]float64, len(readings))
	for i, r := range readings {
		depths[i] = r.Depth
	}
	stresses, err := BuildStressProfile(depths, cfg)
	if err != nil {
		return nil, err
	}
	derived, err := DeriveSeries(readings, stresses, cfg.AreaRatio)
	if err != nil {
		return nil, err
	}
	return ClassifySeries(derived, scheme), nil
}
