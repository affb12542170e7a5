package cpt

import (
	"math"

	"github.com/lox/cptinterp/internal/models"
)

// BuildStressProfile returns the total, hydrostatic and effective vertical
// stress at every depth. Depths must already be validated as increasing.
func BuildStressProfile(depths []float64, cfg Config) ([]models.StressState, error) {
	if err := cfg.validateStress(); err != nil {
		return nil, err
	}

	gwl := cfg.groundwaterLevel()
	gammaW := cfg.waterUnitWeight()
	states := make([]models.StressState, len(depths))

	prevDepth, total := 0.0, 0.0
	for i, z := range depths {
		if len(cfg.UnitWeight) == 1 {
			total = cfg.UnitWeight[0].Weight * z
		} else {
			total += cfg.UnitWeight.integrate(prevDepth, z)
		}
		prevDepth = z

		u0 := gammaW * math.Max(0, z-gwl)
		states[i] = models.StressState{
			Depth:           z,
			TotalStress:     total,
			PorePressure:    u0,
			EffectiveStress: math.Max(0, total-u0),
		}
	}
	return states, nil
}

// at linearly interpolates the unit weight, holding the end values outside
// the profile. On a repeated depth the shallower entry applies.
func (p UnitWeightProfile) at(z float64) float64 {
	if z <= p[0].Depth {
		return p[0].Weight
	}
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		if z <= b.Depth {
			if b.Depth == a.Depth {
				return a.Weight
			}
			t := (z - a.Depth) / (b.Depth - a.Depth)
			return a.Weight + t*(b.Weight-a.Weight)
		}
	}
	return p[len(p)-1].Weight
}

// integrate is the exact integral of the piecewise-linear profile over
// [from, to]. Step changes at repeated depths are honoured.
func (p UnitWeightProfile) integrate(from, to float64) float64 {
	if to <= from {
		return 0
	}
	sum := 0.0
	lo, wLo := from, p.below(from)
	for _, pt := range p {
		if pt.Depth <= lo || pt.Depth >= to {
			continue
		}
		// Left limit at a step uses the shallower weight, the right side the deeper one.
		sum += (pt.Depth - lo) * (wLo + p.at(pt.Depth)) / 2
		lo = pt.Depth
		wLo = p.below(pt.Depth)
	}
	sum += (to - lo) * (wLo + p.at(to)) / 2
	return sum
}

// below is the right-hand limit of the profile at z.
func (p UnitWeightProfile) below(z float64) float64 {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Depth == z {
			return p[i].Weight
		}
	}
	return p.at(z)
}
