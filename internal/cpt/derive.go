package cpt

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/lox/cptinterp/internal/models"
)

const kPaPerMPa = 1000

func valid(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Derive computes qt and the normalized indices for one reading. Every index
// whose inputs are missing or whose denominator is not positive is left null.
// A reading without pore pressure is treated as a plain cone: qt equals qc and
// Bq is null.
func Derive(r models.RawReading, s models.StressState, areaRatio float64) models.DerivedParameters {
	d := models.DerivedParameters{RawReading: r, Stress: s}
	if !r.QC.Valid {
		return d
	}

	u2 := 0.0
	if r.U2.Valid {
		u2 = r.U2.Float64
	}
	qt := r.QC.Float64 + (u2/kPaPerMPa)*(1-areaRatio)
	d.Qt = valid(qt)
	if !d.Qt.Valid {
		return d
	}

	qtKPa := qt * kPaPerMPa
	if r.FS.Valid && qtKPa > 0 {
		d.Rf = valid(r.FS.Float64 / qtKPa * 100)
	}

	net := qtKPa - s.TotalStress
	if net <= 0 {
		return d
	}
	if r.FS.Valid {
		d.Fr = valid(r.FS.Float64 / net * 100)
	}
	if r.U2.Valid {
		d.Bq = valid((r.U2.Float64 - s.PorePressure) / net)
	}
	if s.EffectiveStress > 0 {
		d.QtNorm = valid(net / s.EffectiveStress)
	}

	if d.QtNorm.Valid && d.QtNorm.Float64 > 0 && d.Fr.Valid && d.Fr.Float64 > 0 {
		a := 3.47 - math.Log10(d.QtNorm.Float64)
		b := math.Log10(d.Fr.Float64) + 1.22
		d.Ic = valid(math.Sqrt(a*a + b*b))
	}
	return d
}

// DeriveSeries pairs every reading with its stress state.
func DeriveSeries(readings []models.RawReading, stresses []models.StressState, areaRatio float64) ([]models.DerivedParameters, error) {
	if err := validateAreaRatio(areaRatio); err != nil {
		return nil, err
	}
	if len(readings) != len(stresses) {
		return nil, fmt.Errorf("%w: %d readings but %d stress states", ErrInvalidInput, len(readings), len(stresses))
	}
	out := make([]models.DerivedParameters, len(readings))
	for i := range readings {
		out[i] = Derive(readings[i], stresses[i], areaRatio)
	}
	return out, nil
}
