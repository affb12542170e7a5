package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
)

// SaveResult persists an interpretation and its samples.
func (s *Store) SaveResult(res *cpt.Result) error {
	profile, err := json.Marshal(res.Config.UnitWeight)
	if err != nil {
		return fmt.Errorf("encode unit weight profile: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO calculation_runs (run_id, point_id, scheme, area_ratio, groundwater_depth,
			elevated_groundwater_depth, unit_weight_json, water_unit_weight, hole_depth, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.RunID.String(), res.PointID, res.Scheme, res.Config.AreaRatio, res.Config.GroundwaterDepth,
		res.Config.ElevatedGroundwaterDepth, string(profile), res.Config.WaterUnitWeight, res.HoleDepth,
		res.CalculatedAt.UTC()); err != nil {
		return fmt.Errorf("insert calculation run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO classified_samples (run_id, depth, qc, fs, u2, total_stress, pore_pressure,
			effective_stress, qt, rf, bq, qt_norm, fr, ic, zone, label, uscs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range res.Samples {
		if _, err := stmt.Exec(res.RunID.String(), c.Depth, c.QC, c.FS, c.U2,
			c.Stress.TotalStress, c.Stress.PorePressure, c.Stress.EffectiveStress,
			c.Qt, c.Rf, c.Bq, c.QtNorm, c.Fr, c.Ic, c.Zone.Number, c.Zone.Label, c.Zone.USCS); err != nil {
			return fmt.Errorf("insert sample at %v: %w", c.Depth, err)
		}
	}
	return tx.Commit()
}

// LatestResult returns the most recent stored interpretation of a point, or
// nil when there is none.
func (s *Store) LatestResult(pointID string) (*cpt.Result, error) {
	var (
		res        cpt.Result
		runID      string
		profile    string
		calculated time.Time
	)
	err := s.db.QueryRow(`
		SELECT run_id, point_id, scheme, area_ratio, groundwater_depth, elevated_groundwater_depth,
			unit_weight_json, water_unit_weight, hole_depth, calculated_at
		FROM calculation_runs
		WHERE point_id = ?
		ORDER BY calculated_at DESC
		LIMIT 1
	`, pointID).Scan(&runID, &res.PointID, &res.Scheme, &res.Config.AreaRatio, &res.Config.GroundwaterDepth,
		&res.Config.ElevatedGroundwaterDepth, &profile, &res.Config.WaterUnitWeight, &res.HoleDepth, &calculated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if res.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("parse run id %q: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(profile), &res.Config.UnitWeight); err != nil {
		return nil, fmt.Errorf("decode unit weight profile: %w", err)
	}
	res.Config.Method = res.Scheme
	res.CalculatedAt = calculated.UTC()

	samples, err := s.resultSamples(runID, res.Scheme)
	if err != nil {
		return nil, err
	}
	res.Samples = samples
	return &res, nil
}

func (s *Store) resultSamples(runID, scheme string) ([]models.ClassifiedSample, error) {
	rows, err := s.db.Query(`
		SELECT depth, qc, fs, u2, total_stress, pore_pressure, effective_stress,
			qt, rf, bq, qt_norm, fr, ic, zone, label, uscs
		FROM classified_samples
		WHERE run_id = ?
		ORDER BY depth ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.ClassifiedSample
	for rows.Next() {
		c := models.ClassifiedSample{Scheme: scheme}
		var uscs sql.NullString
		if err := rows.Scan(&c.Depth, &c.QC, &c.FS, &c.U2,
			&c.Stress.TotalStress, &c.Stress.PorePressure, &c.Stress.EffectiveStress,
			&c.Qt, &c.Rf, &c.Bq, &c.QtNorm, &c.Fr, &c.Ic, &c.Zone.Number, &c.Zone.Label, &uscs); err != nil {
			return nil, err
		}
		c.Zone.USCS = uscs.String
		c.Stress.Depth = c.Depth
		samples = append(samples, c)
	}
	return samples, rows.Err()
}
