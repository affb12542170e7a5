package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lox/cptinterp/internal/models"
)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Open opens a sqlite database at path and applies pending migrations.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	s := New(db, log)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertPoint(p models.Point) error {
	_, err := s.db.Exec(`
		INSERT INTO points (point_id, x, y, elevation, hole_depth)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(point_id) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			elevation = excluded.elevation,
			hole_depth = MAX(points.hole_depth, excluded.hole_depth)
	`, p.PointID, p.X, p.Y, p.Elevation, p.HoleDepth)
	return err
}

// GetPoint returns nil when the point does not exist.
func (s *Store) GetPoint(pointID string) (*models.Point, error) {
	var p models.Point
	err := s.db.QueryRow(`
		SELECT point_id, x, y, elevation, hole_depth FROM points WHERE point_id = ?
	`, pointID).Scan(&p.PointID, &p.X, &p.Y, &p.Elevation, &p.HoleDepth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPoints() ([]models.Point, error) {
	rows, err := s.db.Query(`SELECT point_id, x, y, elevation, hole_depth FROM points ORDER BY point_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.PointID, &p.X, &p.Y, &p.Elevation, &p.HoleDepth); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ReplaceReadings swaps the whole series of a point in one transaction and
// extends the hole depth to the deepest reading. The point must exist.
func (s *Store) ReplaceReadings(pointID string, readings []models.RawReading) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM points WHERE point_id = ?`, pointID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("point %q not found", pointID)
	}

	if _, err := tx.Exec(`DELETE FROM cpt_readings WHERE point_id = ?`, pointID); err != nil {
		return fmt.Errorf("clear readings: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO cpt_readings (point_id, depth, qc, fs, u2) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	deepest := 0.0
	for _, r := range readings {
		if _, err := stmt.Exec(pointID, r.Depth, r.QC, r.FS, r.U2); err != nil {
			return fmt.Errorf("insert reading at %v: %w", r.Depth, err)
		}
		if r.Depth > deepest {
			deepest = r.Depth
		}
	}

	if _, err := tx.Exec(`UPDATE points SET hole_depth = MAX(hole_depth, ?) WHERE point_id = ?`, deepest, pointID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetReadings returns the series of a point ordered by depth.
func (s *Store) GetReadings(pointID string) ([]models.RawReading, error) {
	rows, err := s.db.Query(`
		SELECT depth, qc, fs, u2 FROM cpt_readings WHERE point_id = ? ORDER BY depth ASC
	`, pointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.RawReading
	for rows.Next() {
		var r models.RawReading
		if err := rows.Scan(&r.Depth, &r.QC, &r.FS, &r.U2); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *Store) CountReadings(pointID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cpt_readings WHERE point_id = ?`, pointID).Scan(&n)
	return n, err
}

// DeletePoint removes a point with its readings and stored results.
func (s *Store) DeletePoint(pointID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM classified_samples WHERE run_id IN (SELECT run_id FROM calculation_runs WHERE point_id = ?)`,
		`DELETE FROM calculation_runs WHERE point_id = ?`,
		`DELETE FROM cpt_readings WHERE point_id = ?`,
		`DELETE FROM points WHERE point_id = ?`,
	} {
		if _, err := tx.Exec(q, pointID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
