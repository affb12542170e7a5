package store

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS points (
    point_id TEXT PRIMARY KEY,
    x REAL,
    y REAL,
    elevation REAL,
    hole_depth REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cpt_readings (
    point_id TEXT NOT NULL REFERENCES points(point_id) ON DELETE CASCADE,
    depth REAL NOT NULL,
    qc REAL,
    fs REAL,
    u2 REAL,
    PRIMARY KEY (point_id, depth)
);

CREATE INDEX IF NOT EXISTS idx_readings_point ON cpt_readings(point_id);
`,
	},
	{
		Version:     2,
		Description: "Polygon classification charts",
		SQL: `
CREATE TABLE IF NOT EXISTS classification_methods (
    name TEXT PRIMARY KEY,
    description TEXT,
    param_x TEXT NOT NULL,
    param_y TEXT NOT NULL,
    log_x BOOLEAN NOT NULL DEFAULT FALSE,
    log_y BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS zone_names (
    method TEXT NOT NULL REFERENCES classification_methods(name) ON DELETE CASCADE,
    zone INTEGER NOT NULL,
    label TEXT NOT NULL,
    uscs TEXT,
    PRIMARY KEY (method, zone)
);

CREATE TABLE IF NOT EXISTS zone_definitions (
    method TEXT NOT NULL,
    zone INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    PRIMARY KEY (method, zone, seq),
    FOREIGN KEY (method, zone) REFERENCES zone_names(method, zone) ON DELETE CASCADE
);
`,
	},
	{
		Version:     3,
		Description: "Import audit and source archive",
		SQL: `
CREATE TABLE IF NOT EXISTS import_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    kind TEXT NOT NULL,
    source TEXT NOT NULL,
    records_parsed INTEGER,
    records_stored INTEGER,
    records_flagged INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);

CREATE TABLE IF NOT EXISTS source_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    import_run_id INTEGER REFERENCES import_runs(id),
    fetched_at DATETIME NOT NULL,
    source TEXT NOT NULL,
    content_compressed BLOB NOT NULL,
    content_hash TEXT NOT NULL UNIQUE
);
`,
	},
	{
		Version:     4,
		Description: "Stored interpretation results",
		SQL: `
CREATE TABLE IF NOT EXISTS calculation_runs (
    run_id TEXT PRIMARY KEY,
    point_id TEXT NOT NULL REFERENCES points(point_id) ON DELETE CASCADE,
    scheme TEXT NOT NULL,
    area_ratio REAL NOT NULL,
    groundwater_depth REAL NOT NULL,
    elevated_groundwater_depth REAL,
    unit_weight_json TEXT NOT NULL,
    water_unit_weight REAL NOT NULL,
    hole_depth REAL NOT NULL,
    calculated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculation_runs_point ON calculation_runs(point_id, calculated_at);

CREATE TABLE IF NOT EXISTS classified_samples (
    run_id TEXT NOT NULL REFERENCES calculation_runs(run_id) ON DELETE CASCADE,
    depth REAL NOT NULL,
    qc REAL,
    fs REAL,
    u2 REAL,
    total_stress REAL NOT NULL,
    pore_pressure REAL NOT NULL,
    effective_stress REAL NOT NULL,
    qt REAL,
    rf REAL,
    bq REAL,
    qt_norm REAL,
    fr REAL,
    ic REAL,
    zone INTEGER NOT NULL,
    label TEXT NOT NULL,
    PRIMARY KEY (run_id, depth)
);
`,
	},
	{
		Version:     5,
		Description: "Second chart graph and group zones",
		SQL: `
ALTER TABLE classification_methods ADD COLUMN param_x2 TEXT;
ALTER TABLE classification_methods ADD COLUMN param_y2 TEXT;
ALTER TABLE classification_methods ADD COLUMN log_x2 BOOLEAN NOT NULL DEFAULT FALSE;
ALTER TABLE classification_methods ADD COLUMN log_y2 BOOLEAN NOT NULL DEFAULT FALSE;

ALTER TABLE zone_names ADD COLUMN resolves TEXT;

CREATE TABLE zone_definitions_v5 (
    method TEXT NOT NULL,
    zone INTEGER NOT NULL,
    graph INTEGER NOT NULL DEFAULT 1,
    seq INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    PRIMARY KEY (method, zone, graph, seq),
    FOREIGN KEY (method, zone) REFERENCES zone_names(method, zone) ON DELETE CASCADE
);

INSERT INTO zone_definitions_v5 (method, zone, graph, seq, x, y)
SELECT method, zone, 1, seq, x, y FROM zone_definitions;

DROP TABLE zone_definitions;
ALTER TABLE zone_definitions_v5 RENAME TO zone_definitions;
`,
	},
	{
		Version:     6,
		Description: "USCS group of classified samples",
		SQL: `
ALTER TABLE classified_samples ADD COLUMN uscs TEXT;
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("read applied schema migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		s.log.Info("store: applying schema migration", zap.Int("version", m.Version), zap.String("description", m.Description))

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin schema migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply schema migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record schema migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit schema migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
