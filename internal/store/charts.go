package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lox/cptinterp/internal/models"
)

// UpsertChart replaces a polygon chart with all its zones and vertices. A zone
// number drawn on both graphs keeps the label of its first occurrence.
func (s *Store) UpsertChart(c models.Chart) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM zone_definitions WHERE method = ?`,
		`DELETE FROM zone_names WHERE method = ?`,
		`DELETE FROM classification_methods WHERE name = ?`,
	} {
		if _, err := tx.Exec(q, c.Name); err != nil {
			return fmt.Errorf("clear chart %q: %w", c.Name, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO classification_methods (name, description, param_x, param_y, log_x, log_y,
			param_x2, param_y2, log_x2, log_y2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.Description, c.ParamX, c.ParamY, c.LogX, c.LogY,
		nullString(c.ParamX2), nullString(c.ParamY2), c.LogX2, c.LogY2); err != nil {
		return fmt.Errorf("insert chart %q: %w", c.Name, err)
	}

	named := make(map[int]bool)
	for _, z := range c.Zones {
		if !named[z.Zone.Number] {
			named[z.Zone.Number] = true
			resolves, err := encodeResolves(c.Zones, z.Zone.Number)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(`
				INSERT INTO zone_names (method, zone, label, uscs, resolves) VALUES (?, ?, ?, ?, ?)
			`, c.Name, z.Zone.Number, z.Zone.Label, z.Zone.USCS, resolves); err != nil {
				return fmt.Errorf("insert zone %d: %w", z.Zone.Number, err)
			}
		}
		for i, v := range z.Polygon {
			if _, err := tx.Exec(`
				INSERT INTO zone_definitions (method, zone, graph, seq, x, y) VALUES (?, ?, ?, ?, ?, ?)
			`, c.Name, z.Zone.Number, z.GraphIndex(), i, v.X, v.Y); err != nil {
				return fmt.Errorf("insert zone %d graph %d vertex %d: %w", z.Zone.Number, z.GraphIndex(), i, err)
			}
		}
	}
	return tx.Commit()
}

// encodeResolves returns the group members of the first graph zone numbered
// zone as JSON, or NULL when it is not a group zone.
func encodeResolves(zones []models.ChartZone, zone int) (sql.NullString, error) {
	for _, z := range zones {
		if z.Zone.Number != zone || z.GraphIndex() != 1 || len(z.Resolves) == 0 {
			continue
		}
		b, err := json.Marshal(z.Resolves)
		if err != nil {
			return sql.NullString{}, fmt.Errorf("encode zone %d group: %w", zone, err)
		}
		return sql.NullString{String: string(b), Valid: true}, nil
	}
	return sql.NullString{}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetChart returns nil when no chart has that name.
func (s *Store) GetChart(name string) (*models.Chart, error) {
	var c models.Chart
	var desc, paramX2, paramY2 sql.NullString
	err := s.db.QueryRow(`
		SELECT name, description, param_x, param_y, log_x, log_y, param_x2, param_y2, log_x2, log_y2
		FROM classification_methods WHERE name = ?
	`, name).Scan(&c.Name, &desc, &c.ParamX, &c.ParamY, &c.LogX, &c.LogY, &paramX2, &paramY2, &c.LogX2, &c.LogY2)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Description = desc.String
	c.ParamX2 = paramX2.String
	c.ParamY2 = paramY2.String

	zones, err := s.chartZones(name)
	if err != nil {
		return nil, err
	}
	c.Zones = zones
	return &c, nil
}

func (s *Store) chartZones(method string) ([]models.ChartZone, error) {
	rows, err := s.db.Query(`
		SELECT n.zone, n.label, n.uscs, n.resolves, d.graph, d.x, d.y
		FROM zone_names n
		JOIN zone_definitions d ON d.method = n.method AND d.zone = n.zone
		WHERE n.method = ?
		ORDER BY d.graph ASC, n.zone ASC, d.seq ASC
	`, method)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []models.ChartZone
	for rows.Next() {
		var (
			number, graph int
			label         string
			uscs          sql.NullString
			resolves      sql.NullString
			v             models.Vertex
		)
		if err := rows.Scan(&number, &label, &uscs, &resolves, &graph, &v.X, &v.Y); err != nil {
			return nil, err
		}
		if n := len(zones); n == 0 || zones[n-1].Zone.Number != number || zones[n-1].Graph != graph {
			z := models.ChartZone{
				Zone:  models.SoilZone{Number: number, Label: label, USCS: uscs.String},
				Graph: graph,
			}
			if graph == 1 && resolves.Valid {
				if err := json.Unmarshal([]byte(resolves.String), &z.Resolves); err != nil {
					return nil, fmt.Errorf("decode zone %d group: %w", number, err)
				}
			}
			zones = append(zones, z)
		}
		last := &zones[len(zones)-1]
		last.Polygon = append(last.Polygon, v)
	}
	return zones, rows.Err()
}

func (s *Store) ListCharts() ([]models.Chart, error) {
	rows, err := s.db.Query(`SELECT name FROM classification_methods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	charts := make([]models.Chart, 0, len(names))
	for _, name := range names {
		c, err := s.GetChart(name)
		if err != nil {
			return nil, fmt.Errorf("load chart %q: %w", name, err)
		}
		if c != nil {
			charts = append(charts, *c)
		}
	}
	return charts, nil
}
