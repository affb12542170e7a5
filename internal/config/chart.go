package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/models"
)

type chartFile struct {
	Name        string
	Description string
	ParamX      string
	ParamY      string
	LogX        bool
	LogY        bool
	ParamX2     string
	ParamY2     string
	LogX2       bool
	LogY2       bool
	Zones       []chartZone
}

type chartZone struct {
	Zone     int
	Label    string
	USCS     string
	Graph    int
	Resolves []int
	Polygon  [][]float64
}

// LoadChart reads a polygon chart definition (YAML, JSON or TOML) and checks
// that it forms a valid classification scheme.
func LoadChart(path string) (models.Chart, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return models.Chart{}, fmt.Errorf("read chart %s: %w", path, err)
	}

	var f chartFile
	if err := v.Unmarshal(&f); err != nil {
		return models.Chart{}, fmt.Errorf("decode chart %s: %w", path, err)
	}

	c := models.Chart{
		Name:        f.Name,
		Description: f.Description,
		ParamX:      f.ParamX,
		ParamY:      f.ParamY,
		LogX:        f.LogX,
		LogY:        f.LogY,
		ParamX2:     f.ParamX2,
		ParamY2:     f.ParamY2,
		LogX2:       f.LogX2,
		LogY2:       f.LogY2,
	}
	for _, z := range f.Zones {
		cz := models.ChartZone{
			Zone:     models.SoilZone{Number: z.Zone, Label: z.Label, USCS: z.USCS},
			Graph:    z.Graph,
			Resolves: z.Resolves,
		}
		for i, pt := range z.Polygon {
			if len(pt) != 2 {
				return models.Chart{}, fmt.Errorf("chart %s zone %d: vertex %d needs two coordinates", path, z.Zone, i)
			}
			cz.Polygon = append(cz.Polygon, models.Vertex{X: pt[0], Y: pt[1]})
		}
		c.Zones = append(c.Zones, cz)
	}

	if _, err := classify.NewChartScheme(c); err != nil {
		return models.Chart{}, err
	}
	return c, nil
}
