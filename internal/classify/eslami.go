package classify

import (
	"github.com/lox/cptinterp/internal/models"
)

const EslamiFelleniusName = "Eslami Fellenius"

var eslamiZones = []models.SoilZone{
	{Number: 1, Label: "Sensitive and collapsible clay and/or silt", USCS: ""},
	{Number: 2, Label: "Clay and/or silt", USCS: "CL-ML"},
	{Number: 3, Label: "Silty clay and/or clayey silt", USCS: "CL-ML"},
	{Number: 4, Label: "Sandy silt and/or silt", USCS: "ML-SM"},
	{Number: 5, Label: "Sand and/or sandy gravel", USCS: "SP-GP"},
}

// eslamiChart plots the effective cone resistance qE = qt - u2 (MPa) against
// the sleeve friction fs (kPa) on log-log axes. The chart spans fs 1 to 1000
// kPa and qE 0.1 to 100 MPa; samples outside it are Indeterminate.
func eslamiChart() models.Chart {
	z := func(n int, xy ...float64) models.ChartZone {
		return models.ChartZone{Zone: eslamiZones[n-1], Polygon: polygon(xy...)}
	}
	return models.Chart{
		Name:        EslamiFelleniusName,
		Description: "Effective cone resistance against sleeve friction",
		ParamX:      models.ParamFS,
		ParamY:      models.ParamQE,
		LogX:        true,
		LogY:        true,
		Zones: []models.ChartZone{
			z(1, 1, 0.1, 10, 0.1, 6, 0.4, 4.5, 1, 4, 1.25, 1, 1.4),
			z(2, 10, 0.1, 1000, 0.1, 1000, 4, 6, 0.4),
			z(3, 6, 0.4, 1000, 4, 1000, 15, 4.5, 1),
			z(4, 4.5, 1, 1000, 15, 1000, 50, 1, 3, 1, 1.4, 4, 1.25),
			z(5, 1, 3, 1000, 50, 1000, 100, 1, 100),
		},
	}
}
