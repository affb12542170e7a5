package classify

import (
	"math"

	"github.com/lox/cptinterp/internal/models"
)

const (
	Robertson1986Name         = "Robertson et al 1986"
	Robertson1990Name         = "Robertson 1990"
	Robertson1986NonpiezoName = "Robertson et al 1986 (nonpiezo)"
	Robertson1986PiezoName    = "Robertson et al 1986 (piezo)"
	RobertsonWride1998Name    = "Robertson and Wride 1998"
)

var robertsonZones = []models.SoilZone{
	{Number: 1, Label: "Sensitive, fine grained", USCS: ""},
	{Number: 2, Label: "Organic soils - peats", USCS: "PT"},
	{Number: 3, Label: "Clays - clay to silty clay", USCS: "CL-CH"},
	{Number: 4, Label: "Silt mixtures - clayey silt to silty clay", USCS: "ML-CL"},
	{Number: 5, Label: "Sand mixtures - silty sand to sandy silt", USCS: "SM-ML"},
	{Number: 6, Label: "Sands - clean sand to silty sand", USCS: "SW-SM"},
	{Number: 7, Label: "Gravelly sand to dense sand", USCS: "GW-SW"},
	{Number: 8, Label: "Very stiff sand to clayey sand", USCS: "SC"},
	{Number: 9, Label: "Very stiff, fine grained", USCS: "CH"},
}

// The twelve zones of the 1986 qt charts plus the group zone the pore pressure
// graph uses for the region it cannot split.
var robertson1986Zones = []models.SoilZone{
	{Number: 1, Label: "Sensitive fine grained", USCS: ""},
	{Number: 2, Label: "Organic material", USCS: "PT"},
	{Number: 3, Label: "Clay", USCS: "CH"},
	{Number: 4, Label: "Silty clay to clay", USCS: "CL-CH"},
	{Number: 5, Label: "Clayey silt to silty clay", USCS: "CL-ML"},
	{Number: 6, Label: "Sandy silt to clayey silt", USCS: "ML"},
	{Number: 7, Label: "Silty sand to sandy silt", USCS: "SM-ML"},
	{Number: 8, Label: "Sand to silty sand", USCS: "SM"},
	{Number: 9, Label: "Sand", USCS: "SP-SW"},
	{Number: 10, Label: "Gravelly sand to sand", USCS: "GW-SP"},
	{Number: 11, Label: "Very stiff fine grained, overconsolidated or cemented", USCS: "CH"},
	{Number: 12, Label: "Sand to clayey sand, overconsolidated or cemented", USCS: "SC"},
	{Number: 13, Label: "Zone 9, 10, 11 or 12", USCS: ""},
}

// normalizedChart is the nine zone chart of Qt against Fr. Zones 2 to 7 follow
// the Ic contours 3.60, 2.95, 2.60, 2.05 and 1.31. Samples left of Fr 0.1 fall
// through to the Qt against Bq graph.
func normalizedChart(name string) models.Chart {
	z := func(n int, xy ...float64) models.ChartZone {
		return models.ChartZone{Zone: robertsonZones[n-1], Polygon: polygon(xy...)}
	}
	z2 := func(n int, xy ...float64) models.ChartZone {
		c := z(n, xy...)
		c.Graph = 2
		return c
	}
	return models.Chart{
		Name:        name,
		Description: "Normalized cone resistance against normalized friction ratio, with the Bq graph as fallback",
		ParamX:      models.ParamFr,
		ParamY:      models.ParamQtNorm,
		LogX:        true,
		LogY:        true,
		ParamX2:     models.ParamBq,
		ParamY2:     models.ParamQtNorm,
		LogY2:       true,
		Zones: []models.ChartZone{
			z(1, 0.1, 1, 3, 1, 2.27, 1.71, 2, 2.2, 1, 3.5, 0.546, 4.78, 0.5, 5, 0.2, 8, 0.189, 8.27, 0.1, 12),
			z(2, 2.27, 1.71, 3, 1, 10, 1, 10, 4.33, 7.56, 3.51, 5.66, 2.88, 4.21, 2.39, 3.11, 2.01),
			z(3, 0.546, 4.78, 1, 3.5, 2, 2.2, 2.27, 1.71, 3.11, 2.01, 4.21, 2.39, 5.66, 2.88, 7.56, 3.51,
				10, 4.33, 10, 33.7, 6.65, 22.0, 4.27, 14.9, 2.65, 10.5, 1.6, 7.71, 0.945, 5.93),
			z(4, 0.189, 8.27, 0.2, 8, 0.5, 5, 0.546, 4.78, 0.945, 5.93, 1.6, 7.71, 2.65, 10.5, 4.27, 14.9,
				6.65, 22.0, 10, 33.7, 10, 50, 6, 58, 5.71, 60.3, 3.59, 37.2, 2.15, 24.2, 1.23, 16.7,
				0.676, 12.3, 0.361, 9.75),
			z(5, 0.1, 27, 0.1, 12, 0.189, 8.27, 0.361, 9.75, 0.676, 12.3, 1.23, 16.7, 2.15, 24.2, 3.59, 37.2,
				5.71, 60.3, 4, 80, 2.5, 150, 2.44, 158, 1.61, 99.3, 0.998, 66.3, 0.59, 47.4, 0.335, 36.3,
				0.185, 30.1),
			z(6, 0.1, 151, 0.1, 27, 0.185, 30.1, 0.335, 36.3, 0.59, 47.4, 0.998, 66.3, 1.61, 99.3, 2.44, 158,
				1.8, 300, 1.5, 1000, 1.01, 1000, 0.759, 574, 0.513, 353, 0.317, 238, 0.182, 178),
			z(7, 0.1, 1000, 0.1, 151, 0.182, 178, 0.317, 238, 0.513, 353, 0.759, 574, 1.01, 1000),
			z(8, 4, 80, 5, 1000, 1.5, 1000, 1.8, 300, 2.44, 158, 2.5, 150),
			z(9, 4, 80, 5.71, 60.3, 6, 58, 10, 50, 10, 1000, 5, 1000),

			z2(1, 0.2, 1, 1.4, 1, 1.4, 20, 0.3, 4),
			z2(3, -0.4, 1, -0.1, 1, 0.3, 4, 1.4, 20, 1.4, 1000),
			z2(4, -0.6, 1, -0.4, 1, 1.4, 1000, 1.0, 1000, -0.6, 1.25),
			z2(5, -0.6, 1.25, 1.0, 1000, 0.6, 1000, -0.6, 8),
			z2(6, -0.6, 8, 0.6, 1000, 0.2, 1000, -0.6, 100),
			z2(7, -0.6, 100, 0.2, 1000, -0.6, 1000),
		},
	}
}

// rfChart is the twelve zone chart of qt against the friction ratio Rf.
func rfChart() []models.ChartZone {
	z := func(n int, xy ...float64) models.ChartZone {
		return models.ChartZone{Zone: robertson1986Zones[n-1], Polygon: polygon(xy...)}
	}
	return []models.ChartZone{
		z(1, 0, 0.1, 2.2, 0.1, 1.49, 0.264, 1.08, 0.457, 0.845, 0.633, 0.258, 1.41, 0, 2),
		z(2, 2.5, 0.1, 8, 0.1, 8, 0.457),
		z(3, 1.49, 0.264, 2.2, 0.1, 2.5, 0.1, 8, 0.457, 8, 7, 5.87, 9.02),
		z(4, 1.08, 0.457, 1.49, 0.264, 5.87, 9.02, 5, 10, 4.94, 10.2),
		z(5, 0.845, 0.633, 1.08, 0.457, 4.94, 10.2, 4.28, 12.8),
		z(6, 0.258, 1.41, 0.845, 0.633, 4.28, 12.8, 4, 14, 3.21, 18.6),
		z(7, 0, 2, 0.258, 1.41, 3.21, 18.6, 3, 20, 2.75, 28.1, 0, 2.24),
		z(8, 0, 2.24, 2.75, 28.1, 2.17, 60.9, 0, 5.01),
		z(9, 0, 5.01, 2.17, 60.9, 1.8, 100, 1.62, 100, 0, 15.5),
		z(10, 0, 15.5, 1.62, 100, 0, 100),
		z(11, 4, 14, 5, 100, 8, 100, 8, 7, 5.87, 9.02, 5, 10, 4.94, 10.2, 4.28, 12.8),
		z(12, 1.8, 100, 5, 100, 4, 14, 3.21, 18.6, 3, 20, 2.75, 28.1, 2.17, 60.9),
	}
}

func nonpiezoChart() models.Chart {
	return models.Chart{
		Name:        Robertson1986NonpiezoName,
		Description: "Corrected cone resistance against friction ratio",
		ParamX:      models.ParamRf,
		ParamY:      models.ParamQt,
		LogY:        true,
		Zones:       rfChart(),
	}
}

// piezoChart plots qt against Bq first. Its zone 13 covers zones 9 to 12,
// which the friction ratio graph splits.
func piezoChart() models.Chart {
	z := func(n int, xy ...float64) models.ChartZone {
		return models.ChartZone{Zone: robertson1986Zones[n-1], Polygon: polygon(xy...)}
	}
	group := z(13, -0.141, 3.3, 0.6, 100, -0.2, 100)
	group.Resolves = []int{9, 10, 11, 12}

	zones := []models.ChartZone{
		z(1, 0.6, 0.1, 1.4, 0.1, 1.4, 1, 0.975, 1.0),
		z(2, -0.08, 0.1, 0.6, 0.1, 0.666, 0.15, -0.087, 0.15),
		z(3, -0.087, 0.15, 0.666, 0.15, 0.975, 1.0, 1.2, 4, 0.576, 4.0, -0.0907, 0.186),
		z(4, -0.0907, 0.186, 0.576, 4.0, 1.27, 100, 1.15, 100, -0.1, 0.316),
		z(5, -0.1, 0.316, 1.15, 100, 1.02, 100, -0.109, 0.539),
		z(6, -0.109, 0.539, 1.02, 100, 0.875, 100, -0.12, 1.02),
		z(7, -0.12, 1.02, 0.875, 100, 0.75, 100, -0.13, 1.74),
		z(8, -0.13, 1.74, 0.75, 100, 0.6, 100, -0.141, 3.3),
		group,
	}
	for _, rf := range rfChart() {
		rf.Graph = 2
		zones = append(zones, rf)
	}
	return models.Chart{
		Name:        Robertson1986PiezoName,
		Description: "Corrected cone resistance against pore pressure ratio, then against friction ratio",
		ParamX:      models.ParamBq,
		ParamY:      models.ParamQt,
		LogY:        true,
		ParamX2:     models.ParamRf,
		ParamY2:     models.ParamQt,
		LogY2:       true,
		Zones:       zones,
	}
}

// Ic band floors for zones 2 to 7. A zone covers [floor, previous floor).
var icBands = []struct {
	zone  int
	floor float64
}{
	{2, 3.60},
	{3, 2.95},
	{4, 2.60},
	{5, 2.05},
	{6, 1.31},
	{7, math.Inf(-1)},
}

func robertsonZone(n int) models.SoilZone {
	return robertsonZones[n-1]
}

// zoneFromIc maps Ic onto zones 2-7. A value equal to a floor belongs to the
// zone above it, which has the lower index.
func zoneFromIc(ic float64) models.SoilZone {
	for _, b := range icBands {
		if ic >= b.floor {
			return robertsonZone(b.zone)
		}
	}
	return robertsonZone(7)
}

// RobertsonWride1998 classifies on the soil behaviour type index alone,
// covering zones 2 to 7 of the normalized chart.
type RobertsonWride1998 struct{}

func (RobertsonWride1998) Name() string { return RobertsonWride1998Name }

func (RobertsonWride1998) RequiredParameters() []string {
	return []string{models.ParamIc}
}

func (RobertsonWride1998) Zones() []models.SoilZone {
	return append([]models.SoilZone(nil), robertsonZones[1:7]...)
}

func (s RobertsonWride1998) Classify(p models.DerivedParameters) models.SoilZone {
	v, ok := presentValues(p, s.RequiredParameters()...)
	if !ok {
		return models.Indeterminate
	}
	return zoneFromIc(v[0])
}
