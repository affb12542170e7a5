package classify

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/lox/cptinterp/internal/models"
)

// edgeTolerance is the distance in (possibly log-transformed) chart units
// within which a point counts as lying on a polygon edge.
const edgeTolerance = 1e-9

// ChartScheme classifies by point-in-polygon tests on a polygon chart, either
// one of the built-in charts or one loaded from the chart tables of the store.
// Zones are tested in ascending zone number; a point on a shared edge takes the
// first zone tested. Charts with a second graph use it for samples the first
// graph leaves unclassified and to resolve group zones. Samples outside every
// polygon are Indeterminate.
type ChartScheme struct {
	chart  models.Chart
	graphs []graph
	zones  []models.SoilZone
}

type graph struct {
	paramX, paramY string
	logX, logY     bool
	zones          []projectedZone
}

type projectedZone struct {
	zone     models.SoilZone
	resolves []int
	polygon  []models.Vertex
}

// NewChartScheme validates a chart and projects its polygons onto the axes
// the chart is drawn on.
func NewChartScheme(c models.Chart) (*ChartScheme, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("chart: name is required")
	}
	if len(c.Zones) == 0 {
		return nil, fmt.Errorf("chart %q: no zones", c.Name)
	}

	s := &ChartScheme{chart: c}
	s.graphs = append(s.graphs, graph{paramX: c.ParamX, paramY: c.ParamY, logX: c.LogX, logY: c.LogY})
	if c.HasSecondGraph() {
		s.graphs = append(s.graphs, graph{paramX: c.ParamX2, paramY: c.ParamY2, logX: c.LogX2, logY: c.LogY2})
	}
	for i, g := range s.graphs {
		for _, param := range []string{g.paramX, g.paramY} {
			if _, ok := (models.DerivedParameters{}).Parameter(param); !ok {
				return nil, fmt.Errorf("chart %q graph %d: unknown parameter %q", c.Name, i+1, param)
			}
		}
	}

	seen := make(map[[2]int]bool)
	labels := make(map[int]models.SoilZone)
	for _, z := range c.Zones {
		n := z.Zone.Number
		if n <= 0 {
			return nil, fmt.Errorf("chart %q: zone numbers must be positive, got %d", c.Name, n)
		}
		if z.Graph < 0 || z.Graph > len(s.graphs) {
			return nil, fmt.Errorf("chart %q zone %d: no graph %d", c.Name, n, z.Graph)
		}
		gi := z.GraphIndex()
		if seen[[2]int{gi, n}] {
			return nil, fmt.Errorf("chart %q: duplicate zone %d on graph %d", c.Name, n, gi)
		}
		seen[[2]int{gi, n}] = true
		if len(z.Resolves) > 0 && (gi != 1 || len(s.graphs) == 1) {
			return nil, fmt.Errorf("chart %q zone %d: only first graph zones of a two graph chart resolve", c.Name, n)
		}
		for _, r := range z.Resolves {
			if r <= 0 {
				return nil, fmt.Errorf("chart %q zone %d: resolves to zone %d", c.Name, n, r)
			}
		}
		if len(z.Polygon) < 3 {
			return nil, fmt.Errorf("chart %q zone %d: polygon needs at least 3 vertices", c.Name, n)
		}

		g := &s.graphs[gi-1]
		poly := make([]models.Vertex, len(z.Polygon))
		for i, v := range z.Polygon {
			x, okX := project(v.X, g.logX)
			y, okY := project(v.Y, g.logY)
			if !okX || !okY {
				return nil, fmt.Errorf("chart %q zone %d: vertex (%g, %g) not positive on a log axis", c.Name, n, v.X, v.Y)
			}
			poly[i] = models.Vertex{X: x, Y: y}
		}
		g.zones = append(g.zones, projectedZone{zone: z.Zone, resolves: z.Resolves, polygon: poly})
		if _, ok := labels[n]; !ok {
			labels[n] = z.Zone
		}
	}

	for i := range s.graphs {
		zones := s.graphs[i].zones
		sort.Slice(zones, func(a, b int) bool {
			return zones[a].zone.Number < zones[b].zone.Number
		})
	}
	for _, z := range labels {
		s.zones = append(s.zones, z)
	}
	sort.Slice(s.zones, func(a, b int) bool {
		return s.zones[a].Number < s.zones[b].Number
	})
	return s, nil
}

func (s *ChartScheme) Name() string { return s.chart.Name }

func (s *ChartScheme) RequiredParameters() []string {
	var params []string
	for _, g := range s.graphs {
		for _, p := range []string{g.paramX, g.paramY} {
			if !slices.Contains(params, p) {
				params = append(params, p)
			}
		}
	}
	return params
}

func (s *ChartScheme) Zones() []models.SoilZone {
	return append([]models.SoilZone(nil), s.zones...)
}

func (s *ChartScheme) Classify(p models.DerivedParameters) models.SoilZone {
	first, ok := s.graphs[0].locate(p)
	if ok && len(first.resolves) == 0 {
		return first.zone
	}
	if len(s.graphs) == 1 {
		return models.Indeterminate
	}

	second, ok2 := s.graphs[1].locate(p)
	switch {
	case ok && ok2 && slices.Contains(first.resolves, second.zone.Number):
		return second.zone
	case ok:
		return first.zone
	case ok2:
		return second.zone
	}
	return models.Indeterminate
}

// locate returns the lowest numbered zone of the graph containing the sample.
func (g *graph) locate(p models.DerivedParameters) (projectedZone, bool) {
	v, ok := presentValues(p, g.paramX, g.paramY)
	if !ok {
		return projectedZone{}, false
	}
	x, okX := project(v[0], g.logX)
	y, okY := project(v[1], g.logY)
	if !okX || !okY {
		return projectedZone{}, false
	}
	pt := models.Vertex{X: x, Y: y}
	for _, z := range g.zones {
		if onBoundary(pt, z.polygon) || insidePolygon(pt, z.polygon) {
			return z, true
		}
	}
	return projectedZone{}, false
}

func project(v float64, logAxis bool) (float64, bool) {
	if !logAxis {
		return v, true
	}
	if v <= 0 {
		return 0, false
	}
	return math.Log10(v), true
}

// insidePolygon is the even-odd ray casting test. The polygon is implicitly
// closed.
func insidePolygon(pt models.Vertex, poly []models.Vertex) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			xCross := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func onBoundary(pt models.Vertex, poly []models.Vertex) bool {
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if segmentDistance(pt, poly[j], poly[i]) <= edgeTolerance {
			return true
		}
	}
	return false
}

func segmentDistance(p, a, b models.Vertex) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// polygon pairs up x, y coordinates.
func polygon(xy ...float64) []models.Vertex {
	if len(xy)%2 != 0 {
		panic("classify: odd number of polygon coordinates")
	}
	poly := make([]models.Vertex, 0, len(xy)/2)
	for i := 0; i < len(xy); i += 2 {
		poly = append(poly, models.Vertex{X: xy[i], Y: xy[i+1]})
	}
	return poly
}

func mustChartScheme(c models.Chart) *ChartScheme {
	s, err := NewChartScheme(c)
	if err != nil {
		panic(err)
	}
	return s
}
