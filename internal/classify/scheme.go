// Package classify assigns soil behaviour zones to derived CPT parameters.
//
// Every scheme tests a sample against an ordered set of zone boundaries. When a
// sample sits exactly on a boundary the zone with the lower published index
// wins. Samples whose required parameters are null are Indeterminate.
package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lox/cptinterp/internal/models"
)

var ErrUnknownScheme = errors.New("unknown classification scheme")

// Scheme is one empirical classification chart.
type Scheme interface {
	Name() string
	RequiredParameters() []string
	Zones() []models.SoilZone
	Classify(p models.DerivedParameters) models.SoilZone
}

// Registry maps scheme names to schemes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemes map[string]Scheme
}

// NewRegistry returns a registry holding the built-in schemes.
func NewRegistry() *Registry {
	r := &Registry{schemes: make(map[string]Scheme)}
	for _, c := range BuiltinCharts() {
		r.Register(mustChartScheme(c))
	}
	r.Register(RobertsonWride1998{})
	return r
}

// BuiltinCharts returns fresh copies of the polygon charts every registry
// starts with.
func BuiltinCharts() []models.Chart {
	return []models.Chart{
		normalizedChart(Robertson1986Name),
		normalizedChart(Robertson1990Name),
		nonpiezoChart(),
		piezoChart(),
		eslamiChart(),
	}
}

// Register adds a scheme, replacing any scheme with the same name.
func (r *Registry) Register(s Scheme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[s.Name()] = s
}

func (r *Registry) Lookup(name string) (Scheme, error) {
	r.mu.RLock()
	s, ok := r.schemes[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s, nil
}

// Names returns the registered scheme names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemes))
	for name := range r.schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// presentValues returns the named parameters when every one of them is
// non-null.
func presentValues(p models.DerivedParameters, names ...string) ([]float64, bool) {
	values := make([]float64, len(names))
	for i, name := range names {
		v, ok := p.Parameter(name)
		if !ok || !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
			return nil, false
		}
		values[i] = v.Float64
	}
	return values, true
}
