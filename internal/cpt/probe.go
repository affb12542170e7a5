package cpt

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lox/cptinterp/internal/models"
)

// Result is one complete interpretation of a probe.
type Result struct {
	RunID        uuid.UUID
	PointID      string
	Scheme       string
	Config       Config
	HoleDepth    float64
	Samples      []models.ClassifiedSample
	CalculatedAt time.Time
}

// Interval is the depth range a sample represents: from its own depth to the
// next sample, or to the bottom of the hole for the last one.
type Interval struct {
	Top    float64
	Bottom float64
	Sample models.ClassifiedSample
}

// Layer is a run of consecutive intervals sharing a zone.
type Layer struct {
	Top    float64
	Bottom float64
	Zone   models.SoilZone
}

func (r *Result) Intervals() []Interval {
	out := make([]Interval, len(r.Samples))
	for i, s := range r.Samples {
		bottom := r.HoleDepth
		if i+1 < len(r.Samples) {
			bottom = r.Samples[i+1].Depth
		}
		if bottom < s.Depth {
			bottom = s.Depth
		}
		out[i] = Interval{Top: s.Depth, Bottom: bottom, Sample: s}
	}
	return out
}

func (r *Result) Layers() []Layer {
	var layers []Layer
	for _, iv := range r.Intervals() {
		if n := len(layers); n > 0 && layers[n-1].Zone == iv.Sample.Zone {
			layers[n-1].Bottom = iv.Bottom
			continue
		}
		layers = append(layers, Layer{Top: iv.Top, Bottom: iv.Bottom, Zone: iv.Sample.Zone})
	}
	return layers
}

// Probe owns a raw series and the latest interpretation of it. Replacing the
// series discards the stored result and bumps the generation, so a
// calculation started on the old series cannot store its result.
type Probe struct {
	mu         sync.RWMutex
	point      models.Point
	readings   []models.RawReading
	generation uint64
	result     *Result
}

func NewProbe(point models.Point, readings []models.RawReading) *Probe {
	p := &Probe{point: point}
	p.SetReadings(readings)
	return p
}

func (p *Probe) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.point.PointID
}

func (p *Probe) Point() models.Point {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.point
}

// Readings returns a copy of the raw series.
func (p *Probe) Readings() []models.RawReading {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.RawReading(nil), p.readings...)
}

// SetReadings attaches a new raw series. The hole depth grows to the deepest
// reading and any previous result is dropped.
func (p *Probe) SetReadings(readings []models.RawReading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append([]models.RawReading(nil), readings...)
	for _, r := range p.readings {
		if r.Depth > p.point.HoleDepth {
			p.point.HoleDepth = r.Depth
		}
	}
	p.generation++
	p.result = nil
}

// snapshot returns the point and a copy of the series together with the
// generation they belong to.
func (p *Probe) snapshot() (models.Point, []models.RawReading, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.point, append([]models.RawReading(nil), p.readings...), p.generation
}

// Result returns the latest interpretation, or nil.
func (p *Probe) Result() *Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.result
}

// setResult stores r unless the series changed since generation gen.
func (p *Probe) setResult(r *Result, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return false
	}
	p.result = r
	return true
}
