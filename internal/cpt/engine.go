package cpt

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/metrics"
	"github.com/lox/cptinterp/internal/models"
)

// Engine dispatches calculations to the registered schemes and stores the
// result on the probe. Distinct probes may be calculated concurrently.
type Engine struct {
	schemes *classify.Registry
	log     *zap.Logger
	now     func() time.Time
}

func NewEngine(schemes *classify.Registry, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{schemes: schemes, log: log, now: time.Now}
}

func (e *Engine) Schemes() *classify.Registry {
	return e.schemes
}

// Calculate recomputes the whole probe with cfg and replaces its stored
// result. On error the probe is left untouched.
func (e *Engine) Calculate(p *Probe, cfg Config) (*Result, error) {
	start := e.now()
	point, readings, gen := p.snapshot()
	pointID := point.PointID

	if err := cfg.Validate(); err != nil {
		e.fail(pointID, cfg.Method, err)
		return nil, err
	}
	scheme, err := e.schemes.Lookup(cfg.Method)
	if err != nil {
		e.fail(pointID, cfg.Method, err)
		return nil, err
	}

	samples, err := Interpret(readings, cfg, scheme)
	if err != nil {
		e.fail(pointID, scheme.Name(), err)
		return nil, err
	}

	res := &Result{
		RunID:        uuid.New(),
		PointID:      pointID,
		Scheme:       scheme.Name(),
		Config:       cfg,
		HoleDepth:    point.HoleDepth,
		Samples:      samples,
		CalculatedAt: start.UTC(),
	}
	if !p.setResult(res, gen) {
		err := fmt.Errorf("%w: readings of %s replaced during calculation", ErrStaleResult, pointID)
		e.fail(pointID, res.Scheme, err)
		return nil, err
	}

	indeterminate := 0
	for _, s := range samples {
		metrics.SamplesClassified.WithLabelValues(res.Scheme, s.Zone.Label).Inc()
		if s.Zone.IsIndeterminate() {
			indeterminate++
		}
	}
	elapsed := e.now().Sub(start)
	metrics.CalculationsTotal.WithLabelValues(res.Scheme, "ok").Inc()
	metrics.CalculationLatency.WithLabelValues(res.Scheme).Observe(elapsed.Seconds())

	e.log.Info("cpt: calculated",
		zap.String("point", pointID),
		zap.String("scheme", res.Scheme),
		zap.Stringer("run", res.RunID),
		zap.Int("samples", len(samples)),
		zap.Int("indeterminate", indeterminate),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (e *Engine) fail(pointID, scheme string, err error) {
	metrics.CalculationsTotal.WithLabelValues(scheme, failureStatus(err)).Inc()
	e.log.Warn("cpt: calculation failed",
		zap.String("point", pointID),
		zap.String("scheme", scheme),
		zap.Error(err),
	)
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, classify.ErrUnknownScheme):
		return "unknown_scheme"
	case errors.Is(err, ErrStaleResult):
		return "stale"
	}
	return "error"
}

// CountZones tallies samples per zone label.
func CountZones(samples []models.ClassifiedSample) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.Zone.Label]++
	}
	return counts
}
