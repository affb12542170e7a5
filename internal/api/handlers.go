package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/classify"
	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
)

var errPointNotFound = errors.New("point not found")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errPointNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cpt.ErrInvalidConfiguration),
		errors.Is(err, cpt.ErrInvalidInput),
		errors.Is(err, classify.ErrUnknownScheme):
		status = http.StatusBadRequest
	case errors.Is(err, cpt.ErrStaleResult):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("api: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "ok",
		Schemes: len(s.engine.Schemes().Names()),
	}
	version, err := s.store.MigrationVersion()
	if err != nil {
		health.Status = "error"
		health.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}
	health.MigrationVersion = version
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	registry := s.engine.Schemes()
	var out []SchemeView
	for _, name := range registry.Names() {
		scheme, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, newSchemeView(scheme))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ParameterNames)
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	points, err := s.store.ListPoints()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]PointView, 0, len(points))
	for _, p := range points {
		out = append(out, newPointView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) point(id string) (*models.Point, error) {
	p, err := s.store.GetPoint(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %q", errPointNotFound, id)
	}
	return p, nil
}

func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.point(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	n, err := s.store.CountReadings(p.PointID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	v := newPointView(*p)
	v.Readings = &n
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	p, err := s.point(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	readings, err := s.store.GetReadings(p.PointID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ReadingView, 0, len(readings))
	for _, rd := range readings {
		out = append(out, newReadingView(rd))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleInterpret recalculates a probe from its stored readings. The request
// body may carry interpretation settings that override the manifest.
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	p, err := s.point(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	settings := s.cfg.Override(p.PointID)
	var body config.Interpretation
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		s.writeError(w, fmt.Errorf("%w: decode request: %v", cpt.ErrInvalidConfiguration, err))
		return
	}
	settings = settings.Merge(body)

	calc, err := settings.Calculation(*p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Reject bad settings before the cached probe takes the new readings,
	// which would drop its result.
	if err := calc.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.engine.Schemes().Lookup(calc.Method); err != nil {
		s.writeError(w, err)
		return
	}

	readings, err := s.store.GetReadings(p.PointID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.engine.Calculate(s.probe(*p, readings), calc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SaveResult(res); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewResultView(res))
}

func (s *Server) result(id string) (*cpt.Result, error) {
	p, err := s.point(id)
	if err != nil {
		return nil, err
	}
	if res := s.cachedResult(p.PointID); res != nil {
		return res, nil
	}
	res, err := s.store.LatestResult(p.PointID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %q has not been interpreted", errPointNotFound, p.PointID)
	}
	return res, nil
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewResultView(res))
}

// handleParameterSeries returns one parameter against depth for superimposing
// on a log.
func (s *Server) handleParameterSeries(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !validParameter(name) {
		s.writeError(w, fmt.Errorf("%w: unknown parameter %q", cpt.ErrInvalidInput, name))
		return
	}
	res, err := s.result(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ParameterValue, 0, len(res.Samples))
	for _, sample := range res.Samples {
		v, _ := sample.Parameter(name)
		out = append(out, ParameterValue{Depth: sample.Depth, Value: ptr(v)})
	}
	writeJSON(w, http.StatusOK, out)
}

func validParameter(name string) bool {
	for _, n := range models.ParameterNames {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, fmt.Errorf("%w: limit must be a positive integer", cpt.ErrInvalidInput))
			return
		}
		limit = n
	}
	runs, err := s.store.RecentImportRuns(limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]ImportRunView, 0, len(runs))
	for _, run := range runs {
		out = append(out, newImportRunView(run))
	}
	writeJSON(w, http.StatusOK, out)
}
