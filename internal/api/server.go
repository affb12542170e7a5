package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lox/cptinterp/internal/config"
	"github.com/lox/cptinterp/internal/cpt"
	"github.com/lox/cptinterp/internal/models"
	"github.com/lox/cptinterp/internal/store"
)

type Server struct {
	store  *store.Store
	engine *cpt.Engine
	cfg    *config.Config
	log    *zap.Logger

	mu     sync.Mutex
	probes map[string]*cpt.Probe
}

func NewServer(st *store.Store, engine *cpt.Engine, cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Server{
		store:  st,
		engine: engine,
		cfg:    cfg,
		log:    log,
		probes: make(map[string]*cpt.Probe),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/schemes", s.handleSchemes)
	mux.HandleFunc("GET /api/parameters", s.handleParameters)
	mux.HandleFunc("GET /api/points", s.handlePoints)
	mux.HandleFunc("GET /api/points/{id}", s.handlePoint)
	mux.HandleFunc("GET /api/points/{id}/readings", s.handleReadings)
	mux.HandleFunc("POST /api/points/{id}/interpret", s.handleInterpret)
	mux.HandleFunc("GET /api/points/{id}/result", s.handleResult)
	mux.HandleFunc("GET /api/points/{id}/parameters/{name}", s.handleParameterSeries)
	mux.HandleFunc("GET /api/imports", s.handleImports)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info("api: listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// probe returns the cached probe for a point with readings as its raw series.
func (s *Server) probe(point models.Point, readings []models.RawReading) *cpt.Probe {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.probes[point.PointID]
	if !ok || p.Point() != point {
		p = cpt.NewProbe(point, readings)
		s.probes[point.PointID] = p
		return p
	}
	p.SetReadings(readings)
	return p
}

func (s *Server) cachedResult(pointID string) *cpt.Result {
	s.mu.Lock()
	p, ok := s.probes[pointID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Result()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
