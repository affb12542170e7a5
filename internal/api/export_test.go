package api

import "github.com/lox/cptinterp/internal/cpt"

// CachedResult exposes the in-memory result of a point to the external tests.
func (s *Server) CachedResult(pointID string) *cpt.Result {
	return s.cachedResult(pointID)
}
