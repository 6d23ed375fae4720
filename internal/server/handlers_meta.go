package server

import (
	"net/http"

	"jobboard/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log().Warn("health check failed", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}
