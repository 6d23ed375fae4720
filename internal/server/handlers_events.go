package server

import (
	"fmt"
	"net/http"
	"time"

	"jobboard/internal/guard"
	"jobboard/internal/metrics"
)

// handleAdminEvents keeps a session guard mounted for an open dashboard and
// pushes a redirect event when the session ends.
func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		s.writeServiceError(w, r, notConfigured("auth"))
		return
	}

	g := guard.New(s.auth, sessionTokenFromRequest(r), nil)
	state := g.Mount(r.Context())
	defer g.Unmount()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event, data string) bool {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if state != guard.StateAuthorized {
		metrics.GuardRedirects.Inc()
		send("redirect", guard.LoginPath)
		return
	}
	if !send("ready", g.Session().Email) {
		return
	}

	heartbeat := s.sseHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-g.Done():
			metrics.GuardRedirects.Inc()
			s.log().Info("session ended, redirecting dashboard", "email", g.Session().Email)
			send("redirect", guard.LoginPath)
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
