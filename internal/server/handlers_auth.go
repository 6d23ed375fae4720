package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"jobboard/internal/api"
	"jobboard/internal/backend"
)

var errTooManyLogins = apiError{
	status:  http.StatusTooManyRequests,
	code:    "resource_exhausted",
	errCode: ErrCodeResourceExhausted,
	err:     fmt.Errorf("too many login attempts; retry later"),
}

// signIn runs one password sign-in through the rate limiter. Errors are
// apiErrors ready to be written.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, email, password string) (*backend.Session, error) {
	if s.auth == nil {
		return nil, notConfigured("auth")
	}

	now := time.Now().UTC()
	limiterKey := loginAttemptKey(email, r)
	if wait := s.loginLimiter.Check(limiterKey, now); wait > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)))
		return nil, errTooManyLogins
	}

	session, err := s.auth.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		var be *backend.Error
		switch {
		case backend.KindOf(err) == backend.KindUnauthorized:
			if s.loginLimiter.RegisterFailure(limiterKey, now) {
				s.log().Warn("login blocked", "key", limiterKey)
			}
			return nil, unauthorized(errors.New("invalid credentials"))
		case !errors.As(err, &be):
			return nil, badRequestCode(err, ErrCodeMissingRequired)
		default:
			return nil, storeFailure(err)
		}
	}
	s.loginLimiter.Reset(limiterKey)
	s.setSessionCookie(w, r, session)
	return session, nil
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) error {
	if token := sessionTokenFromRequest(r); token != "" && s.auth != nil {
		if err := s.auth.SignOut(r.Context(), token); err != nil {
			return storeFailure(err)
		}
	}
	s.clearSessionCookie(w, r)
	return nil
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req api.AuthLoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	session, err := s.signIn(w, r, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse(session))
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.signOut(w, r); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuthSession reports whether the cookie names a live session. It
// answers 200 either way.
func (s *Server) handleAuthSession(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		s.writeServiceError(w, r, notConfigured("auth"))
		return
	}
	session, err := s.auth.GetSession(r.Context(), sessionTokenFromRequest(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse(session))
}

func sessionResponse(session *backend.Session) api.AuthSessionResponse {
	if session == nil {
		return api.AuthSessionResponse{}
	}
	expires := session.ExpiresAt
	return api.AuthSessionResponse{Authenticated: true, Email: session.Email, ExpiresAt: &expires}
}

// loginAttemptKey buckets failures by client address and account so one
// noisy client cannot lock an admin out from everywhere.
func loginAttemptKey(email string, r *http.Request) string {
	account := strings.ToLower(strings.TrimSpace(email))
	if account == "" {
		account = "<empty>"
	}
	return clientAddr(r) + "|" + account
}

// clientAddr is the host part of RemoteAddr, or "<unknown>".
func clientAddr(r *http.Request) string {
	if r == nil {
		return "<unknown>"
	}
	if ap, err := netip.ParseAddrPort(strings.TrimSpace(r.RemoteAddr)); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.RemoteAddr)); err == nil {
		return addr.Unmap().String()
	}
	if host := strings.TrimSpace(r.RemoteAddr); host != "" {
		return host
	}
	return "<unknown>"
}
