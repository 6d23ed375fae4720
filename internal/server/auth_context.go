package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"jobboard/internal/backend"
	"jobboard/internal/guard"
	"jobboard/internal/metrics"
)

const sessionCookieName = "jobboard_session"

type sessionContextKey struct{}

func contextWithSession(ctx context.Context, session *backend.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func sessionFromContext(ctx context.Context) (*backend.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(*backend.Session)
	return session, ok && session != nil
}

func sessionTokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func requestScheme(r *http.Request) string {
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(proto)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (s *Server) secureCookie(r *http.Request) bool {
	return s.cookieSecure || requestScheme(r) == "https"
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, session *backend.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.auth.SessionTTL() / time.Second),
		Expires:  session.ExpiresAt,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// requireAdminAPI rejects requests without a live session with 401.
func (s *Server) requireAdminAPI(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.writeServiceError(w, r, notConfigured("auth"))
			return
		}
		session, err := s.auth.GetSession(r.Context(), sessionTokenFromRequest(r))
		if err != nil {
			s.log().Debug("session check failed", "path", r.URL.Path, "error", err)
		}
		if err != nil || session == nil {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errors.New("unauthorized")))
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithSession(r.Context(), session)))
	})
}

// requireAdminPage mounts a session guard for the request and sends the
// browser to the login page when the guard redirects.
func (s *Server) requireAdminPage(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.renderError(w, r, notConfigured("auth"))
			return
		}
		g := guard.New(s.auth, sessionTokenFromRequest(r), nil)
		state := g.Mount(r.Context())
		defer g.Unmount()

		if state != guard.StateAuthorized {
			metrics.GuardRedirects.Inc()
			http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithSession(r.Context(), g.Session())))
	})
}
