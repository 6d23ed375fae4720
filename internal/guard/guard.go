// Package guard gates admin views on a live session.
//
// A Guard starts in StateChecking. Mount subscribes to auth-state changes
// and then asks the backend for the session behind the request token. A
// missing session, or any error, redirects to LoginPath; otherwise the guard
// moves to StateAuthorized. While mounted, a notification that the guarded
// session ended, or the session reaching its expiry, triggers the same
// redirect. The redirect fires at most once
// per guard, and StateRedirected is terminal.
package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"jobboard/internal/backend"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/admin/login"

// State is the guard lifecycle state.
type State int

const (
	StateChecking State = iota
	StateAuthorized
	StateRedirected
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateRedirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Guard watches one session token.
type Guard struct {
	auth     backend.Auth
	token    string
	redirect func(to string)

	mu          sync.Mutex
	state       State
	session     *backend.Session
	unsubscribe func()
	expiry      *time.Timer

	// Sign-outs seen while checking, applied once the check returns.
	endedIDs map[string]bool
	endedAll bool

	once       sync.Once
	redirected chan struct{}
}

// New returns a guard for token. redirect is called with LoginPath at most
// once; it may be nil when the caller only watches Done.
func New(auth backend.Auth, token string, redirect func(to string)) *Guard {
	return &Guard{
		auth:       auth,
		token:      token,
		redirect:   redirect,
		state:      StateChecking,
		redirected: make(chan struct{}),
	}
}

// Mount runs the session check and returns the resulting state.
func (g *Guard) Mount(ctx context.Context) State {
	g.mu.Lock()
	if g.unsubscribe == nil {
		g.unsubscribe = g.auth.OnAuthStateChange(g.handle)
	}
	g.mu.Unlock()

	session, err := g.auth.GetSession(ctx, g.token)
	if err != nil {
		slog.Debug("session check failed", "error", err)
	}
	if err != nil || session == nil {
		g.fireRedirect()
		return g.State()
	}

	g.mu.Lock()
	ended := g.endedAll || g.endedIDs[session.ID]
	g.endedIDs, g.endedAll = nil, false
	if g.state == StateChecking && !ended {
		g.state = StateAuthorized
		g.session = session
		if !session.ExpiresAt.IsZero() {
			g.expiry = time.AfterFunc(time.Until(session.ExpiresAt), g.fireRedirect)
		}
	}
	g.mu.Unlock()
	if ended {
		g.fireRedirect()
	}
	return g.State()
}

// Unmount removes the auth-state subscription and the expiry timer. It is
// safe to call twice.
func (g *Guard) Unmount() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	if g.expiry != nil {
		g.expiry.Stop()
	}
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the authorized session, nil before authorization.
func (g *Guard) Session() *backend.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Done is closed when the guard redirects.
func (g *Guard) Done() <-chan struct{} {
	return g.redirected
}

// handle reacts to auth-state changes. Only events that end the guarded
// session count. While checking, the session is not known yet, so ended
// sessions are remembered for Mount.
func (g *Guard) handle(ev backend.AuthEvent) {
	if ev.Session != nil && ev.Type != backend.EventSignedOut {
		return
	}
	g.mu.Lock()
	if g.state == StateChecking {
		if ev.SessionID == "" {
			g.endedAll = true
		} else {
			if g.endedIDs == nil {
				g.endedIDs = make(map[string]bool)
			}
			g.endedIDs[ev.SessionID] = true
		}
		g.mu.Unlock()
		return
	}
	guarded := g.session
	g.mu.Unlock()
	if guarded == nil {
		return
	}
	if ev.SessionID != "" && ev.SessionID != guarded.ID {
		return
	}
	g.fireRedirect()
}

func (g *Guard) fireRedirect() {
	g.once.Do(func() {
		g.mu.Lock()
		g.state = StateRedirected
		g.mu.Unlock()
		close(g.redirected)
		if g.redirect != nil {
			g.redirect(LoginPath)
		}
	})
}
