package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobboard/internal/backend"
	"jobboard/internal/store"
)

// DefaultSessionTTL is the lifetime of a browser session.
const DefaultSessionTTL = 24 * time.Hour

// EventRelay forwards locally published events to other instances.
type EventRelay interface {
	Publish(ctx context.Context, ev backend.AuthEvent) error
}

// Service is password authentication backed by the row store. It implements
// backend.Auth.
type Service struct {
	store      store.AuthStore
	hub        *Hub
	relay      EventRelay
	sessionTTL time.Duration
	now        func() time.Time
}

var _ backend.Auth = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithHub shares hub with other components, such as a Redis bridge.
func WithHub(hub *Hub) Option {
	return func(s *Service) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// WithRelay forwards every local event to relay.
func WithRelay(relay EventRelay) Option {
	return func(s *Service) { s.relay = relay }
}

// NewService builds an auth service on authStore.
func NewService(authStore store.AuthStore, opts ...Option) *Service {
	s := &Service{
		store:      authStore,
		hub:        NewHub(),
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionTTL returns the configured session lifetime.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Hub returns the event hub subscribers are registered on.
func (s *Service) Hub() *Hub {
	return s.hub
}

// AuthRequired reports whether any enabled admin exists.
func (s *Service) AuthRequired(ctx context.Context) (bool, error) {
	count, err := s.store.CountEnabledUsers(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SignInWithPassword verifies credentials and opens a new session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	user, err := s.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		return nil, backend.Wrap("sign in", err)
	}
	var hash string
	if user != nil && !user.Disabled {
		hash = user.PasswordHash
	}
	if !VerifyPassword(hash, password) {
		return nil, backend.Unauthorized("sign in", "Invalid login credentials")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.sessionTTL)
	sessionID, err := s.store.CreateSession(ctx, user.ID, hashSessionToken(token), expiresAt, now)
	if err != nil {
		return nil, backend.Wrap("sign in", err)
	}

	session := &backend.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	s.publish(ctx, backend.AuthEvent{Type: backend.EventSignedIn, SessionID: sessionID, Session: session})
	return session, nil
}

// SignOut revokes the session for token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	sessionID, err := s.store.RevokeSessionByTokenHash(ctx, hashSessionToken(token), s.now().UTC())
	if err != nil {
		return backend.Wrap("sign out", err)
	}
	if sessionID != "" {
		s.publish(ctx, backend.AuthEvent{Type: backend.EventSignedOut, SessionID: sessionID})
	}
	return nil
}

// GetSession returns the live session for token, or nil.
func (s *Service) GetSession(ctx context.Context, token string) (*backend.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	found, err := s.store.GetSessionByTokenHash(ctx, hashSessionToken(token), s.now().UTC())
	if err != nil {
		return nil, backend.Wrap("get session", err)
	}
	if found == nil {
		return nil, nil
	}
	return &backend.Session{
		ID:        found.ID,
		UserID:    found.UserID,
		Email:     found.Email,
		Token:     token,
		ExpiresAt: found.ExpiresAt,
	}, nil
}

// OnAuthStateChange registers fn for every later sign-in and sign-out.
func (s *Service) OnAuthStateChange(fn func(backend.AuthEvent)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Service) publish(ctx context.Context, ev backend.AuthEvent) {
	s.hub.Publish(ev)
	if s.relay == nil {
		return
	}
	if err := s.relay.Publish(ctx, ev); err != nil {
		slog.Warn("auth event relay failed", "type", ev.Type, "session_id", ev.SessionID, "error", err)
	}
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
