// Package theme resolves and persists the light/dark presentation preference.
package theme

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Theme is a presentation preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const (
	// CookieName holds the persisted preference.
	CookieName = "theme"
	// HintHeader is the client hint carrying the system color scheme.
	HintHeader = "Sec-CH-Prefers-Color-Scheme"

	cookieMaxAge = 365 * 24 * time.Hour
)

// Parse returns the theme named by raw.
func Parse(raw string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	default:
		return "", false
	}
}

// Other returns the opposite theme.
func (t Theme) Other() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Provider reads the preference from each request and writes it back
// through Set, the only setter.
type Provider struct {
	secure bool
}

// NewProvider returns a provider. secure marks the cookie Secure.
func NewProvider(secure bool) *Provider {
	return &Provider{secure: secure}
}

// Resolve returns the persisted preference, then the system preference,
// then Light.
func (p *Provider) Resolve(r *http.Request) Theme {
	if c, err := r.Cookie(CookieName); err == nil {
		if t, ok := Parse(c.Value); ok {
			return t
		}
	}
	if t, ok := Parse(strings.Trim(r.Header.Get(HintHeader), `"`)); ok {
		return t
	}
	return Light
}

// Set persists t for later requests.
func (p *Provider) Set(w http.ResponseWriter, t Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   int(cookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Toggle flips the resolved theme, persists it and returns the new value.
func (p *Provider) Toggle(w http.ResponseWriter, r *http.Request) Theme {
	next := p.Resolve(r).Other()
	p.Set(w, next)
	return next
}

// Middleware resolves the theme once per request and stores it in the
// request context. It also asks browsers for the color-scheme hint.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", HintHeader)
		w.Header().Add("Vary", HintHeader)
		ctx := WithTheme(r.Context(), p.Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey struct{}

// WithTheme returns ctx carrying t.
func WithTheme(ctx context.Context, t Theme) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the theme stored by Middleware, Light when absent.
func FromContext(ctx context.Context) Theme {
	if ctx == nil {
		return Light
	}
	if t, ok := ctx.Value(contextKey{}).(Theme); ok {
		return t
	}
	return Light
}
