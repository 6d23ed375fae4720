package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobboard/internal/auth"
)

// readEvent returns the next SSE event name, skipping comments.
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("stream ended before an event: %v", sc.Err())
	return "", ""
}

func openEvents(t *testing.T, baseURL string, cookie *http.Cookie) *bufio.Scanner {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/admin/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	return bufio.NewScanner(resp.Body)
}

func TestAdminEventsRedirectWithoutSession(t *testing.T) {
	env := newTestServer(t)
	ts := httptest.NewServer(env.h)
	defer ts.Close()

	event, data := readEvent(t, openEvents(t, ts.URL, nil))
	if event != "redirect" || data != "/admin/login" {
		t.Fatalf("expected redirect to login, got %q %q", event, data)
	}
}

func TestAdminEventsRedirectOnSignOut(t *testing.T) {
	env := newTestServer(t)
	seedAdminUser(t, env, testAdminEmail, testAdminPassword)
	cookie := loginCookie(t, env)
	ts := httptest.NewServer(env.h)
	defer ts.Close()

	sc := openEvents(t, ts.URL, cookie)
	if event, data := readEvent(t, sc); event != "ready" || data != testAdminEmail {
		t.Fatalf("expected ready event, got %q %q", event, data)
	}

	if err := env.srv.auth.SignOut(context.Background(), cookie.Value); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if event, _ := readEvent(t, sc); event != "redirect" {
		t.Fatalf("expected redirect after sign-out, got %q", event)
	}
}

func TestAdminEventsRedirectOnSessionExpiry(t *testing.T) {
	env := newTestServer(t)
	env.srv.auth = auth.NewService(env.store, auth.WithSessionTTL(time.Second))
	seedAdminUser(t, env, testAdminEmail, testAdminPassword)
	cookie := loginCookie(t, env)
	ts := httptest.NewServer(env.h)
	defer ts.Close()

	sc := openEvents(t, ts.URL, cookie)
	if event, _ := readEvent(t, sc); event != "ready" {
		t.Fatalf("expected ready event, got %q", event)
	}
	if event, data := readEvent(t, sc); event != "redirect" || data != "/admin/login" {
		t.Fatalf("expected redirect once the session expires, got %q %q", event, data)
	}
}

func TestAdminEventsIgnoreOtherSessions(t *testing.T) {
	env := newTestServer(t)
	env.srv.sseHeartbeat = 20 * time.Millisecond
	seedAdminUser(t, env, testAdminEmail, testAdminPassword)
	watched := loginCookie(t, env)
	other := loginCookie(t, env)
	ts := httptest.NewServer(env.h)
	defer ts.Close()

	sc := openEvents(t, ts.URL, watched)
	if event, _ := readEvent(t, sc); event != "ready" {
		t.Fatalf("expected ready event, got %q", event)
	}
	if err := env.srv.auth.SignOut(context.Background(), other.Value); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	// Heartbeats keep arriving; no redirect event shows up.
	deadline := time.After(200 * time.Millisecond)
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	pings := 0
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed unexpectedly")
			}
			if strings.HasPrefix(line, "event: redirect") {
				t.Fatal("unexpected redirect for another session")
			}
			if line == ": ping" {
				pings++
			}
		case <-deadline:
			if pings == 0 {
				t.Fatal("expected heartbeats")
			}
			return
		}
	}
}
