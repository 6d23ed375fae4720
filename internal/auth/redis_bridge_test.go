package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/backend"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewRedisClient(RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBridgeRelaysRemoteEvents(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localHub := NewHub()
	remoteHub := NewHub()
	local := NewRedisBridge(client, "", localHub)
	remote := NewRedisBridge(client, "", remoteHub)
	require.NoError(t, local.Ping(ctx))

	received := make(chan backend.AuthEvent, 1)
	remoteHub.Subscribe(func(ev backend.AuthEvent) { received <- ev })
	echoed := make(chan backend.AuthEvent, 1)
	localHub.Subscribe(func(ev backend.AuthEvent) { echoed <- ev })

	ready, _ := remote.Run(ctx)
	<-ready
	localReady, _ := local.Run(ctx)
	<-localReady

	require.NoError(t, local.Publish(ctx, backend.AuthEvent{Type: backend.EventSignedOut, SessionID: "as-1"}))

	select {
	case ev := <-received:
		assert.Equal(t, backend.EventSignedOut, ev.Type)
		assert.Equal(t, "as-1", ev.SessionID)
		assert.Nil(t, ev.Session)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed event")
	}

	select {
	case ev := <-echoed:
		t.Fatalf("publisher should ignore its own event, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisBridgeCarriesSignedInSession(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteHub := NewHub()
	remote := NewRedisBridge(client, "test-channel", remoteHub)
	local := NewRedisBridge(client, "test-channel", NewHub())

	received := make(chan backend.AuthEvent, 1)
	remoteHub.Subscribe(func(ev backend.AuthEvent) { received <- ev })
	ready, _ := remote.Run(ctx)
	<-ready

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	err := local.Publish(ctx, backend.AuthEvent{
		Type:      backend.EventSignedIn,
		SessionID: "as-2",
		Session:   &backend.Session{ID: "as-2", UserID: "au-1", Email: "admin@acme.io", Token: "secret", ExpiresAt: expires},
	})
	require.NoError(t, err)

	select {
	case ev := <-received:
		require.NotNil(t, ev.Session)
		assert.Equal(t, "admin@acme.io", ev.Session.Email)
		assert.Empty(t, ev.Session.Token)
		assert.True(t, ev.Session.ExpiresAt.Equal(expires))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed event")
	}
}

func TestServiceRelaysThroughBridge(t *testing.T) {
	client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteHub := NewHub()
	remote := NewRedisBridge(client, "", remoteHub)
	ready, _ := remote.Run(ctx)
	<-ready

	localHub := NewHub()
	svc, _ := newTestService(t, WithHub(localHub), WithRelay(NewRedisBridge(client, "", localHub)))

	received := make(chan backend.AuthEvent, 2)
	remoteHub.Subscribe(func(ev backend.AuthEvent) { received <- ev })

	session, err := svc.SignInWithPassword(ctx, "admin@acme.io", "password-123")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, session.Token))

	var types []backend.AuthEventType
	for len(types) < 2 {
		select {
		case ev := <-received:
			types = append(types, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", types)
		}
	}
	assert.Equal(t, []backend.AuthEventType{backend.EventSignedIn, backend.EventSignedOut}, types)
}
