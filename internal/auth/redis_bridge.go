package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/backend"
)

// DefaultEventChannel is the Redis channel auth events travel on.
const DefaultEventChannel = "jobboard:auth-events"

// RedisConfig holds connection settings for the event bridge.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Channel  string
}

// NewRedisClient builds a go-redis client with conservative timeouts.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisBridge relays auth events between service instances over pub/sub.
// Events published by this instance are ignored on receipt.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	hub        *Hub
	instanceID string
}

type bridgeMessage struct {
	Instance  string                `json:"instance"`
	Type      backend.AuthEventType `json:"type"`
	SessionID string                `json:"session_id"`
	UserID    string                `json:"user_id,omitempty"`
	Email     string                `json:"email,omitempty"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
}

// NewRedisBridge delivers remote events into hub.
func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisBridge{
		client:     client,
		channel:    channel,
		hub:        hub,
		instanceID: uuid.NewString(),
	}
}

// Ping checks the Redis connection.
func (b *RedisBridge) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Publish sends ev to the other instances. Session tokens never leave the
// process.
func (b *RedisBridge) Publish(ctx context.Context, ev backend.AuthEvent) error {
	msg := bridgeMessage{Instance: b.instanceID, Type: ev.Type, SessionID: ev.SessionID}
	if ev.Session != nil {
		expires := ev.Session.ExpiresAt
		msg.UserID = ev.Session.UserID
		msg.Email = ev.Session.Email
		msg.ExpiresAt = &expires
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run subscribes to the channel and forwards remote events until ctx is
// done. The returned channel is closed once the subscription is live.
func (b *RedisBridge) Run(ctx context.Context) (<-chan struct{}, <-chan error) {
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		defer close(done)
		sub := b.client.Subscribe(ctx, b.channel)
		defer sub.Close()

		if _, err := sub.Receive(ctx); err != nil {
			close(ready)
			done <- fmt.Errorf("subscribe %s: %w", b.channel, err)
			return
		}
		close(ready)

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-messages:
				if !ok {
					return
				}
				b.deliver(m.Payload)
			}
		}
	}()

	return ready, done
}

func (b *RedisBridge) deliver(payload string) {
	var msg bridgeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		slog.Warn("discarding malformed auth event", "error", err)
		return
	}
	if msg.Instance == b.instanceID {
		return
	}
	ev := backend.AuthEvent{Type: msg.Type, SessionID: msg.SessionID}
	if msg.Type == backend.EventSignedIn && msg.ExpiresAt != nil {
		ev.Session = &backend.Session{
			ID:        msg.SessionID,
			UserID:    msg.UserID,
			Email:     msg.Email,
			ExpiresAt: *msg.ExpiresAt,
		}
	}
	b.hub.Publish(ev)
}
