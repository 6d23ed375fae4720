package auth

import (
	"sync"

	"jobboard/internal/backend"
)

// Hub fans auth events out to in-process subscribers.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(backend.AuthEvent)
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(backend.AuthEvent))}
}

// Subscribe registers fn and returns its idempotent unsubscribe function.
func (h *Hub) Subscribe(fn func(backend.AuthEvent)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber. Subscribers run outside
// the lock and may unsubscribe from within their callback.
func (h *Hub) Publish(ev backend.AuthEvent) {
	h.mu.Lock()
	targets := make([]func(backend.AuthEvent), 0, len(h.subs))
	for _, fn := range h.subs {
		targets = append(targets, fn)
	}
	h.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
