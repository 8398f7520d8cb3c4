package session

import (
	"sync"
	"time"
)

// EventType labels a session lifecycle transition.
type EventType string

const (
	EventCreated     EventType = "created"
	EventSwept       EventType = "swept"
	EventInvalidated EventType = "invalidated"
	EventActivated   EventType = "activated"
	EventDeactivated EventType = "deactivated"
)

// Event is one lifecycle transition, published to admin observers.
type Event struct {
	Type     EventType `json:"type"`
	ClientID string    `json:"clientId"`
	ChatID   string    `json:"chatId"`
	At       time.Time `json:"at"`
}

// Hub fans session lifecycle events out to subscribers. Publishing never
// blocks: slow subscribers drop events rather than stalling interactions.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers an observer. The returned cancel func must be called
// when the observer goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan Event, 32)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
