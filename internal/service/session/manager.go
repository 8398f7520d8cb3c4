package session

import (
	"log"
	"sync"
	"time"

	model "dialogrelay/internal/model/session"
)

// Policy is the session lifecycle configuration of one client.
type Policy struct {
	TTL             time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	CleanupEnabled  bool
}

// Manager owns a client's session store and runs the background sweep
// according to the configured policy.
type Manager struct {
	clientID string
	store    *Store
	policy   Policy
	hub      *Hub

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewManager builds the store and, when cleanup is enabled, starts the
// sweeper goroutine. hub may be nil when nobody observes lifecycle events.
func NewManager(clientID string, policy Policy, hub *Hub) *Manager {
	m := &Manager{
		clientID: clientID,
		store:    NewStore(clientID, policy.TTL, policy.MaxSessions),
		policy:   policy,
		hub:      hub,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if policy.CleanupEnabled && policy.CleanupInterval > 0 {
		go m.sweepLoop()
	} else {
		close(m.done)
	}
	return m
}

// Close stops the background sweeper and waits for it to exit.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// GetOrCreate resolves the live session for chatID, creating one when
// needed, and publishes a created event for fresh sessions.
func (m *Manager) GetOrCreate(chatID string) (*model.Session, error) {
	sess, created, err := m.store.GetOrCreate(chatID)
	if err != nil {
		return nil, err
	}
	if created {
		m.publish(EventCreated, chatID)
	}
	return sess, nil
}

// Invalidate marks the chat's session dead; the sweeper removes it later.
func (m *Manager) Invalidate(chatID string) {
	if sess, ok := m.store.Get(chatID); ok {
		sess.Invalidate()
		m.publish(EventInvalidated, chatID)
	}
}

// Activate re-admits a deactivated session to normal traffic.
func (m *Manager) Activate(chatID string) error {
	sess, ok := m.store.Get(chatID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Activate()
	m.publish(EventActivated, chatID)
	return nil
}

// Deactivate makes the chat's session reject updates until reactivated.
func (m *Manager) Deactivate(chatID string) error {
	sess, ok := m.store.Get(chatID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Deactivate()
	m.publish(EventDeactivated, chatID)
	return nil
}

// List snapshots the client's sessions for the admin surface.
func (m *Manager) List() []*model.Session {
	return m.store.List()
}

// Sweep runs one cleanup cycle immediately.
func (m *Manager) Sweep() int {
	removed := m.store.Sweep()
	for _, chatID := range removed {
		m.publish(EventSwept, chatID)
	}
	return len(removed)
}

func (m *Manager) sweepLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.policy.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("[sessions] client=%s swept %d sessions", m.clientID, n)
			}
		}
	}
}

func (m *Manager) publish(typ EventType, chatID string) {
	if m.hub == nil {
		return
	}
	m.hub.Publish(Event{Type: typ, ClientID: m.clientID, ChatID: chatID, At: time.Now().UTC()})
}
