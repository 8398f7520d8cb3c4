package session

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the administrative state of a session. Inactive sessions reject
// traffic but stay in the store until swept, so an operator can reactivate
// them without losing dialog state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Session is one user-to-bot conversation: engine identity, validity window,
// opaque dialog state and the single resumable interactive record.
//
// The mutex serializes interactions for the same chat; different sessions
// never share a lock. dialogState and pending are only touched while the
// mutex is held. Status, validity and the interaction timestamp are atomics
// so the sweeper and admin calls read them without contending with an
// in-flight interaction.
type Session struct {
	chatID string
	keys   Keys

	mu sync.Mutex

	active          atomic.Bool
	valid           atomic.Bool
	lastInteraction atomic.Int64 // unix seconds

	dialogState json.RawMessage
	pending     *SentRecord
}

// New creates an active, valid session for a chat. The interaction clock
// starts at now so a freshly created session survives until TTL from now.
func New(clientID, chatID string) *Session {
	s := &Session{
		chatID: chatID,
		keys:   DeriveKeys(clientID, chatID),
	}
	s.active.Store(true)
	s.valid.Store(true)
	s.lastInteraction.Store(time.Now().Unix())
	return s
}

// ChatID returns the platform chat identifier this session tracks.
func (s *Session) ChatID() string { return s.chatID }

// Keys returns the engine identity of the session.
func (s *Session) Keys() Keys { return s.keys }

// Lock acquires the per-session interaction lock, blocking until the
// previous update for the same chat finishes.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the interaction lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// TryLock attempts the interaction lock without blocking. The sweeper uses
// it so cleanup never preempts an in-flight interaction.
func (s *Session) TryLock() bool { return s.mu.TryLock() }

// Status reports ACTIVE or INACTIVE.
func (s *Session) Status() Status {
	if s.active.Load() {
		return StatusActive
	}
	return StatusInactive
}

// Activate re-admits the session to normal traffic.
func (s *Session) Activate() { s.active.Store(true) }

// Deactivate makes the session reject new interactions until reactivated.
// Dialog state is untouched.
func (s *Session) Deactivate() { s.active.Store(false) }

// Valid reports whether the session may serve further interactions. Invalid
// sessions are replaced by the next get-or-create and removed by the sweep.
func (s *Session) Valid() bool { return s.valid.Load() }

// Invalidate marks the session dead. Removal stays with the sweeper to avoid
// pulling the session out from under a caller mid-interaction.
func (s *Session) Invalidate() { s.valid.Store(false) }

// LastInteraction returns the time of the last successful interaction.
func (s *Session) LastInteraction() time.Time {
	return time.Unix(s.lastInteraction.Load(), 0)
}

// Touch refreshes the interaction timestamp, restarting the TTL window.
func (s *Session) Touch(at time.Time) { s.lastInteraction.Store(at.Unix()) }

// Expired reports whether the session outlived ttl. A zero ttl disables
// expiry.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastInteraction()) > ttl
}

// DialogState returns the opaque engine state token. Caller must hold the
// session lock.
func (s *Session) DialogState() json.RawMessage { return s.dialogState }

// SetDialogState stores the engine state token returned by the last call.
// Caller must hold the session lock.
func (s *Session) SetDialogState(state json.RawMessage) { s.dialogState = state }

// Pending returns the resumable interactive record, or nil. Caller must hold
// the session lock.
func (s *Session) Pending() *SentRecord { return s.pending }

// SetPending overwrites the resumable record; nil clears it. Caller must
// hold the session lock.
func (s *Session) SetPending(record *SentRecord) { s.pending = record }
