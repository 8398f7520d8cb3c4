package session

import (
	"errors"
	"sync"
	"time"

	model "dialogrelay/internal/model/session"
)

var (
	// ErrCapacityExceeded rejects get-or-create once the per-client session
	// cap is reached.
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	// ErrSessionInactive rejects traffic for a deactivated session until an
	// operator reactivates it.
	ErrSessionInactive = errors.New("session is inactive")
	// ErrSessionNotFound reports an admin operation on an unknown chat.
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the concurrent per-client session collection. All mutation goes
// through its lock; the lock is never held across an interaction, only
// around map bookkeeping.
type Store struct {
	clientID string
	ttl      time.Duration
	max      int

	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewStore creates an empty store for one client. ttl <= 0 disables expiry,
// max <= 0 disables the capacity cap.
func NewStore(clientID string, ttl time.Duration, max int) *Store {
	return &Store{
		clientID: clientID,
		ttl:      ttl,
		max:      max,
		sessions: make(map[string]*model.Session),
	}
}

// GetOrCreate returns the live session for chatID, creating one when none
// exists, and reports whether this call created it. Stale entries (invalid
// or expired) are replaced in the same critical section, so two concurrent
// callers can never both create a session for the same chat.
func (s *Store) GetOrCreate(chatID string) (*model.Session, bool, error) {
	now := time.Now()

	s.mu.RLock()
	existing, ok := s.sessions[chatID]
	s.mu.RUnlock()
	if ok && s.live(existing, now) {
		if existing.Status() != model.StatusActive {
			return nil, false, ErrSessionInactive
		}
		return existing, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock: another caller may have created or
	// replaced the session since the read.
	if existing, ok := s.sessions[chatID]; ok {
		if s.live(existing, now) {
			if existing.Status() != model.StatusActive {
				return nil, false, ErrSessionInactive
			}
			return existing, false, nil
		}
		delete(s.sessions, chatID)
	}

	if s.max > 0 && len(s.sessions) >= s.max {
		return nil, false, ErrCapacityExceeded
	}

	created := model.New(s.clientID, chatID)
	s.sessions[chatID] = created
	return created, true, nil
}

// Get returns the session for chatID regardless of liveness, for admin use.
func (s *Store) Get(chatID string) (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok
}

// List snapshots all sessions currently in the store.
func (s *Store) List() []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of stored sessions, swept or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes every invalid or expired session whose interaction lock can
// be taken, and returns the chat IDs removed. Locked sessions are skipped
// this cycle; an in-flight interaction is never force-invalidated.
func (s *Store) Sweep() []string {
	now := time.Now()

	s.mu.RLock()
	candidates := make([]*model.Session, 0)
	for _, sess := range s.sessions {
		if !s.live(sess, now) {
			candidates = append(candidates, sess)
		}
	}
	s.mu.RUnlock()

	removed := make([]string, 0, len(candidates))
	for _, sess := range candidates {
		if !sess.TryLock() {
			continue
		}
		s.mu.Lock()
		// The entry may have been replaced while unlocked; only remove the
		// exact session instance we judged stale.
		if current, ok := s.sessions[sess.ChatID()]; ok && current == sess {
			delete(s.sessions, sess.ChatID())
			removed = append(removed, sess.ChatID())
		}
		s.mu.Unlock()
		sess.Unlock()
	}
	return removed
}

func (s *Store) live(sess *model.Session, now time.Time) bool {
	return sess.Valid() && !sess.Expired(s.ttl, now)
}
