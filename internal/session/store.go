package session

import (
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned by Do when the user has no active dialog.
var ErrNoSession = errors.New("session: no active dialog")

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store holds active sessions keyed by user ID.
//
// Every stage transition for a user must happen inside Do: the per-user
// lock makes a check-and-transition atomic, so two presses of the same
// inline button resolve to exactly one winner. Different users never
// contend.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[int64]*entry)}
}

// Get returns a copy of the user's session, if any.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return Session{}, false
	}
	return *e.sess, true
}

// Put replaces the user's session, starting a fresh dialog.
func (s *Store) Put(sess Session) {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	e := s.entry(sess.UserID)
	e.mu.Lock()
	e.sess = &sess
	e.mu.Unlock()
}

// Remove drops the user's session. Removing an absent session is a no-op.
func (s *Store) Remove(userID int64) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.sess = nil
	e.mu.Unlock()
}

// Do runs fn under the user's lock with the live session. Returning
// ErrNoSession from the store (absent session) never invokes fn. If fn
// returns Remove=true the session is dropped before the lock is
// released, so a concurrent Do observes the absence atomically.
func (s *Store) Do(userID int64, fn func(sess *Session) (remove bool, err error)) error {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNoSession
	}
	remove, err := fn(e.sess)
	if remove {
		e.sess = nil
	}
	return err
}

// AwaitingInput reports whether the user's dialog expects free text.
func (s *Store) AwaitingInput(userID int64) bool {
	sess, ok := s.Get(userID)
	return ok && sess.Stage.AwaitsText()
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		e.mu.Lock()
		if e.sess != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (s *Store) entry(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	return e
}
