// Package services holds the apiserver's business logic, kept separate
// from its HTTP controllers in the same way walletserver/services does.
package services

import (
	"sync"

	"github.com/obinexus/blueshare/core"
)

// SessionService tracks recently run sessions in memory so the HTTP API
// can report their status without reaching back into a SessionCoordinator.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewSessionService builds an empty SessionService.
func NewSessionService() *SessionService {
	return &SessionService{sessions: make(map[string]*core.Session)}
}

// Record stores or overwrites the session under its SessionID.
func (s *SessionService) Record(sess *core.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

// Get returns the session with the given ID, or false if unknown.
func (s *SessionService) Get(id string) (*core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// List returns a snapshot of all tracked sessions.
func (s *SessionService) List() []*core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
