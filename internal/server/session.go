package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kokukuma/mdoc-credential/mdoc"
)

// Session remembers a credential issued in this process so later
// requests can refer to it by ID.
type Session struct {
	ID       string
	Document *mdoc.Document
}

type Sessions struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
	}
}

func (s *Sessions) NewSession(doc *mdoc.Document) *Session {
	session := &Session{
		ID:       uuid.New().String(),
		Document: doc,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return session
}

func (s *Sessions) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("failed to get session: %s", id)
	}
	return session, nil
}

func (s *Sessions) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
