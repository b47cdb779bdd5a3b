package memory

import (
	"sync"

	"quiz-master-service/internal/app"
	"quiz-master-service/internal/domain"
)

// SessionStore is the in-memory implementation of app.SessionRepository.
// Session state lives for the process lifetime at most; a finalized or
// abandoned attempt is deleted, never persisted.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.AttemptKey]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.AttemptKey]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(key domain.AttemptKey, create func() *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session
	}
	session := create()
	s.sessions[key] = session
	return session
}

func (s *SessionStore) Get(key domain.AttemptKey) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) Delete(key domain.AttemptKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}
