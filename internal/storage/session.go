package storage

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

var ErrSessionNotFound = errors.New("exam session not found")

// SessionStorage provides in-memory storage for exam sessions by session ID.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entities.ExamSession
}

// NewSessionStorage creates a new SessionStorage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[uuid.UUID]*entities.ExamSession),
	}
}

// Store saves a session under its ID.
func (s *SessionStorage) Store(session *entities.ExamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get retrieves the session with the given ID.
func (s *SessionStorage) Get(id uuid.UUID) (*entities.ExamSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session with the given ID.
func (s *SessionStorage) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
