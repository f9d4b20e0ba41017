package memory

import (
	"context"
	"strconv"

	"live-question-service/internal/domain"
)

// ResponseStore records answers against a SessionStore, sharing its lock.
type ResponseStore struct {
	sessions *SessionStore
}

func NewResponseStore(sessions *SessionStore) *ResponseStore {
	return &ResponseStore{sessions: sessions}
}

func (r *ResponseStore) Record(_ context.Context, response *domain.Response) error {
	s := r.sessions
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[response.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.Status != domain.StatusActive {
		return &domain.GoneError{Status: session.Status}
	}
	key := responseKey{sessionID: response.SessionID, identity: response.StudentIdentity}
	if _, dup := s.answered[key]; dup {
		return domain.ErrConflict
	}

	s.seq++
	response.ID = strconv.Itoa(s.seq)
	s.answered[key] = struct{}{}
	s.responses[response.SessionID] = append(s.responses[response.SessionID], *response)
	session.ResponseCount++
	if response.IsCorrect {
		session.CorrectCount++
	}
	return nil
}

// ListBySession returns responses in submission order.
func (r *ResponseStore) ListBySession(_ context.Context, sessionID string) ([]domain.Response, error) {
	s := r.sessions
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Response{}, s.responses[sessionID]...), nil
}
