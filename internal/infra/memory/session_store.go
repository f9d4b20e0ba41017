package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"live-question-service/internal/domain"
)

// SessionStore keeps sessions and their responses in process memory. One
// mutex guards both so that recording a response and bumping counters is atomic.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.Session
	tokens    map[string]string
	responses map[string][]domain.Response
	answered  map[responseKey]struct{}
	seq       int
}

type responseKey struct {
	sessionID string
	identity  string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*domain.Session),
		tokens:    make(map[string]string),
		responses: make(map[string][]domain.Response),
		answered:  make(map[responseKey]struct{}),
	}
}

func (s *SessionStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(session)
}

func (s *SessionStore) CreateBatch(_ context.Context, sessions []*domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		if _, taken := s.tokens[session.Token]; taken {
			return fmt.Errorf("token collision")
		}
		if _, dup := seen[session.Token]; dup {
			return fmt.Errorf("token collision")
		}
		seen[session.Token] = struct{}{}
	}
	for _, session := range sessions {
		if err := s.insertLocked(session); err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionStore) insertLocked(session *domain.Session) error {
	if _, taken := s.tokens[session.Token]; taken {
		return fmt.Errorf("token collision")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	stored := cloneSession(*session)
	s.sessions[stored.ID] = &stored
	s.tokens[stored.Token] = stored.ID
	return nil
}

func (s *SessionStore) GetByToken(_ context.Context, token string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(*s.sessions[id]), nil
}

func (s *SessionStore) GetByID(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(*session), nil
}

func (s *SessionStore) Transition(_ context.Context, id string, from, to domain.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if session.Status != from {
		return false, nil
	}
	session.Status = to
	return true, nil
}

func (s *SessionStore) ListByMeeting(_ context.Context, meetingID string) ([]domain.Session, error) {
	return s.filter(func(session *domain.Session) bool { return session.MeetingID == meetingID }), nil
}

func (s *SessionStore) ListByInstructor(_ context.Context, instructorID string, status domain.SessionStatus) ([]domain.Session, error) {
	return s.filter(func(session *domain.Session) bool {
		return session.InstructorID == instructorID && (status == "" || session.Status == status)
	}), nil
}

func (s *SessionStore) filter(keep func(*domain.Session) bool) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0)
	for _, session := range s.sessions {
		if keep(session) {
			out = append(out, cloneSession(*session))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TriggeredAt.Equal(out[j].TriggeredAt) {
			return out[i].TriggeredAt.Before(out[j].TriggeredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneSession(session domain.Session) domain.Session {
	session.Options = append([]string(nil), session.Options...)
	return session
}
