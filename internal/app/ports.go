package app

import (
	"context"

	"live-question-service/internal/domain"
)

// QuestionBank gives read access to the question pool.
type QuestionBank interface {
	ByID(ctx context.Context, id string) (domain.Question, error)
	All(ctx context.Context) ([]domain.Question, error)
	Sample(ctx context.Context, n int, withoutReplacement bool) ([]domain.Question, error)
}

// SessionStore persists triggered sessions.
//
// Get methods return domain.ErrSessionNotFound for unknown keys. Transition is a
// compare-and-set on status and reports whether this call changed it.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	CreateBatch(ctx context.Context, sessions []*domain.Session) error
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Transition(ctx context.Context, id string, from, to domain.SessionStatus) (bool, error)
	ListByMeeting(ctx context.Context, meetingID string) ([]domain.Session, error)
	ListByInstructor(ctx context.Context, instructorID string, status domain.SessionStatus) ([]domain.Session, error)
}

// ResponseStore persists answers.
//
// Record inserts the response and bumps the owning session's counters as one
// unit. A second response for the same (session, identity) yields domain.ErrConflict.
type ResponseStore interface {
	Record(ctx context.Context, response *domain.Response) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error)
}

// ParticipantRegistry tracks who is currently in a meeting.
type ParticipantRegistry interface {
	Join(ctx context.Context, participant domain.Participant) error
	Leave(ctx context.Context, meetingID, studentID string) error
	List(ctx context.Context, meetingID string) ([]domain.Participant, error)
}

// NotificationSink delivers chat messages to a meeting or a single user.
type NotificationSink interface {
	SendToMeeting(ctx context.Context, meetingID, text string) error
	SendToUser(ctx context.Context, userID, text string) error
}
