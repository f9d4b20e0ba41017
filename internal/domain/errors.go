package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a token, session or question id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrGone is returned when a session is no longer accepting reads or answers.
	ErrGone = errors.New("session no longer active")
	// ErrConflict is returned when an identity has already answered a session.
	ErrConflict = errors.New("already submitted")
	// ErrForbidden is returned when the caller may not act on a session.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when a request carries invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInsufficientQuestions indicates the bank cannot supply enough distinct questions.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrUnavailable indicates the backing store could not be reached.
	ErrUnavailable = errors.New("service unavailable")

	ErrSessionNotFound  = fmt.Errorf("question session %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrNoQuestions      = fmt.Errorf("no questions available: %w", ErrNotFound)
)

// GoneError carries the status a session held when it was rejected.
type GoneError struct {
	Status SessionStatus
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("this question session has %s", e.Status)
}

func (e *GoneError) Is(target error) bool {
	return target == ErrGone
}

// Validationf builds an ErrValidation with a detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
