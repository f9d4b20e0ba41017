package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"live-question-service/internal/domain"
)

type responseRow struct {
	bun.BaseModel `bun:"table:question_responses,alias:r"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	SessionID           int64     `bun:"session_id,notnull"`
	StudentIdentity     string    `bun:"student_identity,notnull"`
	StudentID           string    `bun:"student_id,nullzero"`
	StudentName         string    `bun:"student_name,notnull"`
	StudentEmail        string    `bun:"student_email,nullzero"`
	SelectedOptionIndex int       `bun:"selected_option_index,notnull"`
	IsCorrect           bool      `bun:"is_correct,notnull"`
	ResponseTimeSeconds float64   `bun:"response_time_seconds,notnull"`
	Origin              string    `bun:"origin,nullzero"`
	SubmittedAt         time.Time `bun:"submitted_at,notnull"`
}

func (r responseRow) toDomain() domain.Response {
	return domain.Response{
		ID:                  strconv.FormatInt(r.ID, 10),
		SessionID:           strconv.FormatInt(r.SessionID, 10),
		StudentIdentity:     r.StudentIdentity,
		StudentID:           r.StudentID,
		StudentName:         r.StudentName,
		StudentEmail:        r.StudentEmail,
		SelectedOptionIndex: r.SelectedOptionIndex,
		IsCorrect:           r.IsCorrect,
		ResponseTimeSeconds: r.ResponseTimeSeconds,
		Origin:              r.Origin,
		SubmittedAt:         r.SubmittedAt.UTC(),
	}
}

// ResponseStore persists answers in Postgres. The counter update and the
// insert share one transaction; the unique index on (session_id,
// student_identity) rejects duplicates.
type ResponseStore struct {
	db *bun.DB
}

func NewResponseStore(db *bun.DB) *ResponseStore {
	return &ResponseStore{db: db}
}

func (s *ResponseStore) Record(ctx context.Context, response *domain.Response) error {
	sessionID, err := strconv.ParseInt(response.SessionID, 10, 64)
	if err != nil {
		return domain.ErrSessionNotFound
	}
	row := responseRow{
		SessionID:           sessionID,
		StudentIdentity:     response.StudentIdentity,
		StudentID:           response.StudentID,
		StudentName:         response.StudentName,
		StudentEmail:        response.StudentEmail,
		SelectedOptionIndex: response.SelectedOptionIndex,
		IsCorrect:           response.IsCorrect,
		ResponseTimeSeconds: response.ResponseTimeSeconds,
		Origin:              response.Origin,
		SubmittedAt:         response.SubmittedAt,
	}
	correct := 0
	if response.IsCorrect {
		correct = 1
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Locks the session row, serializing submissions per session. Only an
		// active session takes answers.
		res, err := tx.NewUpdate().
			Model((*sessionRow)(nil)).
			Set("response_count = response_count + 1").
			Set("correct_count = correct_count + ?", correct).
			Where("id = ?", sessionID).
			Where("status = ?", string(domain.StatusActive)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return closedSession(ctx, tx, sessionID)
		}
		_, err = tx.NewInsert().Model(&row).Exec(ctx)
		return err
	})
	var gone *domain.GoneError
	switch {
	case err == nil:
		response.ID = strconv.FormatInt(row.ID, 10)
		return nil
	case errors.As(err, &gone), errors.Is(err, domain.ErrSessionNotFound):
		return err
	case sqlState(err) == uniqueViolation:
		return domain.ErrConflict
	case sqlState(err) == foreignKeyViolation:
		return domain.ErrSessionNotFound
	default:
		return fmt.Errorf("record response: %w", err)
	}
}

// closedSession explains why the guarded counter update matched no row.
func closedSession(ctx context.Context, tx bun.Tx, sessionID int64) error {
	var status string
	err := tx.NewSelect().
		Model((*sessionRow)(nil)).
		Column("status").
		Where("id = ?", sessionID).
		Scan(ctx, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	return &domain.GoneError{Status: domain.SessionStatus(status)}
}

func (s *ResponseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	pk, err := strconv.ParseInt(sessionID, 10, 64)
	if err != nil {
		return []domain.Response{}, nil
	}
	var rows []responseRow
	err = s.db.NewSelect().Model(&rows).
		Where("session_id = ?", pk).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Response, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
