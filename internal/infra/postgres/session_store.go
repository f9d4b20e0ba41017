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

type sessionRow struct {
	bun.BaseModel `bun:"table:live_question_sessions,alias:s"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	Token              string    `bun:"token,notnull"`
	QuestionID         string    `bun:"question_id,notnull"`
	Prompt             string    `bun:"prompt,notnull"`
	Options            []string  `bun:"options,type:jsonb,notnull"`
	CorrectOptionIndex int       `bun:"correct_option_index,notnull"`
	MeetingID          string    `bun:"meeting_id,notnull"`
	CourseID           string    `bun:"course_id,nullzero"`
	InstructorID       string    `bun:"instructor_id,notnull"`
	AssignedStudentID  string    `bun:"assigned_student_id,nullzero"`
	TimeLimitSeconds   int       `bun:"time_limit_seconds,notnull"`
	TriggeredAt        time.Time `bun:"triggered_at,notnull"`
	ExpiresAt          time.Time `bun:"expires_at,notnull"`
	Status             string    `bun:"status,notnull"`
	ResponseCount      int       `bun:"response_count,notnull"`
	CorrectCount       int       `bun:"correct_count,notnull"`
}

func toSessionRow(s domain.Session) sessionRow {
	return sessionRow{
		Token:              s.Token,
		QuestionID:         s.QuestionID,
		Prompt:             s.Prompt,
		Options:            s.Options,
		CorrectOptionIndex: s.CorrectOptionIndex,
		MeetingID:          s.MeetingID,
		CourseID:           s.CourseID,
		InstructorID:       s.InstructorID,
		AssignedStudentID:  s.AssignedStudentID,
		TimeLimitSeconds:   s.TimeLimitSeconds,
		TriggeredAt:        s.TriggeredAt,
		ExpiresAt:          s.ExpiresAt,
		Status:             string(s.Status),
		ResponseCount:      s.ResponseCount,
		CorrectCount:       s.CorrectCount,
	}
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID:                 strconv.FormatInt(r.ID, 10),
		Token:              r.Token,
		QuestionID:         r.QuestionID,
		Prompt:             r.Prompt,
		Options:            r.Options,
		CorrectOptionIndex: r.CorrectOptionIndex,
		MeetingID:          r.MeetingID,
		CourseID:           r.CourseID,
		InstructorID:       r.InstructorID,
		AssignedStudentID:  r.AssignedStudentID,
		TimeLimitSeconds:   r.TimeLimitSeconds,
		TriggeredAt:        r.TriggeredAt.UTC(),
		ExpiresAt:          r.ExpiresAt.UTC(),
		Status:             domain.SessionStatus(r.Status),
		ResponseCount:      r.ResponseCount,
		CorrectCount:       r.CorrectCount,
	}
}

// SessionStore persists sessions in Postgres through bun.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	row := toSessionRow(*session)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.ID = strconv.FormatInt(row.ID, 10)
	return nil
}

func (s *SessionStore) CreateBatch(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	rows := make([]sessionRow, len(sessions))
	for i, session := range sessions {
		rows[i] = toSessionRow(*session)
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert sessions: %w", err)
	}
	for i := range sessions {
		sessions[i].ID = strconv.FormatInt(rows[i].ID, 10)
	}
	return nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).Where("token = ?", token).Limit(1).Scan(ctx)
	return scanSession(row, err)
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	var row sessionRow
	err = s.db.NewSelect().Model(&row).Where("id = ?", pk).Scan(ctx)
	return scanSession(row, err)
}

func scanSession(row sessionRow, err error) (domain.Session, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return row.toDomain(), nil
}

func (s *SessionStore) Transition(ctx context.Context, id string, from, to domain.SessionStatus) (bool, error) {
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, domain.ErrSessionNotFound
	}
	res, err := s.db.NewUpdate().
		Model((*sessionRow)(nil)).
		Set("status = ?", string(to)).
		Where("id = ?", pk).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	exists, err := s.db.NewSelect().Model((*sessionRow)(nil)).Where("id = ?", pk).Exists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrSessionNotFound
	}
	return false, nil
}

func (s *SessionStore) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Session, error) {
	var rows []sessionRow
	err := s.db.NewSelect().Model(&rows).
		Where("meeting_id = ?", meetingID).
		Order("triggered_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return sessionsFromRows(rows), nil
}

func (s *SessionStore) ListByInstructor(ctx context.Context, instructorID string, status domain.SessionStatus) ([]domain.Session, error) {
	var rows []sessionRow
	q := s.db.NewSelect().Model(&rows).Where("instructor_id = ?", instructorID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Order("triggered_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return sessionsFromRows(rows), nil
}

func sessionsFromRows(rows []sessionRow) []domain.Session {
	out := make([]domain.Session, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}
