package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"live-question-service/internal/domain"
)

const (
	DefaultTimeLimitSeconds = 30
	DefaultGracePeriod      = 300 * time.Second

	deliveryConcurrency = 8
)

// Settings tune session timing and link generation.
type Settings struct {
	BaseURL                 string
	DefaultTimeLimitSeconds int
	GracePeriod             time.Duration
}

// Dependencies are the collaborators of LiveQuestionService. Questions,
// Sessions and Responses are required; the rest may be nil.
type Dependencies struct {
	Questions    QuestionBank
	Sessions     SessionStore
	Responses    ResponseStore
	Participants ParticipantRegistry
	Notifier     NotificationSink
	Publisher    Publisher
}

// LiveQuestionService runs the lifecycle of live questions.
type LiveQuestionService struct {
	questions    QuestionBank
	sessions     SessionStore
	responses    ResponseStore
	participants ParticipantRegistry
	notifier     NotificationSink
	publisher    Publisher

	settings Settings
	now      func() time.Time
	newToken func() string
}

type Option func(*LiveQuestionService)

// WithClock overrides the time source; tests use it to cross expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *LiveQuestionService) { s.now = now }
}

// WithTokenSource overrides session token generation.
func WithTokenSource(next func() string) Option {
	return func(s *LiveQuestionService) { s.newToken = next }
}

func NewLiveQuestionService(deps Dependencies, settings Settings, opts ...Option) *LiveQuestionService {
	if settings.DefaultTimeLimitSeconds <= 0 {
		settings.DefaultTimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if settings.GracePeriod < 0 {
		settings.GracePeriod = 0
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	s := &LiveQuestionService{
		questions:    deps.Questions,
		sessions:     deps.Sessions,
		responses:    deps.Responses,
		participants: deps.Participants,
		notifier:     deps.Notifier,
		publisher:    deps.Publisher,
		settings:     settings,
		now:          time.Now,
		newToken:     NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewToken returns a random v4 UUID as 22 characters of unpadded base64url.
func NewToken() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// QuestionURL is the student-facing link for a session token.
func (s *LiveQuestionService) QuestionURL(token string) string {
	return s.settings.BaseURL + "/question/" + token
}

type TriggerRequest struct {
	QuestionID       string `json:"questionId,omitempty"`
	MeetingID        string `json:"meetingId"`
	CourseID         string `json:"courseId,omitempty"`
	TimeLimitSeconds int    `json:"timeLimitSeconds,omitempty"`
	Deliver          bool   `json:"deliver"`
}

type TriggerResult struct {
	Session     domain.Session `json:"session"`
	QuestionURL string         `json:"questionUrl"`
	Delivered   bool           `json:"delivered"`
}

// Trigger starts a question for a whole meeting.
func (s *LiveQuestionService) Trigger(ctx context.Context, caller domain.Identity, req TriggerRequest) (TriggerResult, error) {
	if err := requireInstructor(caller); err != nil {
		return TriggerResult{}, err
	}
	meetingID := strings.TrimSpace(req.MeetingID)
	if meetingID == "" {
		return TriggerResult{}, domain.Validationf("meetingId is required")
	}

	question, err := s.pickQuestion(ctx, strings.TrimSpace(req.QuestionID))
	if err != nil {
		return TriggerResult{}, err
	}

	session := s.newSession(question, caller.ID, meetingID, req.CourseID, req.TimeLimitSeconds)
	if err := s.sessions.Create(ctx, &session); err != nil {
		return TriggerResult{}, s.storeErr("create session", err)
	}
	url := s.QuestionURL(session.Token)

	log.Info().
		Str("sessionId", session.ID).
		Str("meetingId", meetingID).
		Str("questionId", question.ID).
		Str("instructorId", caller.ID).
		Msg("question triggered")

	s.publish(Event{Type: EventQuestion, MeetingID: meetingID, Payload: session.Public()})

	delivered := false
	if req.Deliver {
		delivered = s.deliverToMeeting(ctx, session, url)
	}
	return TriggerResult{Session: session, QuestionURL: url, Delivered: delivered}, nil
}

func (s *LiveQuestionService) pickQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if questionID != "" {
		q, err := s.questions.ByID(ctx, questionID)
		if err != nil {
			return domain.Question{}, s.storeErr("load question", err)
		}
		return q, nil
	}
	pool, err := s.questions.All(ctx)
	if err != nil {
		return domain.Question{}, s.storeErr("load questions", err)
	}
	return PickQuestion(pool)
}

func (s *LiveQuestionService) newSession(q domain.Question, instructorID, meetingID, courseID string, limit int) domain.Session {
	if limit <= 0 {
		limit = s.settings.DefaultTimeLimitSeconds
	}
	now := s.now().UTC()
	return domain.Session{
		Token:              s.newToken(),
		QuestionID:         q.ID,
		Prompt:             q.Prompt,
		Options:            append([]string(nil), q.Options...),
		CorrectOptionIndex: q.CorrectOptionIndex,
		MeetingID:          meetingID,
		CourseID:           strings.TrimSpace(courseID),
		InstructorID:       instructorID,
		TimeLimitSeconds:   limit,
		TriggeredAt:        now,
		ExpiresAt:          now.Add(time.Duration(limit)*time.Second + s.settings.GracePeriod),
		Status:             domain.StatusActive,
	}
}

type IndividualRequest struct {
	MeetingID        string `json:"meetingId"`
	CourseID         string `json:"courseId,omitempty"`
	TimeLimitSeconds int    `json:"timeLimitSeconds,omitempty"`
	Deliver          bool   `json:"deliver"`
}

// Assignment pairs a personalized session with its addressee.
type Assignment struct {
	Session     domain.Session `json:"session"`
	StudentID   string         `json:"studentId"`
	StudentName string         `json:"studentName"`
	QuestionURL string         `json:"questionUrl"`
	Delivered   bool           `json:"delivered"`
}

// TriggerIndividual gives every participant of a meeting a distinct question.
// Either all sessions are persisted or none are.
func (s *LiveQuestionService) TriggerIndividual(ctx context.Context, caller domain.Identity, req IndividualRequest) ([]Assignment, error) {
	if err := requireInstructor(caller); err != nil {
		return nil, err
	}
	meetingID := strings.TrimSpace(req.MeetingID)
	if meetingID == "" {
		return nil, domain.Validationf("meetingId is required")
	}
	if s.participants == nil {
		return nil, domain.Validationf("no participants found in meeting %s", meetingID)
	}

	participants, err := s.participants.List(ctx, meetingID)
	if err != nil {
		return nil, s.storeErr("list participants", err)
	}
	if len(participants) == 0 {
		return nil, domain.Validationf("no participants found in meeting %s", meetingID)
	}

	questions, err := s.questions.Sample(ctx, len(participants), true)
	if err != nil {
		return nil, s.storeErr("sample questions", err)
	}

	sessions := make([]*domain.Session, len(participants))
	for i, p := range participants {
		session := s.newSession(questions[i], caller.ID, meetingID, req.CourseID, req.TimeLimitSeconds)
		session.AssignedStudentID = p.StudentID
		sessions[i] = &session
	}
	if err := s.sessions.CreateBatch(ctx, sessions); err != nil {
		return nil, s.storeErr("create sessions", err)
	}

	assignments := make([]Assignment, len(participants))
	for i, p := range participants {
		assignments[i] = Assignment{
			Session:     *sessions[i],
			StudentID:   p.StudentID,
			StudentName: p.Name,
			QuestionURL: s.QuestionURL(sessions[i].Token),
		}
		s.publish(Event{Type: EventQuestion, MeetingID: meetingID, To: p.StudentID, Payload: sessions[i].Public()})
	}

	log.Info().
		Str("meetingId", meetingID).
		Str("instructorId", caller.ID).
		Int("count", len(assignments)).
		Msg("individual questions triggered")

	if req.Deliver && s.notifier != nil {
		s.deliverAssignments(ctx, participants, assignments)
	}
	return assignments, nil
}

func (s *LiveQuestionService) deliverAssignments(ctx context.Context, participants []domain.Participant, assignments []Assignment) {
	var g errgroup.Group
	g.SetLimit(deliveryConcurrency)
	for i := range assignments {
		i := i
		zoomUser := participants[i].ZoomUserID
		if zoomUser == "" {
			continue
		}
		g.Go(func() error {
			a := &assignments[i]
			text := questionMessage(a.Session.Prompt, a.QuestionURL, a.Session.TimeLimitSeconds)
			if err := s.notifier.SendToUser(ctx, zoomUser, text); err != nil {
				log.Warn().Err(err).Str("studentId", a.StudentID).Msg("direct message delivery failed")
				return nil
			}
			a.Delivered = true
			return nil
		})
	}
	_ = g.Wait()
}

func (s *LiveQuestionService) deliverToMeeting(ctx context.Context, session domain.Session, url string) bool {
	if s.notifier == nil {
		return false
	}
	text := questionMessage(session.Prompt, url, session.TimeLimitSeconds)
	err := s.notifier.SendToMeeting(ctx, session.MeetingID, text)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Str("meetingId", session.MeetingID).Msg("meeting chat delivery failed, falling back to direct messages")

	if s.participants == nil {
		return false
	}
	participants, err := s.participants.List(ctx, session.MeetingID)
	if err != nil {
		log.Warn().Err(err).Str("meetingId", session.MeetingID).Msg("list participants for fallback delivery")
		return false
	}

	var sent atomic.Int32
	var g errgroup.Group
	g.SetLimit(deliveryConcurrency)
	for _, p := range participants {
		p := p
		if p.ZoomUserID == "" {
			continue
		}
		g.Go(func() error {
			if err := s.notifier.SendToUser(ctx, p.ZoomUserID, text); err != nil {
				log.Warn().Err(err).Str("studentId", p.StudentID).Msg("direct message delivery failed")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return sent.Load() > 0
}

func questionMessage(prompt, url string, limit int) string {
	return fmt.Sprintf("New question: %s\nAnswer here: %s\nYou have %d seconds.", prompt, url, limit)
}

// resolve loads a session by token and applies lazy expiry.
func (s *LiveQuestionService) resolve(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return domain.Session{}, s.storeErr("get session", err)
	}
	return s.refresh(ctx, session), nil
}

// refresh moves an overdue active session to expired. The returned session
// reports expired even when the write fails; the next access retries it.
func (s *LiveQuestionService) refresh(ctx context.Context, session domain.Session) domain.Session {
	if session.Status != domain.StatusActive || !session.ExpiredAt(s.now()) {
		return session
	}

	moved, err := s.sessions.Transition(ctx, session.ID, domain.StatusActive, domain.StatusExpired)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("persist lazy expiry")
	case moved:
		log.Info().Str("sessionId", session.ID).Str("meetingId", session.MeetingID).Msg("question expired")
		s.publishClosed(session, domain.StatusExpired)
	default:
		// Someone else moved it first; report what they wrote.
		if current, err := s.sessions.GetByID(ctx, session.ID); err == nil && current.Status != domain.StatusActive {
			return current
		}
	}
	session.Status = domain.StatusExpired
	return session
}

// GetByToken returns the student view of an active session.
func (s *LiveQuestionService) GetByToken(ctx context.Context, token string) (domain.PublicView, error) {
	session, err := s.resolve(ctx, token)
	if err != nil {
		return domain.PublicView{}, err
	}
	if session.Status != domain.StatusActive {
		return domain.PublicView{}, &domain.GoneError{Status: session.Status}
	}
	return session.Public(), nil
}

type SubmitRequest struct {
	StudentID           string  `json:"studentId,omitempty"`
	StudentEmail        string  `json:"studentEmail,omitempty"`
	StudentName         string  `json:"studentName,omitempty"`
	SelectedOptionIndex int     `json:"selectedAnswer"`
	ResponseTimeSeconds float64 `json:"responseTime"`
	Origin              string  `json:"-"`
}

// Identity is the key under which a submission is deduplicated: the first
// non-empty of student id, email, name and network origin.
func (r SubmitRequest) Identity() string {
	for _, candidate := range []string{r.StudentID, r.StudentEmail, r.StudentName, r.Origin} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

type SubmitResult struct {
	IsCorrect           bool    `json:"isCorrect"`
	CorrectOptionIndex  int     `json:"correctAnswer"`
	ResponseTimeSeconds float64 `json:"responseTime"`
}

// AnswerUpdate is published to instructors after every accepted answer.
type AnswerUpdate struct {
	SessionID   string            `json:"sessionId"`
	StudentName string            `json:"studentName"`
	IsCorrect   bool              `json:"isCorrect"`
	Statistics  domain.Statistics `json:"statistics"`
}

// Submit grades and records one answer.
func (s *LiveQuestionService) Submit(ctx context.Context, token string, req SubmitRequest) (SubmitResult, error) {
	session, err := s.resolve(ctx, token)
	if err != nil {
		return SubmitResult{}, err
	}
	if session.Status != domain.StatusActive {
		return SubmitResult{}, &domain.GoneError{Status: session.Status}
	}

	identity := req.Identity()
	if identity == "" {
		return SubmitResult{}, domain.Validationf("student identification is required")
	}
	if req.SelectedOptionIndex < 0 || req.SelectedOptionIndex >= len(session.Options) {
		return SubmitResult{}, domain.Validationf("selectedAnswer must be between 0 and %d", len(session.Options)-1)
	}
	if session.AssignedStudentID != "" && identity != session.AssignedStudentID {
		return SubmitResult{}, fmt.Errorf("%w: this question was assigned to another student", domain.ErrForbidden)
	}

	name := strings.TrimSpace(req.StudentName)
	if name == "" {
		name = "Anonymous"
	}
	isCorrect := req.SelectedOptionIndex == session.CorrectOptionIndex
	response := domain.Response{
		SessionID:           session.ID,
		StudentIdentity:     identity,
		StudentID:           strings.TrimSpace(req.StudentID),
		StudentName:         name,
		StudentEmail:        strings.TrimSpace(req.StudentEmail),
		SelectedOptionIndex: req.SelectedOptionIndex,
		IsCorrect:           isCorrect,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		Origin:              req.Origin,
		SubmittedAt:         s.now().UTC(),
	}
	if err := s.responses.Record(ctx, &response); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return SubmitResult{}, fmt.Errorf("%w: you have already submitted an answer to this question", domain.ErrConflict)
		}
		return SubmitResult{}, s.storeErr("record response", err)
	}

	log.Debug().
		Str("sessionId", session.ID).
		Bool("correct", isCorrect).
		Msg("answer recorded")

	if s.publisher != nil {
		if fresh, err := s.sessions.GetByID(ctx, session.ID); err == nil {
			s.publish(Event{
				Type:      EventAnswer,
				MeetingID: session.MeetingID,
				To:        AudienceInstructors,
				Payload: AnswerUpdate{
					SessionID:   session.ID,
					StudentName: name,
					IsCorrect:   isCorrect,
					Statistics:  fresh.Statistics(),
				},
			})
		}
	}

	return SubmitResult{
		IsCorrect:           isCorrect,
		CorrectOptionIndex:  session.CorrectOptionIndex,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
	}, nil
}

// Complete closes a session on the owner's request. Completing a session that
// is no longer active is a no-op.
func (s *LiveQuestionService) Complete(ctx context.Context, caller domain.Identity, sessionID string) error {
	session, err := s.owned(ctx, caller, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusActive {
		return nil
	}

	moved, err := s.sessions.Transition(ctx, session.ID, domain.StatusActive, domain.StatusCompleted)
	if err != nil {
		return s.storeErr("complete session", err)
	}
	if moved {
		log.Info().Str("sessionId", session.ID).Str("meetingId", session.MeetingID).Msg("question completed")
		s.publishClosed(session, domain.StatusCompleted)
	}
	return nil
}

// SessionReport is the instructor's view of one session.
type SessionReport struct {
	Session    domain.Session    `json:"session"`
	Statistics domain.Statistics `json:"statistics"`
	Responses  []domain.Response `json:"responses"`
}

// SessionStatistics reports counters and responses, oldest first.
func (s *LiveQuestionService) SessionStatistics(ctx context.Context, caller domain.Identity, sessionID string) (SessionReport, error) {
	session, err := s.owned(ctx, caller, sessionID)
	if err != nil {
		return SessionReport{}, err
	}
	responses, err := s.responses.ListBySession(ctx, session.ID)
	if err != nil {
		return SessionReport{}, s.storeErr("list responses", err)
	}
	if responses == nil {
		responses = []domain.Response{}
	}
	stats := session.Statistics()
	// Stores that bump counters apart from the insert can lag the responses.
	if recorded := domain.StatisticsFrom(responses); recorded != stats {
		log.Warn().
			Str("sessionId", session.ID).
			Int("counted", stats.Total).
			Int("recorded", recorded.Total).
			Msg("session counters out of step with responses")
		stats = recorded
		session.ResponseCount = recorded.Total
		session.CorrectCount = recorded.Correct
	}
	return SessionReport{
		Session:    session,
		Statistics: stats,
		Responses:  responses,
	}, nil
}

// owned loads a session for its instructor, with lazy expiry applied.
func (s *LiveQuestionService) owned(ctx context.Context, caller domain.Identity, sessionID string) (domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, s.storeErr("get session", err)
	}
	if caller.ID == "" || session.InstructorID != caller.ID {
		return domain.Session{}, fmt.Errorf("%w: only the instructor who triggered this question may manage it", domain.ErrForbidden)
	}
	return s.refresh(ctx, session), nil
}

// ActiveSessions lists the caller's sessions that are still open.
func (s *LiveQuestionService) ActiveSessions(ctx context.Context, caller domain.Identity) ([]domain.Session, error) {
	if err := requireInstructor(caller); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByInstructor(ctx, caller.ID, domain.StatusActive)
	if err != nil {
		return nil, s.storeErr("list sessions", err)
	}
	active := make([]domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if session = s.refresh(ctx, session); session.Status == domain.StatusActive {
			active = append(active, session)
		}
	}
	return active, nil
}

// Assignment returns the open question individually assigned to a student in
// a meeting. Students may only look up their own assignment.
func (s *LiveQuestionService) Assignment(ctx context.Context, caller domain.Identity, meetingID, studentID string) (domain.PublicView, error) {
	meetingID = strings.TrimSpace(meetingID)
	studentID = strings.TrimSpace(studentID)
	if meetingID == "" || studentID == "" {
		return domain.PublicView{}, domain.Validationf("meetingId and studentId are required")
	}
	if caller.ID == "" {
		return domain.PublicView{}, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	if caller.ID != studentID && !caller.IsInstructor() {
		return domain.PublicView{}, fmt.Errorf("%w: students may only view their own assignment", domain.ErrForbidden)
	}

	sessions, err := s.sessions.ListByMeeting(ctx, meetingID)
	if err != nil {
		return domain.PublicView{}, s.storeErr("list sessions", err)
	}
	// Newest first; older assignments may have expired meanwhile.
	for i := len(sessions) - 1; i >= 0; i-- {
		session := sessions[i]
		if session.AssignedStudentID != studentID || session.Status != domain.StatusActive {
			continue
		}
		if session = s.refresh(ctx, session); session.Status == domain.StatusActive {
			return session.Public(), nil
		}
	}
	return domain.PublicView{}, fmt.Errorf("%w: no active question assigned to this student", domain.ErrNotFound)
}

// MeetingSessions lists every session triggered in a meeting, oldest first.
func (s *LiveQuestionService) MeetingSessions(ctx context.Context, caller domain.Identity, meetingID string) ([]domain.Session, error) {
	if caller.ID == "" {
		return nil, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, domain.Validationf("meetingId is required")
	}
	sessions, err := s.sessions.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, s.storeErr("list sessions", err)
	}
	for i := range sessions {
		sessions[i] = s.refresh(ctx, sessions[i])
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

type SessionSummary struct {
	SessionID         string               `json:"sessionId"`
	QuestionID        string               `json:"questionId"`
	Prompt            string               `json:"question"`
	AssignedStudentID string               `json:"assignedStudentId,omitempty"`
	Status            domain.SessionStatus `json:"status"`
	TriggeredAt       time.Time            `json:"triggeredAt"`
	Statistics        domain.Statistics    `json:"statistics"`
}

type MeetingReport struct {
	MeetingID string            `json:"meetingId"`
	Sessions  []SessionSummary  `json:"sessions"`
	Totals    domain.Statistics `json:"totals"`
}

// MeetingStatistics aggregates every session of a meeting.
func (s *LiveQuestionService) MeetingStatistics(ctx context.Context, caller domain.Identity, meetingID string) (MeetingReport, error) {
	if err := requireInstructor(caller); err != nil {
		return MeetingReport{}, err
	}
	sessions, err := s.MeetingSessions(ctx, caller, meetingID)
	if err != nil {
		return MeetingReport{}, err
	}

	report := MeetingReport{MeetingID: strings.TrimSpace(meetingID), Sessions: make([]SessionSummary, 0, len(sessions))}
	total, correct := 0, 0
	for _, session := range sessions {
		report.Sessions = append(report.Sessions, SessionSummary{
			SessionID:         session.ID,
			QuestionID:        session.QuestionID,
			Prompt:            session.Prompt,
			AssignedStudentID: session.AssignedStudentID,
			Status:            session.Status,
			TriggeredAt:       session.TriggeredAt,
			Statistics:        session.Statistics(),
		})
		total += session.ResponseCount
		correct += session.CorrectCount
	}
	report.Totals = domain.NewStatistics(total, correct)
	return report, nil
}

// JoinMeeting registers or refreshes a participant.
func (s *LiveQuestionService) JoinMeeting(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	p.MeetingID = strings.TrimSpace(p.MeetingID)
	p.StudentID = strings.TrimSpace(p.StudentID)
	if p.MeetingID == "" || p.StudentID == "" {
		return domain.Participant{}, domain.Validationf("meetingId and studentId are required")
	}
	if s.participants == nil {
		return domain.Participant{}, fmt.Errorf("%w: participant registry not configured", domain.ErrUnavailable)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = p.StudentID
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = s.now().UTC()
	}
	if err := s.participants.Join(ctx, p); err != nil {
		return domain.Participant{}, s.storeErr("join meeting", err)
	}
	return p, nil
}

func (s *LiveQuestionService) LeaveMeeting(ctx context.Context, meetingID, studentID string) error {
	if s.participants == nil {
		return nil
	}
	if err := s.participants.Leave(ctx, strings.TrimSpace(meetingID), strings.TrimSpace(studentID)); err != nil {
		return s.storeErr("leave meeting", err)
	}
	return nil
}

func (s *LiveQuestionService) Participants(ctx context.Context, meetingID string) ([]domain.Participant, error) {
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return nil, domain.Validationf("meetingId is required")
	}
	if s.participants == nil {
		return []domain.Participant{}, nil
	}
	list, err := s.participants.List(ctx, meetingID)
	if err != nil {
		return nil, s.storeErr("list participants", err)
	}
	if list == nil {
		list = []domain.Participant{}
	}
	return list, nil
}

// ClosedNotice is published when a session stops accepting answers.
type ClosedNotice struct {
	SessionID string               `json:"sessionId"`
	Token     string               `json:"sessionToken"`
	Status    domain.SessionStatus `json:"status"`
}

func (s *LiveQuestionService) publishClosed(session domain.Session, status domain.SessionStatus) {
	s.publish(Event{
		Type:      EventClosed,
		MeetingID: session.MeetingID,
		To:        session.AssignedStudentID,
		Payload:   ClosedNotice{SessionID: session.ID, Token: session.Token, Status: status},
	})
}

func (s *LiveQuestionService) publish(ev Event) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}

func requireInstructor(caller domain.Identity) error {
	if !caller.IsInstructor() {
		return fmt.Errorf("%w: instructor access required", domain.ErrForbidden)
	}
	return nil
}

var passthrough = []error{
	domain.ErrNotFound,
	domain.ErrGone,
	domain.ErrConflict,
	domain.ErrForbidden,
	domain.ErrUnauthorized,
	domain.ErrInsufficientQuestions,
	domain.ErrValidation,
	domain.ErrUnavailable,
}

// storeErr keeps domain errors intact and hides everything else behind ErrUnavailable.
func (s *LiveQuestionService) storeErr(op string, err error) error {
	for _, known := range passthrough {
		if errors.Is(err, known) {
			return err
		}
	}
	log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return fmt.Errorf("%w: %s", domain.ErrUnavailable, op)
}
