package domain

import "time"

// SessionStatus is the lifecycle state of a triggered question.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusExpired   SessionStatus = "expired"
	StatusCompleted SessionStatus = "completed"
)

// Role is the caller role resolved by the authentication layer.
type Role string

const (
	RoleAnonymous  Role = "anonymous"
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Identity is the resolved caller of an operation.
type Identity struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// IsInstructor reports whether the identity may trigger and manage sessions.
func (i Identity) IsInstructor() bool {
	return i.Role == RoleInstructor || i.Role == RoleAdmin
}

// Question models a multiple choice question with exactly one correct option.
type Question struct {
	ID                 string   `json:"id" bson:"_id"`
	Prompt             string   `json:"prompt" bson:"prompt"`
	Options            []string `json:"options" bson:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex" bson:"correctOptionIndex"`
	Difficulty         string   `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
	Category           string   `json:"category,omitempty" bson:"category,omitempty"`
	Tags               []string `json:"tags,omitempty" bson:"tags,omitempty"`
	TimeLimitSeconds   int      `json:"timeLimitSeconds,omitempty" bson:"timeLimitSeconds,omitempty"`
}

// Session is a triggered, token-addressable instance of a question.
// Prompt, Options and CorrectOptionIndex are a snapshot taken at trigger time.
type Session struct {
	ID                 string        `json:"id"`
	Token              string        `json:"sessionToken"`
	QuestionID         string        `json:"questionId"`
	Prompt             string        `json:"question"`
	Options            []string      `json:"options"`
	CorrectOptionIndex int           `json:"correctOptionIndex"`
	MeetingID          string        `json:"meetingId"`
	CourseID           string        `json:"courseId,omitempty"`
	InstructorID       string        `json:"instructorId"`
	AssignedStudentID  string        `json:"assignedStudentId,omitempty"`
	TimeLimitSeconds   int           `json:"timeLimitSeconds"`
	TriggeredAt        time.Time     `json:"triggeredAt"`
	ExpiresAt          time.Time     `json:"expiresAt"`
	Status             SessionStatus `json:"status"`
	ResponseCount      int           `json:"responseCount"`
	CorrectCount       int           `json:"correctCount"`
}

// ExpiredAt reports whether the session deadline has passed at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Statistics derived from the running counters.
func (s Session) Statistics() Statistics {
	return NewStatistics(s.ResponseCount, s.CorrectCount)
}

// PublicView is what students see: everything but the correct answer.
type PublicView struct {
	Token            string    `json:"sessionToken"`
	SessionID        string    `json:"sessionId"`
	Prompt           string    `json:"question"`
	Options          []string  `json:"options"`
	TimeLimitSeconds int       `json:"timeLimit"`
	TriggeredAt      time.Time `json:"triggeredAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// Public projects the session for unauthenticated clients.
func (s Session) Public() PublicView {
	return PublicView{
		Token:            s.Token,
		SessionID:        s.ID,
		Prompt:           s.Prompt,
		Options:          append([]string(nil), s.Options...),
		TimeLimitSeconds: s.TimeLimitSeconds,
		TriggeredAt:      s.TriggeredAt,
		ExpiresAt:        s.ExpiresAt,
	}
}

// Response is a submitted answer. Immutable once recorded.
type Response struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"sessionId"`
	StudentIdentity     string    `json:"studentIdentity"`
	StudentID           string    `json:"studentId,omitempty"`
	StudentName         string    `json:"studentName"`
	StudentEmail        string    `json:"studentEmail,omitempty"`
	SelectedOptionIndex int       `json:"selectedAnswer"`
	IsCorrect           bool      `json:"isCorrect"`
	ResponseTimeSeconds float64   `json:"responseTime"`
	Origin              string    `json:"-"`
	SubmittedAt         time.Time `json:"submittedAt"`
}

// Statistics summarizes answers to one session.
type Statistics struct {
	Total           int     `json:"total"`
	Correct         int     `json:"correct"`
	Incorrect       int     `json:"incorrect"`
	AccuracyPercent float64 `json:"accuracy"`
}

func NewStatistics(total, correct int) Statistics {
	stats := Statistics{Total: total, Correct: correct, Incorrect: total - correct}
	if total > 0 {
		stats.AccuracyPercent = 100 * float64(correct) / float64(total)
	}
	return stats
}

// StatisticsFrom aggregates a response list; it must agree with the session counters.
func StatisticsFrom(responses []Response) Statistics {
	correct := 0
	for _, r := range responses {
		if r.IsCorrect {
			correct++
		}
	}
	return NewStatistics(len(responses), correct)
}

// Participant is a student currently present in a meeting.
type Participant struct {
	MeetingID  string    `json:"meetingId"`
	StudentID  string    `json:"studentId"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	ZoomUserID string    `json:"zoomUserId,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
}
