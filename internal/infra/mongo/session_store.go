package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"live-question-service/internal/domain"
)

type sessionDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Token              string             `bson:"token"`
	QuestionID         string             `bson:"questionId"`
	Prompt             string             `bson:"question"`
	Options            []string           `bson:"options"`
	CorrectOptionIndex int                `bson:"correctAnswer"`
	MeetingID          string             `bson:"meetingId"`
	CourseID           string             `bson:"courseId,omitempty"`
	InstructorID       string             `bson:"instructorId"`
	AssignedStudentID  string             `bson:"assignedStudentId,omitempty"`
	TimeLimitSeconds   int                `bson:"timeLimit"`
	TriggeredAt        time.Time          `bson:"triggeredAt"`
	ExpiresAt          time.Time          `bson:"expiresAt"`
	Status             string             `bson:"status"`
	ResponseCount      int                `bson:"responsesCount"`
	CorrectCount       int                `bson:"correctCount"`
}

func toSessionDoc(s domain.Session) sessionDoc {
	return sessionDoc{
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

func (d sessionDoc) toDomain() domain.Session {
	return domain.Session{
		ID:                 d.ID.Hex(),
		Token:              d.Token,
		QuestionID:         d.QuestionID,
		Prompt:             d.Prompt,
		Options:            d.Options,
		CorrectOptionIndex: d.CorrectOptionIndex,
		MeetingID:          d.MeetingID,
		CourseID:           d.CourseID,
		InstructorID:       d.InstructorID,
		AssignedStudentID:  d.AssignedStudentID,
		TimeLimitSeconds:   d.TimeLimitSeconds,
		TriggeredAt:        d.TriggeredAt.UTC(),
		ExpiresAt:          d.ExpiresAt.UTC(),
		Status:             domain.SessionStatus(d.Status),
		ResponseCount:      d.ResponseCount,
		CorrectCount:       d.CorrectCount,
	}
}

// SessionStore persists sessions in the live_question_sessions collection.
type SessionStore struct {
	collection *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{collection: db.Collection(sessionsCollection)}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	doc := toSessionDoc(*session)
	doc.ID = primitive.NewObjectID()
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.ID = doc.ID.Hex()
	return nil
}

// CreateBatch inserts all sessions or, on failure, removes whatever was written.
func (s *SessionStore) CreateBatch(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(sessions))
	ids := make([]primitive.ObjectID, len(sessions))
	for i, session := range sessions {
		doc := toSessionDoc(*session)
		doc.ID = primitive.NewObjectID()
		ids[i] = doc.ID
		docs[i] = doc
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		if _, cleanupErr := s.collection.DeleteMany(context.WithoutCancel(ctx), bson.M{"_id": bson.M{"$in": ids}}); cleanupErr != nil {
			return fmt.Errorf("insert sessions: %w (cleanup failed: %v)", err, cleanupErr)
		}
		return fmt.Errorf("insert sessions: %w", err)
	}
	for i, session := range sessions {
		session.ID = ids[i].Hex()
	}
	return nil
}

func (s *SessionStore) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	return s.findOne(ctx, bson.M{"token": token})
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *SessionStore) findOne(ctx context.Context, filter bson.M) (domain.Session, error) {
	var doc sessionDoc
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return doc.toDomain(), nil
}

func (s *SessionStore) Transition(ctx context.Context, id string, from, to domain.SessionStatus) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrSessionNotFound
	}
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, domain.ErrSessionNotFound
	}
	return false, nil
}

func (s *SessionStore) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Session, error) {
	return s.find(ctx, bson.M{"meetingId": meetingID})
}

func (s *SessionStore) ListByInstructor(ctx context.Context, instructorID string, status domain.SessionStatus) ([]domain.Session, error) {
	filter := bson.M{"instructorId": instructorID}
	if status != "" {
		filter["status"] = string(status)
	}
	return s.find(ctx, filter)
}

func (s *SessionStore) find(ctx context.Context, filter bson.M) ([]domain.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "triggeredAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Session, len(docs))
	for i, doc := range docs {
		out[i] = doc.toDomain()
	}
	return out, nil
}
