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

type responseDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	SessionID           primitive.ObjectID `bson:"sessionId"`
	StudentIdentity     string             `bson:"studentIdentity"`
	StudentID           string             `bson:"studentId,omitempty"`
	StudentName         string             `bson:"studentName"`
	StudentEmail        string             `bson:"studentEmail,omitempty"`
	SelectedOptionIndex int                `bson:"selectedAnswer"`
	IsCorrect           bool               `bson:"isCorrect"`
	ResponseTimeSeconds float64            `bson:"responseTime"`
	Origin              string             `bson:"ipAddress,omitempty"`
	SubmittedAt         time.Time          `bson:"submittedAt"`
}

func (d responseDoc) toDomain() domain.Response {
	return domain.Response{
		ID:                  d.ID.Hex(),
		SessionID:           d.SessionID.Hex(),
		StudentIdentity:     d.StudentIdentity,
		StudentID:           d.StudentID,
		StudentName:         d.StudentName,
		StudentEmail:        d.StudentEmail,
		SelectedOptionIndex: d.SelectedOptionIndex,
		IsCorrect:           d.IsCorrect,
		ResponseTimeSeconds: d.ResponseTimeSeconds,
		Origin:              d.Origin,
		SubmittedAt:         d.SubmittedAt.UTC(),
	}
}

// ResponseStore inserts answers guarded by the unique (sessionId,
// studentIdentity) index, then applies $inc to the session counters of an
// active session. If the increment cannot be applied the inserted answer is
// removed again.
type ResponseStore struct {
	responses *mongo.Collection
	sessions  *mongo.Collection
}

func NewResponseStore(db *mongo.Database) *ResponseStore {
	return &ResponseStore{
		responses: db.Collection(responsesCollection),
		sessions:  db.Collection(sessionsCollection),
	}
}

func (s *ResponseStore) Record(ctx context.Context, response *domain.Response) error {
	sessionID, err := primitive.ObjectIDFromHex(response.SessionID)
	if err != nil {
		return domain.ErrSessionNotFound
	}
	doc := responseDoc{
		ID:                  primitive.NewObjectID(),
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

	if _, err := s.responses.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert response: %w", err)
	}

	correct := 0
	if response.IsCorrect {
		correct = 1
	}
	res, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": sessionID, "status": string(domain.StatusActive)},
		bson.M{"$inc": bson.M{"responsesCount": 1, "correctCount": correct}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = s.closedSession(ctx, sessionID)
	}
	if err != nil {
		_, _ = s.responses.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": doc.ID})
		var gone *domain.GoneError
		if errors.As(err, &gone) || errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("increment counters: %w", err)
	}

	response.ID = doc.ID.Hex()
	return nil
}

// closedSession explains why the guarded increment matched no session.
func (s *ResponseStore) closedSession(ctx context.Context, sessionID primitive.ObjectID) error {
	var doc struct {
		Status string `bson:"status"`
	}
	err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID},
		options.FindOne().SetProjection(bson.M{"status": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	return &domain.GoneError{Status: domain.SessionStatus(doc.Status)}
}

func (s *ResponseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return []domain.Response{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.responses.Find(ctx, bson.M{"sessionId": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []responseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Response, len(docs))
	for i, doc := range docs {
		out[i] = doc.toDomain()
	}
	return out, nil
}
