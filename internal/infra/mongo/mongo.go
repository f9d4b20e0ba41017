package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"live-question-service/internal/domain"
)

const (
	sessionsCollection  = "live_question_sessions"
	responsesCollection = "question_responses"
	questionsCollection = "questions"
)

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(sessionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "meetingId", Value: 1}, {Key: "triggeredAt", Value: 1}}},
		{Keys: bson.D{{Key: "instructorId", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("session indexes: %w", err)
	}
	_, err = db.Collection(responsesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "studentIdentity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("response indexes: %w", err)
	}
	return nil
}

// QuestionLoader reads the question pool from the questions collection.
type QuestionLoader struct {
	collection *mongo.Collection
}

func NewQuestionLoader(db *mongo.Database) *QuestionLoader {
	return &QuestionLoader{collection: db.Collection(questionsCollection)}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	cursor, err := l.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer cursor.Close(ctx)

	var questions []domain.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// SeedQuestions upserts questions by ID.
func SeedQuestions(ctx context.Context, db *mongo.Database, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(questions))
	for i, q := range questions {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": q.ID}).
			SetReplacement(q).
			SetUpsert(true)
	}
	_, err := db.Collection(questionsCollection).BulkWrite(ctx, models)
	return err
}
