package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"live-question-service/internal/domain"
	"live-question-service/internal/infra/memory"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, client := newMiniredis(t)

	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	bank := NewQuestionBank(client, loader, time.Minute)

	pool, err := bank.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(pool) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(pool))
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists(questionsKey) {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, loader not incremented.
	q, err := bank.ByID(context.Background(), "q2")
	if err != nil || q.Prompt != "Capital of France?" {
		t.Fatalf("by id: %+v %v", q, err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}

	if _, err := bank.ByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuestionBankReloadsAfterExpiry(t *testing.T) {
	mr, client := newMiniredis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	bank := NewQuestionBank(client, loader, time.Minute)

	_, _ = bank.All(context.Background())
	mr.FastForward(2 * time.Minute)
	_, _ = bank.All(context.Background())

	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.count())
	}
}

func TestQuestionBankSample(t *testing.T) {
	_, client := newMiniredis(t)
	bank := NewQuestionBank(client, memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)

	picked, err := bank.Sample(context.Background(), 3, true)
	if err != nil || len(picked) != 3 {
		t.Fatalf("sample: %d %v", len(picked), err)
	}
	if _, err := bank.Sample(context.Background(), 4, true); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.LoadQuestions(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectOptionIndex: 1},
		{ID: "q2", Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectOptionIndex: 0},
		{ID: "q3", Prompt: "Largest planet?", Options: []string{"Mars", "Jupiter"}, CorrectOptionIndex: 1},
	}
}
