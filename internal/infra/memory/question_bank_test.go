package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-question-service/internal/domain"
)

func TestQuestionBankCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions())}
	bank := NewQuestionBank(loader, time.Minute)

	if _, err := bank.ByID(context.Background(), "q1"); err != nil {
		t.Fatalf("by id: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := bank.All(context.Background()); err != nil {
		t.Fatalf("all: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	bank.Invalidate()
	if _, err := bank.All(context.Background()); err != nil {
		t.Fatalf("all after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuestionBankUnknownID(t *testing.T) {
	bank := NewQuestionBank(NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	_, err := bank.ByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuestionBankSampleWithoutReplacement(t *testing.T) {
	bank := NewQuestionBank(NewStaticQuestionLoader(sampleQuestions()), time.Minute)

	picked, err := bank.Sample(context.Background(), 3, true)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	seen := map[string]bool{}
	for _, q := range picked {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in sample", q.ID)
		}
		seen[q.ID] = true
	}

	if _, err := bank.Sample(context.Background(), 4, true); !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	if got, err := bank.Sample(context.Background(), 7, false); err != nil || len(got) != 7 {
		t.Fatalf("expected 7 picks with replacement, got %d (%v)", len(got), err)
	}
}

func TestQuestionBankReturnsCopies(t *testing.T) {
	bank := NewQuestionBank(NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	all, _ := bank.All(context.Background())
	all[0].Prompt = "mutated"

	q, _ := bank.ByID(context.Background(), all[0].ID)
	if q.Prompt == "mutated" {
		t.Fatalf("snapshot mutated through All result")
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1},
		{ID: "q2", Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectOptionIndex: 0},
		{ID: "q3", Prompt: "Largest planet?", Options: []string{"Mars", "Jupiter"}, CorrectOptionIndex: 1},
	}
}
