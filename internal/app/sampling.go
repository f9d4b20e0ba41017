package app

import (
	"fmt"
	"math/rand"

	"live-question-service/internal/domain"
)

// SampleQuestions picks n questions from pool. Without replacement every pick
// has a distinct ID and n may not exceed the pool size.
func SampleQuestions(pool []domain.Question, n int, withoutReplacement bool) ([]domain.Question, error) {
	if n < 0 {
		return nil, domain.Validationf("sample size must not be negative, got %d", n)
	}
	if n == 0 {
		return []domain.Question{}, nil
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestions
	}

	out := make([]domain.Question, n)
	if !withoutReplacement {
		for i := range out {
			out[i] = pool[rand.Intn(len(pool))]
		}
		return out, nil
	}

	distinct := dedupe(pool)
	if n > len(distinct) {
		return nil, fmt.Errorf("%w: need %d, only %d available", domain.ErrInsufficientQuestions, n, len(distinct))
	}
	for i, idx := range rand.Perm(len(distinct))[:n] {
		out[i] = distinct[idx]
	}
	return out, nil
}

func dedupe(pool []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(pool))
	out := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// PickQuestion returns one question uniformly at random.
func PickQuestion(pool []domain.Question) (domain.Question, error) {
	picked, err := SampleQuestions(pool, 1, false)
	if err != nil {
		return domain.Question{}, err
	}
	return picked[0], nil
}
