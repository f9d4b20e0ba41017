package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"live-question-service/internal/app"
	"live-question-service/internal/domain"
	"live-question-service/internal/infra/memory"
)

const questionsKey = "live:questions"

// QuestionBank caches the question pool in Redis and falls back to a loader on cache miss.
// The snapshot is stored as: HSET live:questions {questionID} {json}
type QuestionBank struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionBank(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{client: client, loader: loader, ttl: ttl}
}

func (b *QuestionBank) All(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := b.cached(ctx); ok {
		return pool, nil
	}

	result, err, _ := b.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := b.cached(ctx); ok {
			return pool, nil
		}

		pool, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		pipe := b.client.TxPipeline()
		pipe.Del(ctx, questionsKey)
		for _, q := range pool {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, questionsKey, q.ID, raw)
		}
		if ttl := memory.TTLWithJitter(b.ttl); ttl > 0 {
			pipe.Expire(ctx, questionsKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("populate question cache")
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (b *QuestionBank) ByID(ctx context.Context, id string) (domain.Question, error) {
	raw, err := b.client.HGet(ctx, questionsKey, id).Bytes()
	if err == nil {
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err == nil {
			return q, nil
		}
	}

	pool, err := b.All(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	for _, q := range pool {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (b *QuestionBank) Sample(ctx context.Context, n int, withoutReplacement bool) ([]domain.Question, error) {
	pool, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	return app.SampleQuestions(pool, n, withoutReplacement)
}

// Invalidate drops the cached snapshot.
func (b *QuestionBank) Invalidate(ctx context.Context) error {
	return b.client.Del(ctx, questionsKey).Err()
}

func (b *QuestionBank) cached(ctx context.Context) ([]domain.Question, bool) {
	entries, err := b.client.HGetAll(ctx, questionsKey).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	pool := make([]domain.Question, 0, len(entries))
	for _, raw := range entries {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		pool = append(pool, q)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool, true
}
