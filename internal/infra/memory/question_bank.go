package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"live-question-service/internal/app"
	"live-question-service/internal/domain"
)

// QuestionLoader fetches the whole question pool from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank caches the loader's snapshot with TTL to avoid repeated DB hits.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu       sync.RWMutex
	snapshot []domain.Question
	index    map[string]int
	expires  time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
	}
}

func (b *QuestionBank) All(ctx context.Context) ([]domain.Question, error) {
	pool, _, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), pool...), nil
}

func (b *QuestionBank) ByID(ctx context.Context, id string) (domain.Question, error) {
	pool, index, err := b.load(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	i, ok := index[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return pool[i], nil
}

func (b *QuestionBank) Sample(ctx context.Context, n int, withoutReplacement bool) ([]domain.Question, error) {
	pool, _, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	return app.SampleQuestions(pool, n, withoutReplacement)
}

// Invalidate drops the cached snapshot so the next read reloads.
func (b *QuestionBank) Invalidate() {
	b.mu.Lock()
	b.expires = time.Time{}
	b.mu.Unlock()
}

func (b *QuestionBank) cached(now time.Time) ([]domain.Question, map[string]int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index != nil && b.expires.After(now) {
		return b.snapshot, b.index, true
	}
	return nil, nil, false
}

func (b *QuestionBank) load(ctx context.Context) ([]domain.Question, map[string]int, error) {
	if pool, index, ok := b.cached(b.clock()); ok {
		return pool, index, nil
	}

	type loaded struct {
		pool  []domain.Question
		index map[string]int
	}
	result, err, _ := b.sf.Do("questions", func() (interface{}, error) {
		now := b.clock()
		if pool, index, ok := b.cached(now); ok {
			return loaded{pool, index}, nil
		}

		pool, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(pool))
		for i, q := range pool {
			if _, dup := index[q.ID]; !dup {
				index[q.ID] = i
			}
		}

		b.mu.Lock()
		b.snapshot = pool
		b.index = index
		b.expires = now.Add(TTLWithJitter(b.ttl))
		b.mu.Unlock()
		return loaded{pool, index}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	l := result.(loaded)
	return l.pool, l.index, nil
}

// TTLWithJitter adds up to 10% jitter to spread expirations.
func TTLWithJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitterMax := int64(ttl) / 10
	return ttl + time.Duration(rand.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves a fixed pool; Put lets demos and tests edit it.
type StaticQuestionLoader struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: append([]domain.Question(nil), questions...)}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Question, len(l.questions))
	for i, q := range l.questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}

// Put inserts or replaces a question by ID.
func (l *StaticQuestionLoader) Put(q domain.Question) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.questions {
		if l.questions[i].ID == q.ID {
			l.questions[i] = q
			return
		}
	}
	l.questions = append(l.questions, q)
}
