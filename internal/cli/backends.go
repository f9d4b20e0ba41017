package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"live-question-service/internal/app"
	"live-question-service/internal/config"
	"live-question-service/internal/infra/memory"
	mongostore "live-question-service/internal/infra/mongo"
	pgstore "live-question-service/internal/infra/postgres"
	redisstore "live-question-service/internal/infra/redis"
)

// backends is the storage selected from config. Postgres wins over Mongo,
// Mongo over Redis, and the in-memory stores are the fallback.
type backends struct {
	questions    app.QuestionBank
	sessions     app.SessionStore
	responses    app.ResponseStore
	participants app.ParticipantRegistry
	closers      []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	switch {
	case cfg.Postgres.URL != "":
		db := pgstore.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		if _, err := pgstore.Migrate(ctx, db); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		loader = pgstore.NewQuestionLoader(pool)
		b.sessions = pgstore.NewSessionStore(db)
		b.responses = pgstore.NewResponseStore(db)
		log.Info().Msg("using postgres session store")
	case cfg.Mongo.URI != "":
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(mongoDatabase(cfg))
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		loader = mongostore.NewQuestionLoader(db)
		b.sessions = mongostore.NewSessionStore(db)
		b.responses = mongostore.NewResponseStore(db)
		log.Info().Msg("using mongo session store")
	case redisClient != nil:
		b.sessions = redisstore.NewSessionStore(redisClient, cfg.SessionRetention())
		b.responses = redisstore.NewResponseStore(redisClient)
		log.Info().Msg("using redis session store")
	default:
		sessions := memory.NewSessionStore()
		b.sessions = sessions
		b.responses = memory.NewResponseStore(sessions)
		log.Warn().Msg("no database configured, sessions are kept in memory")
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	if redisClient != nil {
		b.questions = redisstore.NewQuestionBank(redisClient, loader, questionTTL)
		b.participants = redisstore.NewParticipantRegistry(redisClient, config.TTLDuration(cfg.Redis.TTL, 12*time.Hour))
	} else {
		b.questions = memory.NewQuestionBank(loader, questionTTL)
		b.participants = memory.NewParticipantRegistry()
	}

	ok = true
	return b, nil
}
