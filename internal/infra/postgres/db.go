package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"live-question-service/internal/domain"
	"live-question-service/internal/infra/postgres/migrations"
)

// Open returns a bun handle over pgdriver.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies all pending migrations and returns the group that ran.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("migrator init: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// SeedQuestions upserts the given questions into the questions table.
func SeedQuestions(ctx context.Context, db *bun.DB, questions []domain.Question) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, data) VALUES (?, ?::jsonb)
				 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
				q.ID, string(data)); err != nil {
				return fmt.Errorf("insert question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}
