package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"live-question-service/internal/config"
	mongostore "live-question-service/internal/infra/mongo"
	pgstore "live-question-service/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations and indexes.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" && cfg.Mongo.URI == "" {
		return errors.New("neither postgres url nor mongo uri configured")
	}

	if cfg.Postgres.URL != "" {
		db := pgstore.Open(cfg.Postgres.URL)
		defer db.Close()
		group, err := pgstore.Migrate(ctx, db)
		if err != nil {
			return err
		}
		if group.IsZero() {
			log.Info().Msg("postgres schema up to date")
		} else {
			log.Info().Str("group", group.String()).Msg("postgres migrations applied")
		}
	}

	if cfg.Mongo.URI != "" {
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := mongostore.EnsureIndexes(ctx, client.Database(mongoDatabase(cfg))); err != nil {
			return err
		}
		log.Info().Msg("mongo indexes ensured")
	}
	return nil
}

func mongoDatabase(cfg config.Config) string {
	if cfg.Mongo.Database != "" {
		return cfg.Mongo.Database
	}
	return "live_learning"
}
