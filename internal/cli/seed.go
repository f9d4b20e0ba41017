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

// NewSeedCmd loads the sample question pool into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample question pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config) error {
	questions := sampleQuestions()
	switch {
	case cfg.Postgres.URL != "":
		db := pgstore.Open(cfg.Postgres.URL)
		defer db.Close()
		if _, err := pgstore.Migrate(ctx, db); err != nil {
			return err
		}
		if err := pgstore.SeedQuestions(ctx, db, questions); err != nil {
			return err
		}
	case cfg.Mongo.URI != "":
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := mongostore.SeedQuestions(ctx, client.Database(mongoDatabase(cfg)), questions); err != nil {
			return err
		}
	default:
		return errors.New("seed needs a postgres url or mongo uri")
	}
	log.Info().Int("count", len(questions)).Msg("questions seeded")
	return nil
}
