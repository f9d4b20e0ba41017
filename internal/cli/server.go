package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"live-question-service/internal/app"
	"live-question-service/internal/auth"
	"live-question-service/internal/config"
	"live-question-service/internal/infra/zoom"
	transport "live-question-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live question server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	stores, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	zoomClient := zoom.NewClient(ctx, zoom.Config{
		AccountID:        cfg.Zoom.AccountID,
		ClientID:         cfg.Zoom.ClientID,
		ClientSecret:     cfg.Zoom.ClientSecret,
		BotJID:           cfg.Zoom.BotJID,
		APIBaseURL:       cfg.Zoom.APIBaseURL,
		TokenURL:         cfg.Zoom.TokenURL,
		ConferenceDomain: cfg.Zoom.ConferenceDomain,
	})
	var notifier app.NotificationSink
	if zoomClient.Configured() {
		notifier = zoomClient
	} else {
		log.Warn().Msg("zoom credentials missing, chat delivery disabled")
	}

	feed := app.NewFeed()
	service := app.NewLiveQuestionService(app.Dependencies{
		Questions:    stores.questions,
		Sessions:     stores.sessions,
		Responses:    stores.responses,
		Participants: stores.participants,
		Notifier:     notifier,
		Publisher:    feed,
	}, app.Settings{
		BaseURL:                 baseURL(cfg),
		DefaultTimeLimitSeconds: cfg.Live.DefaultTimeLimitSeconds,
		GracePeriod:             config.TTLDuration(cfg.Live.GracePeriod, app.DefaultGracePeriod),
	})

	if cfg.Auth.JWTSecret == "" && !cfg.Auth.TrustHeaders {
		log.Warn().Msg("no jwt secret and trusted headers disabled, instructor routes are unreachable")
	}
	handler := transport.NewRouter(transport.Container{
		Service:       service,
		Feed:          feed,
		Authenticator: auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TrustHeaders),
		AllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGINS"),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Str("baseURL", baseURL(cfg)).Msg("starting live question service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func baseURL(cfg config.Config) string {
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	return "http://localhost:3000"
}
