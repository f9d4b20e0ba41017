package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"live-question-service/internal/auth"
	"live-question-service/internal/domain"
)

// NewTokenCmd mints an access token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		id, role, name, email string
		ttl                   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if id == "" {
				return errors.New("--id is required")
			}
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, false).IssueToken(domain.Identity{
				ID:    id,
				Role:  auth.ParseRole(role),
				Name:  name,
				Email: email,
			}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (token subject)")
	cmd.Flags().StringVar(&role, "role", "instructor", "instructor, student or admin")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
