// AngelaMos | 2026
// commands.go

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/bistro-backend/internal/auth"
	"github.com/carterperez-dev/bistro-backend/internal/config"
	"github.com/carterperez-dev/bistro-backend/internal/core"
)

func keygenCmd() *cobra.Command {
	var privatePath, publicPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the ES256 key pair used to sign tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(privatePath); err == nil {
					return fmt.Errorf("%s exists; pass --force to overwrite", privatePath)
				}
			}

			for _, p := range []string{privatePath, publicPath} {
				if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
					return fmt.Errorf("create key dir: %w", err)
				}
			}

			if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privatePath, publicPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&privatePath, "private", envOr("JWT_PRIVATE_KEY_PATH", "keys/private.pem"), "private key output path")
	cmd.Flags().StringVar(&publicPath, "public", envOr("JWT_PUBLIC_KEY_PATH", "keys/public.pem"), "public key output path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key pair")

	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := core.NewDatabase(ctx, config.DatabaseConfig{
				URL:          databaseURL,
				MaxOpenConns: 2,
				MaxIdleConns: 1,
			})
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			applied, err := db.Migrate(ctx)
			if err != nil {
				return err
			}

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")

	return cmd
}

// tokenCmd signs a token locally, for smoke-testing protected routes.
func tokenCmd() *cobra.Command {
	var cfg config.JWTConfig

	cmd := &cobra.Command{
		Use:   "token [email]",
		Short: "Sign an access token for the given email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := auth.NewJWTManager(cfg)
			if err != nil {
				return err
			}

			issued, err := manager.Issue(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.PrivateKeyPath, "private", envOr("JWT_PRIVATE_KEY_PATH", "keys/private.pem"), "private key path")
	cmd.Flags().StringVar(&cfg.Issuer, "issuer", envOr("JWT_ISSUER", "bistro-backend"), "token issuer")
	cmd.Flags().StringVar(&cfg.Audience, "audience", envOr("JWT_AUDIENCE", "bistro-api"), "token audience")
	cmd.Flags().DurationVar(&cfg.AccessTokenExpire, "ttl", time.Hour, "token lifetime")

	return cmd
}
