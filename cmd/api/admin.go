package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/auth"
	"github.com/example/ec-shop-api/internal/config"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/store"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema or tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			st, err := store.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migration complete", zap.String("store", cfg.StoreBackend))
			return nil
		},
	}
}

type adminOptions struct {
	Email    string
	Password string
	Name     string
}

func (o adminOptions) validate() error {
	if o.Email == "" || o.Password == "" {
		return errors.New("--email and --password are required")
	}
	return nil
}

func newCreateAdminCommand() *cobra.Command {
	opts := adminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.StoreBackend == config.BackendMemory {
				return errors.New("create-admin needs a persistent STORE_BACKEND")
			}

			st, err := store.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			users := user.NewService(st.Users(), auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn), logger)
			u, err := users.CreateAdmin(cmd.Context(), opts.Email, opts.Password, opts.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "administrator email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "administrator password (at least 8 characters)")
	cmd.Flags().StringVar(&opts.Name, "name", "Administrator", "display name")

	return cmd
}
