package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remfix/remfix/internal/config"
	"github.com/remfix/remfix/internal/database"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/service"
)

func createAdminCmd() *cobra.Command {
	var fullName string

	cmd := &cobra.Command{
		Use:   "create-admin <username> <password>",
		Short: "Create an administrator account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}

			hash, err := service.HashPassword(args[1])
			if err != nil {
				return err
			}
			user := &models.User{
				Username:     args[0],
				PasswordHash: hash,
				FullName:     fullName,
				Role:         models.RoleAdmin,
				ValidID:      1,
			}
			if err := repository.NewUserRepository(db).Create(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Printf("created admin %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	return cmd
}

func masterTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "master-token <master-id>",
		Short: "Issue a field-agent bearer token for a master",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured")
			}

			var masterID int64
			if _, err := fmt.Sscanf(args[0], "%d", &masterID); err != nil || masterID < 1 {
				return fmt.Errorf("master id must be a positive integer")
			}

			token, err := middleware.IssueMasterToken(cfg.Auth.JWTSecret, masterID, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}
