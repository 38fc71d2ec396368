package main

import (
	"fmt"

	"github.com/MosinFAM/chirp/internal/config"
	"github.com/MosinFAM/chirp/internal/identity"
	"github.com/MosinFAM/chirp/internal/models"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StorageType != config.StoragePostgres {
			return fmt.Errorf("migrate needs STORAGE_TYPE=%s", config.StoragePostgres)
		}
		conn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		return conn.Close()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue a session token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL).Issue(models.Author{
			ID:       args[0],
			Username: username,
			ImageURL: imageURL,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var (
	username string
	imageURL string
)

var userCmd = &cobra.Command{
	Use:   "user [user-id]",
	Short: "Create or update a user profile in the Postgres directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.StorageType != config.StoragePostgres {
			return fmt.Errorf("user needs STORAGE_TYPE=%s", config.StoragePostgres)
		}
		conn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		return identity.NewPostgresDirectory(conn, logger).UpsertUser(cmd.Context(), models.Author{
			ID:       args[0],
			Username: username,
			ImageURL: imageURL,
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{tokenCmd, userCmd} {
		cmd.Flags().StringVar(&username, "username", "", "public username")
		cmd.Flags().StringVar(&imageURL, "image-url", "", "avatar URL")
	}
	_ = userCmd.MarkFlagRequired("username")
}
