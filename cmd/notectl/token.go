package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"noteblog/internal/auth"
	"noteblog/internal/config"
	"noteblog/internal/users"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for a user",
	Long: `Token signs a bearer token with the configured JWT secret. Pass either
--user with the user's id or --username to look the user up.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userHex, _ := cmd.Flags().GetString("user")
		username, _ := cmd.Flags().GetString("username")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if (userHex == "") == (username == "") {
			return errors.New("exactly one of --user or --username is required")
		}

		var userID primitive.ObjectID
		if userHex != "" {
			id, err := primitive.ObjectIDFromHex(userHex)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", userHex, err)
			}
			userID = id
		} else {
			store, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			user, err := users.NewRepo(store.DB).FindByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("failed to find user %q: %w", username, err)
			}
			userID = user.ID
		}

		if cfg.JWTSecret == config.DevJWTSecret {
			fmt.Fprintln(cmd.ErrOrStderr(), warning("warning: signing with the development secret"))
		}

		token, err := auth.NewTokens(cfg.JWTSecret).Issue(userID, ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), faint(fmt.Sprintf("user %s, expires %s", userID.Hex(), time.Now().Add(ttl).Format(time.RFC3339))))
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "user id (24-character hex)")
	tokenCmd.Flags().String("username", "", "username to look up")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
