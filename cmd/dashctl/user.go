package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"indicator-dashboard/internal/auth"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/store/sqlite"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}

	var (
		password string
		access   string
		withTOTP bool
		dbPath   string
	)
	add := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Create or replace a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			if !strings.Contains(email, "@") {
				return fmt.Errorf("invalid email %q", args[0])
			}
			level, ok := parseAccess(access)
			if !ok {
				return fmt.Errorf("access must be user or admin, got %q", access)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u := model.User{Email: email, PasswordHash: hash, Access: level}

			var otpURL string
			if withTOTP {
				if u.TOTPSecret, otpURL, err = auth.NewTOTPSecret(email); err != nil {
					return err
				}
			}

			if dbPath == "" {
				dbPath = loadConfig().SQLitePath
			}
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.UpsertUser(context.Background(), u); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", email, level)
			if otpURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "add to your authenticator: %s\n", otpURL)
			}
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "login password")
	add.Flags().StringVar(&access, "access", "user", "access level: user or admin")
	add.Flags().BoolVar(&withTOTP, "totp", false, "require a one-time code at login")
	add.Flags().StringVar(&dbPath, "db", "", "SQLite path (default SQLITE_PATH)")
	add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

// parseAccess accepts the short names as well as the stored values.
func parseAccess(s string) (model.Access, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", string(model.AccessUser):
		return model.AccessUser, true
	case "admin", string(model.AccessAdmin):
		return model.AccessAdmin, true
	}
	return "", false
}
