package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anduinlabs/expenseflow/internal/calendar"
	"github.com/anduinlabs/expenseflow/internal/cli"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Calendar",
		Long: `Run the interactive OAuth2 flow against Google Calendar and save the
resulting refresh token. The token grants read-only calendar access.`,
		RunE: runAuth,
	}

	cmd.Flags().String("token-file", "", "Where to save the token (default: $HOME/.config/expenseflow/token.json)")

	return cmd
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	clientID := viper.GetString("calendar.client_id")
	clientSecret := viper.GetString("calendar.client_secret")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("calendar.client_id and calendar.client_secret must be configured")
	}

	tokenFile, _ := cmd.Flags().GetString("token-file")
	if tokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		tokenFile = filepath.Join(home, ".config", "expenseflow", "token.json")
	}

	token, err := calendar.AuthenticateOAuth2Interactive(ctx, calendar.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	slog.Info(cli.FormatSuccess("Authentication complete"))
	if token.RefreshToken != "" {
		slog.Info("Set calendar.refresh_token in your config to skip this flow next time")
	}

	return nil
}
