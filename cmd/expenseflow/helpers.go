package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/anduinlabs/expenseflow/internal/brex"
	"github.com/anduinlabs/expenseflow/internal/calendar"
	"github.com/anduinlabs/expenseflow/internal/match"
	"github.com/anduinlabs/expenseflow/internal/receipt"
	"github.com/anduinlabs/expenseflow/internal/service"
	"github.com/anduinlabs/expenseflow/internal/storage"
)

// initStorage opens the expense database and runs pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "expenseflow", "expenseflow.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newEventSource builds the Google Calendar client from viper config,
// falling back to environment variables for credentials.
func newEventSource(ctx context.Context) (service.EventSource, error) {
	cfg := calendar.DefaultConfig()

	cfg.ClientID = viper.GetString("calendar.client_id")
	cfg.ClientSecret = viper.GetString("calendar.client_secret")
	cfg.RefreshToken = viper.GetString("calendar.refresh_token")
	cfg.ServiceAccountPath = viper.GetString("calendar.service_account_path")
	if shared := viper.GetStringSlice("calendar.shared_calendars"); len(shared) > 0 {
		cfg.SharedCalendars = shared
	}
	if timeout := viper.GetDuration("calendar.request_timeout"); timeout > 0 {
		cfg.RequestTimeout = timeout
	}

	if cfg.ServiceAccountPath == "" && cfg.RefreshToken == "" {
		if err := cfg.LoadFromEnv(); err != nil {
			return nil, err
		}
	}

	return calendar.NewClient(ctx, cfg, slog.Default().With("component", "calendar"))
}

// newMatcher wires the matching engine to the calendar event source.
func newMatcher(ctx context.Context) (*match.Matcher, error) {
	events, err := newEventSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return match.New(events, slog.Default().With("component", "match")), nil
}

// newBrexClient builds the Brex transaction feed from viper config.
func newBrexClient() (*brex.Client, error) {
	cfg := brex.Config{
		APIToken:    viper.GetString("brex.api_token"),
		BaseURL:     viper.GetString("brex.base_url"),
		EmailDomain: viper.GetString("brex.email_domain"),
		PageLimit:   viper.GetInt("brex.page_limit"),
	}
	return brex.NewClient(cfg)
}

// newReceiptParser builds the Gemini-backed receipt parser.
func newReceiptParser() (service.ReceiptParser, error) {
	return receipt.NewGeminiParser(receipt.Config{
		APIKey: viper.GetString("gemini.api_key"),
		Model:  viper.GetString("gemini.model"),
	})
}

// parseDateRange resolves --start/--end/--days flags into a concrete range.
func parseDateRange(startFlag, endFlag string, days int) (time.Time, time.Time, error) {
	end := time.Now()
	if endFlag != "" {
		t, err := time.ParseInLocation("2006-01-02", endFlag, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endFlag, err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -days)
	if startFlag != "" {
		t, err := time.ParseInLocation("2006-01-02", startFlag, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startFlag, err)
		}
		start = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	return start, end, nil
}
