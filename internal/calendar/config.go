package calendar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anduinlabs/expenseflow/internal/common"
)

// Config holds the configuration for the Google Calendar event source.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SharedCalendars    []string
	MaxResults         int64
	RequestTimeout     time.Duration
}

// DefaultConfig returns a Config with sensible defaults. The shared
// calendars are the company-wide calendars searched alongside every user's
// own calendar.
func DefaultConfig() Config {
	return Config{
		SharedCalendars: []string{
			"c_kj6v4nvbgp4tr1tkbb1q7b3kks@group.calendar.google.com",                // Marketing events calendar
			"anduintransact.com_91igbs7aq8jr2mvsfo3bc0anls@group.calendar.google.com", // Team calendar
		},
		MaxResults:     100,
		RequestTimeout: 30 * time.Second,
	}
}

// LoadFromEnv loads the configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	c.ClientID = os.Getenv("GOOGLE_CALENDAR_CLIENT_ID")
	c.ClientSecret = os.Getenv("GOOGLE_CALENDAR_CLIENT_SECRET")
	c.RefreshToken = os.Getenv("GOOGLE_CALENDAR_REFRESH_TOKEN")
	c.ServiceAccountPath = os.Getenv("GOOGLE_CALENDAR_SERVICE_ACCOUNT_PATH")

	if shared := os.Getenv("GOOGLE_CALENDAR_SHARED_CALENDARS"); shared != "" {
		c.SharedCalendars = strings.Split(shared, ",")
	}

	if c.ServiceAccountPath == "" && (c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "") {
		return fmt.Errorf("%w: provide either a service account path or OAuth2 credentials", common.ErrMissingConfig)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive", common.ErrInvalidConfig)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}
