// Package calendar provides the Google Calendar event source used to gather
// candidate events for expense matching.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// eventsLister is the minimal surface of the Google Calendar API the client
// needs; tests substitute their own implementation.
type eventsLister interface {
	listEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendarapi.Event, error)
}

// Client fetches calendar events for a user's identity plus a fixed set of
// shared calendars. It implements service.EventSource.
type Client struct {
	lister eventsLister
	logger *slog.Logger
	config Config
}

// NewClient creates a new Google Calendar client.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	svc, err := createCalendarService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if logger == nil {
		logger = slog.Default().With("component", "calendar")
	}

	return &Client{
		lister: &googleLister{service: svc, maxResults: config.MaxResults},
		logger: logger,
		config: config,
	}, nil
}

// createCalendarService creates a Google Calendar API service.
func createCalendarService(ctx context.Context, config Config) (*calendarapi.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, calendarapi.CalendarReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendarapi.CalendarReadonlyScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := calendarapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}

	return srv, nil
}

// googleLister queries the real Calendar API.
type googleLister struct {
	service    *calendarapi.Service
	maxResults int64
}

func (g *googleLister) listEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendarapi.Event, error) {
	result, err := g.service.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(g.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// FetchEvents returns all events between start and end across the
// identity's own calendar and every configured shared calendar. The range
// is normalized to full calendar days. A failure on one calendar is logged
// and skipped; the remaining calendars' events are still returned, so a
// partial result is never an error.
func (c *Client) FetchEvents(ctx context.Context, identity string, start, end time.Time) ([]model.CalendarEvent, error) {
	timeMin := startOfDay(start)
	timeMax := endOfDay(end)

	calendars := append([]string{identity}, c.config.SharedCalendars...)

	c.logger.Debug("checking calendars",
		"identity", identity,
		"calendars", len(calendars),
		"from", timeMin.Format("2006-01-02"),
		"to", timeMax.Format("2006-01-02"))

	var allEvents []model.CalendarEvent

	for _, calendarID := range calendars {
		fetchCtx := ctx
		cancel := func() {}
		if c.config.RequestTimeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		}

		items, err := c.lister.listEvents(fetchCtx, calendarID, timeMin, timeMax)
		cancel()

		if err != nil {
			// One unreachable calendar must not fail the whole fetch; a
			// timeout counts as a per-calendar failure too.
			c.logger.Warn("failed to fetch events from calendar",
				"calendar", calendarID,
				"error", err)
			continue
		}

		c.logger.Debug("fetched events", "calendar", calendarID, "count", len(items))

		for _, item := range items {
			event := convertEvent(item, calendarID, identity)
			allEvents = append(allEvents, event)
		}
	}

	c.logger.Debug("total events across calendars", "count", len(allEvents))
	return allEvents, nil
}

// FetchEventsForDate returns all events on a single calendar day.
func (c *Client) FetchEventsForDate(ctx context.Context, identity string, date time.Time) ([]model.CalendarEvent, error) {
	return c.FetchEvents(ctx, identity, date, date)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999000000, t.Location())
}
