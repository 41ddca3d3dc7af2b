// Package calendar provides the Google Calendar event source used to gather
// candidate events for expense matching.
package calendar

import (
	"context"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// MockEventSource is a mock implementation of service.EventSource for
// testing.
type MockEventSource struct {
	// Functions that can be set by tests to control behavior
	FetchEventsFn        func(ctx context.Context, identity string, start, end time.Time) ([]model.CalendarEvent, error)
	FetchEventsForDateFn func(ctx context.Context, identity string, date time.Time) ([]model.CalendarEvent, error)

	// Call tracking
	FetchEventsCalls        []FetchEventsCall
	FetchEventsForDateCalls []FetchEventsForDateCall
}

// FetchEventsCall records the parameters of a FetchEvents call.
type FetchEventsCall struct {
	Start    time.Time
	End      time.Time
	Identity string
}

// FetchEventsForDateCall records the parameters of a FetchEventsForDate call.
type FetchEventsForDateCall struct {
	Date     time.Time
	Identity string
}

// NewMockEventSource creates a new mock event source.
func NewMockEventSource() *MockEventSource {
	return &MockEventSource{}
}

// FetchEvents implements service.EventSource.
func (m *MockEventSource) FetchEvents(ctx context.Context, identity string, start, end time.Time) ([]model.CalendarEvent, error) {
	m.FetchEventsCalls = append(m.FetchEventsCalls, FetchEventsCall{
		Identity: identity,
		Start:    start,
		End:      end,
	})

	if m.FetchEventsFn != nil {
		return m.FetchEventsFn(ctx, identity, start, end)
	}

	return []model.CalendarEvent{}, nil
}

// FetchEventsForDate implements service.EventSource.
func (m *MockEventSource) FetchEventsForDate(ctx context.Context, identity string, date time.Time) ([]model.CalendarEvent, error) {
	m.FetchEventsForDateCalls = append(m.FetchEventsForDateCalls, FetchEventsForDateCall{
		Identity: identity,
		Date:     date,
	})

	if m.FetchEventsForDateFn != nil {
		return m.FetchEventsForDateFn(ctx, identity, date)
	}

	return []model.CalendarEvent{}, nil
}
