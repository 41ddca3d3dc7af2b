package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	calendarapi "google.golang.org/api/calendar/v3"
)

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name       string
		edt        *calendarapi.EventDateTime
		wantZero   bool
		wantAllDay bool
	}{
		{
			name: "timed boundary",
			edt:  &calendarapi.EventDateTime{DateTime: "2024-06-12T09:30:00-07:00"},
		},
		{
			name:       "all-day boundary",
			edt:        &calendarapi.EventDateTime{Date: "2024-06-12"},
			wantAllDay: true,
		},
		{
			name:     "nil boundary",
			edt:      nil,
			wantZero: true,
		},
		{
			name:     "garbage dateTime",
			edt:      &calendarapi.EventDateTime{DateTime: "not-a-time"},
			wantZero: true,
		},
		{
			name:     "garbage date",
			edt:      &calendarapi.EventDateTime{Date: "06/12/2024"},
			wantZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEventTime(tt.edt)
			assert.Equal(t, tt.wantZero, got.IsZero())
			assert.Equal(t, tt.wantAllDay, got.AllDay)
		})
	}
}

func TestConvertEvent(t *testing.T) {
	item := &calendarapi.Event{
		Id:          "evt-9",
		Summary:     "Offsite",
		Description: "Annual planning offsite",
		Location:    "Lake Tahoe",
		Start:       &calendarapi.EventDateTime{Date: "2024-06-10"},
		End:         &calendarapi.EventDateTime{Date: "2024-06-13"},
		Attendees: []*calendarapi.EventAttendee{
			{Email: "a@example.com"},
			nil,
			{Email: ""},
			{Email: "b@example.com"},
		},
	}

	event := convertEvent(item, "user@example.com", "user@example.com")

	assert.Equal(t, "evt-9", event.ID)
	assert.Equal(t, "Offsite", event.Summary)
	assert.Equal(t, "Lake Tahoe", event.Location)
	assert.True(t, event.IsUserCalendar)
	assert.Equal(t, "user@example.com", event.CalendarSource)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, event.Attendees)
	assert.True(t, event.Start.AllDay)
	// June 10 through exclusive June 13 covers three days.
	assert.True(t, event.IsMultiDay)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), event.Start.Time)
}

func TestConvertEventSharedCalendar(t *testing.T) {
	item := &calendarapi.Event{
		Id:      "evt-10",
		Summary: "Launch party",
		Start:   &calendarapi.EventDateTime{DateTime: "2024-06-12T18:00:00Z"},
		End:     &calendarapi.EventDateTime{DateTime: "2024-06-12T20:00:00Z"},
	}

	event := convertEvent(item, "marketing@group.calendar.google.com", "user@example.com")

	assert.False(t, event.IsUserCalendar)
	assert.Equal(t, "marketing@group.calendar.google.com", event.CalendarSource)
	assert.False(t, event.IsMultiDay)
}
