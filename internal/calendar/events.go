package calendar

import (
	"time"

	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// convertEvent maps a Google Calendar event to the domain model, stamping
// it with its origin calendar and derived flags.
func convertEvent(item *calendarapi.Event, calendarID, identity string) model.CalendarEvent {
	event := model.CalendarEvent{
		ID:             item.Id,
		Summary:        item.Summary,
		Description:    item.Description,
		Location:       item.Location,
		Start:          parseEventTime(item.Start),
		End:            parseEventTime(item.End),
		CalendarSource: calendarID,
		IsUserCalendar: calendarID == identity,
	}

	for _, attendee := range item.Attendees {
		if attendee != nil && attendee.Email != "" {
			event.Attendees = append(event.Attendees, attendee.Email)
		}
	}

	event.IsMultiDay = event.SpansMultipleDays()
	return event
}

// parseEventTime converts a Google event boundary, which is either a
// dateTime (timed event) or a bare date (all-day event).
func parseEventTime(edt *calendarapi.EventDateTime) model.EventTime {
	if edt == nil {
		return model.EventTime{}
	}

	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return model.EventTime{Time: t}
		}
		return model.EventTime{}
	}

	if edt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, time.Local); err == nil {
			return model.EventTime{Time: t, AllDay: true}
		}
	}

	return model.EventTime{}
}
