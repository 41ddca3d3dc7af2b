package model

import "time"

// EventTime is a calendar event boundary: either a point in time or, for
// all-day events, a bare date.
type EventTime struct {
	Time   time.Time
	AllDay bool
}

// IsZero reports whether the boundary is unset.
func (e EventTime) IsZero() bool {
	return e.Time.IsZero()
}

// Day returns the boundary truncated to midnight in its location.
func (e EventTime) Day() time.Time {
	y, m, d := e.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Time.Location())
}

// CalendarEvent is a read-only projection of an event from the calendar
// source, stamped with its origin calendar.
type CalendarEvent struct {
	Start          EventTime
	End            EventTime
	ID             string
	Summary        string
	Description    string
	Location       string
	CalendarSource string
	Attendees      []string
	IsUserCalendar bool
	IsMultiDay     bool
}

// SpansMultipleDays reports whether the event's start and end fall on
// different calendar days. All-day events use Google's exclusive end date,
// so a one-day all-day event (span of exactly one day) is not multi-day.
func (e *CalendarEvent) SpansMultipleDays() bool {
	if e.Start.IsZero() || e.End.IsZero() {
		return false
	}
	if e.Start.AllDay && e.End.AllDay {
		days := int(e.End.Day().Sub(e.Start.Day()).Hours() / 24)
		return days > 1
	}
	return !e.Start.Day().Equal(e.End.Day())
}

// StartsOn reports whether the event starts on the given calendar day.
func (e *CalendarEvent) StartsOn(day time.Time) bool {
	y1, m1, d1 := e.Start.Time.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
