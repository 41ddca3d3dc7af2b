package match

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anduinlabs/expenseflow/internal/calendar"
	"github.com/anduinlabs/expenseflow/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	return New(calendar.NewMockEventSource(), testLogger())
}

func TestMatchSingleDayNoEvents(t *testing.T) {
	m := newTestMatcher(t)
	txn := &model.Transaction{Memo: "Team lunch"}

	result := m.MatchSingleDay(txn, nil)

	assert.Nil(t, result.Event)
	assert.Equal(t, model.ConfidenceNone, result.Confidence)
	assert.Equal(t, "No calendar events found for this date", result.Reason())
}

func TestMatchSingleDayBelowThreshold(t *testing.T) {
	m := newTestMatcher(t)

	// Only the user-calendar bonus applies: 5 points, well under the
	// acceptance threshold.
	txn := &model.Transaction{Memo: "Office supplies"}
	event := timedEvent("Birthday party", "", time.Date(2024, 3, 12, 15, 0, 0, 0, time.Local))
	event.IsUserCalendar = true

	result := m.MatchSingleDay(txn, []model.CalendarEvent{event})

	assert.Nil(t, result.Event)
	assert.Equal(t, model.ConfidenceNone, result.Confidence)
	assert.Equal(t, "No strong matches found (best score: 5)", result.Reason())
}

func TestMatchSingleDayThresholdBoundary(t *testing.T) {
	// A weak memo match plus the user-calendar bonus lands exactly on the
	// threshold; shaving one point off the bonus drops it just below.
	txn := &model.Transaction{Memo: "Quarterly planning snacks"}
	event := timedEvent("Planning session", "", time.Date(2024, 3, 12, 15, 0, 0, 0, time.Local))
	event.IsUserCalendar = true

	t.Run("exactly at threshold is accepted", func(t *testing.T) {
		m := New(calendar.NewMockEventSource(), testLogger())
		result := m.MatchSingleDay(txn, []model.CalendarEvent{event})

		require.NotNil(t, result.Event)
		assert.Equal(t, float64(20), result.Score)
		assert.Equal(t, model.ConfidenceMedium, result.Confidence)
	})

	t.Run("one point below threshold is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.UserCalendarScore = 4
		m := NewWithConfig(calendar.NewMockEventSource(), testLogger(), cfg)

		result := m.MatchSingleDay(txn, []model.CalendarEvent{event})

		assert.Nil(t, result.Event)
		assert.Equal(t, "No strong matches found (best score: 19)", result.Reason())
	})
}

func TestMatchSingleDayTeamLunch(t *testing.T) {
	m := newTestMatcher(t)

	txn := &model.Transaction{
		Memo:         "Team lunch at Olive Garden",
		LocationName: "Olive Garden",
	}
	event := timedEvent("Team Lunch Meeting", "Olive Garden Restaurant",
		time.Date(2024, 3, 12, 12, 0, 0, 0, time.Local))

	result := m.MatchSingleDay(txn, []model.CalendarEvent{event})

	require.NotNil(t, result.Event)
	assert.Equal(t, event.ID, result.Event.ID)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.NotEmpty(t, result.Reason())
}

func TestMatchSingleDayTieKeepsFirst(t *testing.T) {
	m := newTestMatcher(t)

	txn := &model.Transaction{Memo: "Team lunch"}
	start := time.Date(2024, 3, 12, 12, 0, 0, 0, time.Local)

	first := timedEvent("Team lunch sync", "", start)
	first.ID = "first"
	second := timedEvent("Team lunch sync", "", start)
	second.ID = "second"

	result := m.MatchSingleDay(txn, []model.CalendarEvent{first, second})

	require.NotNil(t, result.Event)
	assert.Equal(t, "first", result.Event.ID)
}

func TestMatchSingleDayPicksHighestScore(t *testing.T) {
	m := newTestMatcher(t)

	txn := &model.Transaction{
		Memo:         "Client dinner",
		LocationName: "Marriott Downtown",
	}
	start := time.Date(2024, 3, 12, 18, 0, 0, 0, time.Local)

	weak := timedEvent("Planning session", "", start)
	weak.ID = "weak"
	strong := timedEvent("Client networking dinner", "Marriott Downtown", start)
	strong.ID = "strong"

	result := m.MatchSingleDay(txn, []model.CalendarEvent{weak, strong})

	require.NotNil(t, result.Event)
	assert.Equal(t, "strong", result.Event.ID)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
}

func TestMatchSingleDayIdempotent(t *testing.T) {
	m := newTestMatcher(t)

	txn := &model.Transaction{Memo: "Team lunch at Olive Garden"}
	events := []model.CalendarEvent{
		timedEvent("Team Lunch Meeting", "", time.Date(2024, 3, 12, 12, 0, 0, 0, time.Local)),
	}

	first := m.MatchSingleDay(txn, events)
	second := m.MatchSingleDay(txn, events)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reason(), second.Reason())
}

func TestMatchResultCoupling(t *testing.T) {
	m := newTestMatcher(t)

	// A rejected result must have neither an event nor a confidence tier.
	txn := &model.Transaction{Memo: "Office supplies"}
	event := timedEvent("Birthday party", "", time.Date(2024, 3, 12, 15, 0, 0, 0, time.Local))

	result := m.MatchSingleDay(txn, []model.CalendarEvent{event})

	assert.False(t, result.Matched())
	assert.Nil(t, result.Event)
	assert.Equal(t, model.ConfidenceNone, result.Confidence)
	assert.NotEmpty(t, result.Reason())
}
