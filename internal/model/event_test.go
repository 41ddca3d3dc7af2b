package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpansMultipleDays(t *testing.T) {
	date := func(y int, m time.Month, d, h int) time.Time {
		return time.Date(y, m, d, h, 0, 0, 0, time.Local)
	}

	tests := []struct {
		name  string
		event CalendarEvent
		want  bool
	}{
		{
			name: "one-day all-day event with exclusive end",
			event: CalendarEvent{
				Start: EventTime{Time: date(2024, 6, 10, 0), AllDay: true},
				End:   EventTime{Time: date(2024, 6, 11, 0), AllDay: true},
			},
			want: false,
		},
		{
			name: "three-day all-day event",
			event: CalendarEvent{
				Start: EventTime{Time: date(2024, 6, 10, 0), AllDay: true},
				End:   EventTime{Time: date(2024, 6, 13, 0), AllDay: true},
			},
			want: true,
		},
		{
			name: "timed event within one day",
			event: CalendarEvent{
				Start: EventTime{Time: date(2024, 6, 10, 9)},
				End:   EventTime{Time: date(2024, 6, 10, 17)},
			},
			want: false,
		},
		{
			name: "timed event crossing midnight",
			event: CalendarEvent{
				Start: EventTime{Time: date(2024, 6, 10, 22)},
				End:   EventTime{Time: date(2024, 6, 11, 6)},
			},
			want: true,
		},
		{
			name: "missing end",
			event: CalendarEvent{
				Start: EventTime{Time: date(2024, 6, 10, 9)},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.SpansMultipleDays())
		})
	}
}

func TestStartsOn(t *testing.T) {
	event := CalendarEvent{
		Start: EventTime{Time: time.Date(2024, 6, 10, 14, 30, 0, 0, time.Local)},
		End:   EventTime{Time: time.Date(2024, 6, 10, 15, 30, 0, 0, time.Local)},
	}

	assert.True(t, event.StartsOn(time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)))
	assert.False(t, event.StartsOn(time.Date(2024, 6, 11, 0, 0, 0, 0, time.Local)))
}

func TestPurchaseDate(t *testing.T) {
	txn := Transaction{PurchasedAt: time.Date(2024, 6, 10, 18, 45, 12, 0, time.Local)}
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), txn.PurchaseDate())
}

func TestGenerateHashStable(t *testing.T) {
	txn := Transaction{
		PurchasedAt: time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local),
		Memo:        "Team lunch",
		UserEmail:   "user@example.com",
		USDAmount:   42.50,
	}

	assert.Equal(t, txn.GenerateHash(), txn.GenerateHash())
	assert.Len(t, txn.GenerateHash(), 64)

	other := txn
	other.USDAmount = 43.00
	assert.NotEqual(t, txn.GenerateHash(), other.GenerateHash())
}
