package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// MatchMultiDay matches a transaction using trip-aware heuristics over a
// lookback window of events. Multi-day events (conferences, business
// trips) are scored first; when no strong multi-day match exists, same-day
// single-day events are evaluated as a discounted fallback.
func (m *Matcher) MatchMultiDay(ctx context.Context, txn *model.Transaction, identity string) (model.MatchResult, error) {
	expenseDate := txn.PurchaseDate()
	windowStart := expenseDate.AddDate(0, 0, -m.cfg.LookbackDays)
	windowEnd := expenseDate.AddDate(0, 0, m.cfg.LookaheadDays)

	events, err := m.events.FetchEvents(ctx, identity, windowStart, windowEnd)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("failed to fetch events for window: %w", err)
	}

	if len(events) == 0 {
		return model.MatchResult{
			Reasoning: []string{fmt.Sprintf("No events found in %d-day window", m.cfg.LookbackDays)},
		}, nil
	}

	var multiDay, singleDay []model.CalendarEvent
	for _, event := range events {
		if event.IsMultiDay {
			multiDay = append(multiDay, event)
		} else {
			singleDay = append(singleDay, event)
		}
	}

	m.logger.Debug("partitioned window events",
		"multi_day", len(multiDay),
		"single_day", len(singleDay))

	var best model.MatchResult
	for i := range multiDay {
		event := &multiDay[i]
		score, confidence, reasoning := m.scoreMultiDayEvent(txn, event)

		m.logger.Debug("scored multi-day event",
			"summary", event.Summary,
			"score", score,
			"confidence", confidence)

		if score > best.Score {
			best = model.MatchResult{
				Event:      event,
				Confidence: confidence,
				Reasoning:  reasoning,
				Score:      score,
			}
		}
	}

	// Without a strong multi-day match, same-day events still get a shot,
	// discounted so genuine trip matches keep priority.
	if best.Score < m.cfg.MultiDayFallbackThreshold {
		for i := range singleDay {
			event := singleDay[i]
			if !event.StartsOn(expenseDate) {
				continue
			}

			result := m.MatchSingleDay(txn, []model.CalendarEvent{event})
			if !result.Matched() {
				continue
			}

			adjusted := result.Confidence.Score() * m.cfg.SingleDayFallbackDiscount
			if adjusted > best.Score {
				best = model.MatchResult{
					Event:      result.Event,
					Confidence: result.Confidence,
					Reasoning:  []string{fmt.Sprintf("Single-day fallback: %s", result.Reason())},
					Score:      adjusted,
				}
			}
		}
	}

	return best, nil
}

// scoreMultiDayEvent computes the trip-aware score for one multi-day
// candidate.
func (m *Matcher) scoreMultiDayEvent(txn *model.Transaction, event *model.CalendarEvent) (float64, model.Confidence, []string) {
	var score float64
	confidence := model.ConfidenceLow
	var reasoning []string

	expenseDate := txn.PurchaseDate()
	eventStart := event.Start.Day()
	eventEnd := event.End.Day()
	if event.End.AllDay {
		// Google's all-day end dates are exclusive.
		eventEnd = eventEnd.AddDate(0, 0, -1)
	}

	memo := strings.ToLower(txn.Memo)
	eventText := strings.ToLower(event.Summary + " " + event.Description)
	expLoc := strings.ToLower(strings.TrimSpace(txn.LocationName))
	evLoc := strings.ToLower(strings.TrimSpace(event.Location))

	// Date containment, or partial credit near the event's edges.
	switch {
	case !expenseDate.Before(eventStart) && !expenseDate.After(eventEnd):
		score += m.cfg.DateWithinEventScore
		confidence = confidence.Max(model.ConfidenceHigh)
		reasoning = append(reasoning, "Expense date within event period")
	default:
		daysBefore := daysBetween(expenseDate, eventStart)
		daysAfter := daysBetween(eventEnd, expenseDate)

		if daysBefore >= 0 && daysBefore <= m.cfg.NearEventDays {
			score += m.cfg.BeforeEventScore
			confidence = confidence.Max(model.ConfidenceMedium)
			reasoning = append(reasoning, fmt.Sprintf("%d days before event start", daysBefore))
		} else if daysAfter >= 0 && daysAfter <= m.cfg.NearEventDays {
			score += m.cfg.AfterEventScore
			confidence = confidence.Max(model.ConfidenceMedium)
			reasoning = append(reasoning, fmt.Sprintf("%d days after event end", daysAfter))
		}
	}

	// Business trip context.
	memoHasTrip := containsAny(memo, m.cfg.TripKeywords)
	eventHasTrip := containsAny(eventText, m.cfg.TripKeywords)

	if memoHasTrip && eventHasTrip {
		score += m.cfg.TripContextScore
		confidence = confidence.Max(model.ConfidenceHigh)
		reasoning = append(reasoning, "Business trip context match")
	} else if eventHasTrip {
		score += m.cfg.EventTripContextScore
		confidence = confidence.Max(model.ConfidenceMedium)
		reasoning = append(reasoning, "Event has trip context")
	}

	// Location and geography.
	if expLoc != "" && evLoc != "" {
		if tokensOverlap(expLoc, evLoc) {
			score += m.cfg.MultiDayLocationScore
			confidence = confidence.Max(model.ConfidenceHigh)
			reasoning = append(reasoning, "Location match")
		} else if broadTermsIntersect(expLoc, evLoc, m.cfg.BroadLocationTerms) {
			score += m.cfg.MultiDayBroadLocationScore
			confidence = confidence.Max(model.ConfidenceMedium)
			reasoning = append(reasoning, "Geographic area match")
		}
	}

	// Travel expense type; only the first matching group counts.
	for _, group := range m.cfg.TravelExpenseTypes {
		if containsAny(memo, group.Keywords) {
			score += m.cfg.TravelExpenseTypeScore
			reasoning = append(reasoning, fmt.Sprintf("%s expense type", group.Name))
			break
		}
	}

	// Every multi-day candidate gets a flat bonus.
	score += m.cfg.MultiDayBonusScore
	reasoning = append(reasoning, "Multi-day event bonus")

	// Calendar source; no user-calendar bonus in the multi-day path.
	source := strings.ToLower(event.CalendarSource)
	if strings.Contains(source, "marketing") {
		score += m.cfg.MultiDayMarketingScore
		reasoning = append(reasoning, "Marketing calendar")
	} else if strings.Contains(source, "team") {
		score += m.cfg.MultiDayTeamScore
		reasoning = append(reasoning, "Team calendar")
	}

	return score, confidence, reasoning
}

// daysBetween returns the whole calendar days from a to b; negative when b
// is before a. Both arguments must already be truncated to midnight.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
