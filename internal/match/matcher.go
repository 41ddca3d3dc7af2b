// Package match implements the expense-to-calendar-event matching engine.
//
// Each reimbursement transaction is scored against candidate calendar
// events by a registry of independent signal scorers; the best-scoring
// event above an acceptance threshold becomes the match, together with a
// confidence tier and a human-readable justification.
package match

import (
	"fmt"
	"log/slog"

	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

// Matcher matches reimbursement transactions to calendar events.
type Matcher struct {
	events  service.EventSource
	logger  *slog.Logger
	scorers []scorer
	cfg     Config
}

// New creates a matcher with the default calibrated configuration.
func New(events service.EventSource, logger *slog.Logger) *Matcher {
	return NewWithConfig(events, logger, DefaultConfig())
}

// NewWithConfig creates a matcher with custom weights and keyword lists.
func NewWithConfig(events service.EventSource, logger *slog.Logger, cfg Config) *Matcher {
	if logger == nil {
		logger = slog.Default().With("component", "match")
	}
	return &Matcher{
		events:  events,
		logger:  logger,
		scorers: newScorers(cfg),
		cfg:     cfg,
	}
}

// MatchSingleDay matches a transaction against a flat list of same-day
// events. Ties keep the first-encountered event; a best score below
// MinMatchScore yields no match.
func (m *Matcher) MatchSingleDay(txn *model.Transaction, events []model.CalendarEvent) model.MatchResult {
	if len(events) == 0 {
		return model.MatchResult{
			Reasoning: []string{"No calendar events found for this date"},
		}
	}

	m.logger.Debug("matching expense against events",
		"memo", txn.Memo,
		"date", txn.PurchasedAt.Format("2006-01-02"),
		"events", len(events))

	var best model.MatchResult
	for i := range events {
		event := &events[i]
		score, confidence, reasoning := m.scoreEvent(txn, event)

		m.logger.Debug("scored event",
			"summary", event.Summary,
			"source", event.CalendarSource,
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

	if best.Score >= m.cfg.MinMatchScore {
		return best
	}

	return model.MatchResult{
		Reasoning: []string{fmt.Sprintf("No strong matches found (best score: %.0f)", best.Score)},
	}
}

// scoreEvent runs every scorer against one event, summing points and
// merging confidence tiers with Max so a tier is never downgraded.
func (m *Matcher) scoreEvent(txn *model.Transaction, event *model.CalendarEvent) (float64, model.Confidence, []string) {
	var total float64
	confidence := model.ConfidenceLow
	var reasoning []string

	for _, s := range m.scorers {
		contribution := s.Score(txn, event)
		if contribution.Points == 0 {
			continue
		}
		total += contribution.Points
		confidence = confidence.Max(contribution.Confidence)
		if contribution.Note != "" {
			reasoning = append(reasoning, contribution.Note)
		}
	}

	return total, confidence, reasoning
}
