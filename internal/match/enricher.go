package match

import (
	"context"
	"fmt"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// errorReasoning is attached to a transaction when matching fails outright.
const errorReasoning = "Error occurred during matching"

// EnrichOne matches a single transaction to its best calendar event.
// Multi-day matching runs first; when it produces nothing better than a
// low-confidence match, single-day matching on the transaction date is
// tried and whichever result maps to the higher confidence score wins,
// with ties keeping the multi-day result. Errors never propagate: a failed
// transaction is returned with empty match fields and a diagnostic
// reasoning string.
func (m *Matcher) EnrichOne(ctx context.Context, txn model.Transaction) model.EnrichedTransaction {
	enriched := model.EnrichedTransaction{Transaction: txn}

	result, err := m.enrichOne(ctx, &txn)
	if err != nil {
		m.logger.Error("matching failed for transaction",
			"memo", txn.Memo,
			"date", txn.PurchasedAt.Format("2006-01-02"),
			"error", err)
		enriched.MatchReasoning = errorReasoning
		return enriched
	}

	enriched.CalendarEvent = result.Event
	enriched.Confidence = result.Confidence
	enriched.MatchReasoning = result.Reason()
	return enriched
}

func (m *Matcher) enrichOne(ctx context.Context, txn *model.Transaction) (model.MatchResult, error) {
	multiDay, err := m.MatchMultiDay(ctx, txn, txn.UserEmail)
	if err != nil {
		return model.MatchResult{}, err
	}

	final := multiDay

	if !multiDay.Matched() || multiDay.Confidence == model.ConfidenceNone || multiDay.Confidence == model.ConfidenceLow {
		events, fetchErr := m.events.FetchEventsForDate(ctx, txn.UserEmail, txn.PurchaseDate())
		if fetchErr != nil {
			return model.MatchResult{}, fmt.Errorf("failed to fetch same-day events: %w", fetchErr)
		}

		singleDay := m.MatchSingleDay(txn, events)
		if singleDay.Matched() && singleDay.Confidence.Score() > multiDay.Confidence.Score() {
			singleDay.Reasoning = []string{fmt.Sprintf("Single-day match: %s", singleDay.Reason())}
			final = singleDay
			m.logger.Debug("using single-day match", "summary", singleDay.Event.Summary)
		}
	}

	return final, nil
}

// EnrichAll sequentially enriches a batch of transactions, preserving
// input order and length. Processing is deliberately serial so calendar
// API rate limits on the identity's account stay predictable; per-item
// failures are isolated and never abort the batch.
func (m *Matcher) EnrichAll(ctx context.Context, txns []model.Transaction) []model.EnrichedTransaction {
	m.logger.Info("enriching transactions with calendar matches", "count", len(txns))

	enriched := make([]model.EnrichedTransaction, 0, len(txns))
	for _, txn := range txns {
		result := m.EnrichOne(ctx, txn)
		enriched = append(enriched, result)

		if result.CalendarEvent != nil {
			m.logger.Info("matched expense to event",
				"memo", txn.Memo,
				"event", result.CalendarEvent.Summary,
				"confidence", result.Confidence)
		} else {
			m.logger.Debug("no match for expense", "memo", txn.Memo)
		}
	}

	return enriched
}
