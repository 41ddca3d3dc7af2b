// Package brex provides a client for importing reimbursement expenses from
// the Brex API.
package brex

import (
	"context"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// MockClient is a mock implementation of the TransactionFeed interface for
// testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	FetchReimbursementsFn func(ctx context.Context, start, end time.Time) ([]model.Transaction, error)

	// Call tracking
	FetchReimbursementsCalls []FetchReimbursementsCall
}

// FetchReimbursementsCall records the parameters of a FetchReimbursements call.
type FetchReimbursementsCall struct {
	Start time.Time
	End   time.Time
}

// NewMockClient creates a new mock Brex client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// FetchReimbursements implements service.TransactionFeed.
func (m *MockClient) FetchReimbursements(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	m.FetchReimbursementsCalls = append(m.FetchReimbursementsCalls, FetchReimbursementsCall{
		Start: start,
		End:   end,
	})

	if m.FetchReimbursementsFn != nil {
		return m.FetchReimbursementsFn(ctx, start, end)
	}

	return []model.Transaction{}, nil
}
