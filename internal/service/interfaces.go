// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// EventSource defines the contract for fetching calendar events. A fetch
// covers the identity's own calendar plus any configured shared calendars;
// failure on one calendar must never fail the whole fetch.
type EventSource interface {
	// FetchEvents returns all events between start and end (inclusive,
	// normalized to day boundaries) across the identity's calendars.
	FetchEvents(ctx context.Context, identity string, start, end time.Time) ([]model.CalendarEvent, error)
	// FetchEventsForDate returns all events on a single calendar day.
	FetchEventsForDate(ctx context.Context, identity string, date time.Time) ([]model.CalendarEvent, error)
}

// TransactionFeed defines the contract for importing reimbursement
// transactions from the payments platform.
type TransactionFeed interface {
	FetchReimbursements(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
}

// ReceiptParser extracts structured expense fields from a receipt image.
type ReceiptParser interface {
	ParseReceipt(ctx context.Context, image []byte, mimeType string) (*ParsedReceipt, error)
}

// ParsedReceipt holds the fields extracted from a receipt image. Zero
// values mean the field was not visible on the receipt.
type ParsedReceipt struct {
	Merchant    string
	Date        string
	Description string
	Category    string
	Currency    string
	Amount      float64
	AmountUSD   float64
}

// ExpenseFilter defines filtering options for expense queries.
type ExpenseFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	UserID    string
	Limit     int
	Offset    int
}

// Storage defines the contract for the expense store.
type Storage interface {
	// Expense operations
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	GetExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	GetExpenseSummary(ctx context.Context, userID string) (*model.ExpenseSummary, error)

	// Category operations
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, userID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
