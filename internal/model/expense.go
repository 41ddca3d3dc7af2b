package model

import "time"

// Expense is a manually tracked expense record in the local store.
type Expense struct {
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	Description string
	CategoryID  string
	UserID      string
	ReceiptURL  string
	ReceiptText string
	Amount      float64
}

// Category groups expenses for reporting.
type Category struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Name      string
	Color     string
	Icon      string
	UserID    string
}

// CategoryTotal is an aggregate of spend within one category.
type CategoryTotal struct {
	Category string
	Amount   float64
	Count    int
}

// MonthlyTotal is an aggregate of spend within one calendar month.
type MonthlyTotal struct {
	Month  string // 2006-01
	Amount float64
}

// ExpenseSummary contains aggregate statistics for a user's expenses.
type ExpenseSummary struct {
	CategoryTotals []CategoryTotal
	MonthlyTrend   []MonthlyTotal
	TotalAmount    float64
	TotalExpenses  int
}
