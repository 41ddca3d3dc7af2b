package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single reimbursement expense pulled from the
// transaction feed. PurchasedAt is date-only; any time component is ignored.
type Transaction struct {
	PurchasedAt    time.Time
	ID             string
	Memo           string
	LocationName   string
	DepartmentName string
	BudgetName     string
	UserEmail      string
	USDAmount      float64
}

// PurchaseDate returns the purchase date truncated to midnight in its location.
func (t *Transaction) PurchaseDate() time.Time {
	y, m, d := t.PurchasedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.PurchasedAt.Location())
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.PurchasedAt.Format("2006-01-02"),
		t.USDAmount,
		t.Memo,
		t.UserEmail)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// EnrichedTransaction is a transaction after calendar matching. The match
// fields are nil/none when no acceptable event was found.
type EnrichedTransaction struct {
	Transaction
	CalendarEvent  *CalendarEvent
	MatchReasoning string
	Confidence     Confidence
}
