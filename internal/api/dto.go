package api

import (
	"fmt"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// transactionPayload is the wire form of a reimbursement transaction.
type transactionPayload struct {
	ID             string  `json:"id"`
	PurchasedAt    string  `json:"purchased_at"`
	Memo           string  `json:"memo"`
	LocationName   string  `json:"location_name,omitempty"`
	DepartmentName string  `json:"department_name,omitempty"`
	BudgetName     string  `json:"budget_name,omitempty"`
	UserEmail      string  `json:"user_email"`
	USDAmount      float64 `json:"usd_amount"`
}

func (p transactionPayload) toModel() (model.Transaction, error) {
	purchased, err := parseFlexibleTime(p.PurchasedAt)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid purchased_at %q: %w", p.PurchasedAt, err)
	}
	return model.Transaction{
		PurchasedAt:    purchased,
		ID:             p.ID,
		Memo:           p.Memo,
		LocationName:   p.LocationName,
		DepartmentName: p.DepartmentName,
		BudgetName:     p.BudgetName,
		UserEmail:      p.UserEmail,
		USDAmount:      p.USDAmount,
	}, nil
}

func transactionFromModel(t model.Transaction) transactionPayload {
	return transactionPayload{
		ID:             t.ID,
		PurchasedAt:    t.PurchasedAt.Format("2006-01-02"),
		Memo:           t.Memo,
		LocationName:   t.LocationName,
		DepartmentName: t.DepartmentName,
		BudgetName:     t.BudgetName,
		UserEmail:      t.UserEmail,
		USDAmount:      t.USDAmount,
	}
}

// eventPayload is the wire form of a calendar event. All-day boundaries
// carry bare dates; timed boundaries carry RFC 3339 timestamps.
type eventPayload struct {
	ID             string   `json:"id"`
	Summary        string   `json:"summary"`
	Description    string   `json:"description,omitempty"`
	Location       string   `json:"location,omitempty"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	AllDay         bool     `json:"all_day,omitempty"`
	CalendarSource string   `json:"calendar_source,omitempty"`
	Attendees      []string `json:"attendees,omitempty"`
	IsUserCalendar bool     `json:"is_user_calendar,omitempty"`
}

func (p eventPayload) toModel() (model.CalendarEvent, error) {
	start, err := parseEventBoundary(p.Start, p.AllDay)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("invalid start %q: %w", p.Start, err)
	}
	end, err := parseEventBoundary(p.End, p.AllDay)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("invalid end %q: %w", p.End, err)
	}

	event := model.CalendarEvent{
		Start:          start,
		End:            end,
		ID:             p.ID,
		Summary:        p.Summary,
		Description:    p.Description,
		Location:       p.Location,
		CalendarSource: p.CalendarSource,
		Attendees:      p.Attendees,
		IsUserCalendar: p.IsUserCalendar,
	}
	event.IsMultiDay = event.SpansMultipleDays()
	return event, nil
}

func eventFromModel(e *model.CalendarEvent) *eventPayload {
	if e == nil {
		return nil
	}
	return &eventPayload{
		ID:             e.ID,
		Summary:        e.Summary,
		Description:    e.Description,
		Location:       e.Location,
		Start:          formatEventBoundary(e.Start),
		End:            formatEventBoundary(e.End),
		AllDay:         e.Start.AllDay,
		CalendarSource: e.CalendarSource,
		Attendees:      e.Attendees,
		IsUserCalendar: e.IsUserCalendar,
	}
}

// enrichedPayload is a transaction plus whatever match was found for it.
type enrichedPayload struct {
	Transaction    transactionPayload `json:"transaction"`
	CalendarEvent  *eventPayload      `json:"calendar_event,omitempty"`
	Confidence     string             `json:"confidence,omitempty"`
	MatchReasoning string             `json:"match_reasoning,omitempty"`
}

func enrichedFromModel(e model.EnrichedTransaction) enrichedPayload {
	return enrichedPayload{
		Transaction:    transactionFromModel(e.Transaction),
		CalendarEvent:  eventFromModel(e.CalendarEvent),
		Confidence:     string(e.Confidence),
		MatchReasoning: e.MatchReasoning,
	}
}

// expensePayload is the wire form of a stored expense.
type expensePayload struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id,omitempty"`
	UserID      string  `json:"user_id"`
	ReceiptURL  string  `json:"receipt_url,omitempty"`
	ReceiptText string  `json:"receipt_text,omitempty"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

func (p expensePayload) toModel() (model.Expense, error) {
	date, err := parseFlexibleTime(p.Date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("invalid date %q: %w", p.Date, err)
	}
	return model.Expense{
		Date:        date,
		ID:          p.ID,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		UserID:      p.UserID,
		ReceiptURL:  p.ReceiptURL,
		ReceiptText: p.ReceiptText,
		Amount:      p.Amount,
	}, nil
}

func expenseFromModel(e model.Expense) expensePayload {
	return expensePayload{
		ID:          e.ID,
		Date:        e.Date.Format("2006-01-02"),
		Description: e.Description,
		CategoryID:  e.CategoryID,
		UserID:      e.UserID,
		ReceiptURL:  e.ReceiptURL,
		ReceiptText: e.ReceiptText,
		Amount:      e.Amount,
		CreatedAt:   formatOptionalTime(e.CreatedAt),
		UpdatedAt:   formatOptionalTime(e.UpdatedAt),
	}
}

// categoryPayload is the wire form of an expense category.
type categoryPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Icon   string `json:"icon,omitempty"`
	UserID string `json:"user_id"`
}

func categoryFromModel(c model.Category) categoryPayload {
	return categoryPayload{
		ID:     c.ID,
		Name:   c.Name,
		Color:  c.Color,
		Icon:   c.Icon,
		UserID: c.UserID,
	}
}

func parseEventBoundary(value string, allDay bool) (model.EventTime, error) {
	if allDay {
		t, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return model.EventTime{}, err
		}
		return model.EventTime{Time: t, AllDay: true}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return model.EventTime{}, err
	}
	return model.EventTime{Time: t}, nil
}

func formatEventBoundary(e model.EventTime) string {
	if e.AllDay {
		return e.Time.Format("2006-01-02")
	}
	return e.Time.Format(time.RFC3339)
}

func parseFlexibleTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
