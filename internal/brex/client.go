// Package brex provides a client for importing reimbursement expenses from
// the Brex API.
package brex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

const defaultBaseURL = "https://platform.brexapis.com/v1"

// Config holds Brex API configuration.
type Config struct {
	APIToken    string
	BaseURL     string
	EmailDomain string // domain appended to budget-derived usernames
	PageLimit   int
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("%w: brex API token is required", common.ErrMissingConfig)
	}
	return nil
}

// Client fetches reimbursement expenses from Brex. It implements the
// TransactionFeed interface.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	retryOpts  service.RetryOptions
	config     Config
}

// NewClient creates a new Brex client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "brex"),
		config: cfg,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Expense is a raw Brex expense record.
type Expense struct {
	ID                  string  `json:"id"`
	UpdatedAt           string  `json:"updated_at"`
	PurchasedAt         string  `json:"purchased_at"`
	Memo                string  `json:"memo"`
	Category            string  `json:"category"`
	ExpenseType         string  `json:"expense_type"`
	Status              string  `json:"status"`
	Budget              *Named  `json:"budget"`
	Department          *Named  `json:"department"`
	Location            *Named  `json:"location"`
	USDEquivalentAmount *Amount `json:"usd_equivalent_amount"`
	OriginalAmount      *Amount `json:"original_amount"`
}

// Named is a Brex expanded reference carrying a display name.
type Named struct {
	Name string `json:"name"`
}

// Amount is a Brex monetary amount in minor units.
type Amount struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// ExpensesResponse is one page of Brex expenses.
type ExpensesResponse struct {
	NextCursor string    `json:"next_cursor"`
	Items      []Expense `json:"items"`
}

// ExpenseParams filters an expense fetch.
type ExpenseParams struct {
	Cursor           string
	PurchasedAtStart string // 2006-01-02
	PurchasedAtEnd   string // 2006-01-02
	Limit            int
}

// GetExpenses fetches a single page of reimbursement expenses.
func (c *Client) GetExpenses(ctx context.Context, params ExpenseParams) (*ExpensesResponse, error) {
	endpoint := fmt.Sprintf("/expenses?%s", c.buildQuery(params))

	var response ExpensesResponse
	err := common.WithRetry(ctx, func() error {
		return c.doRequest(ctx, endpoint, &response)
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

// GetAllExpenses fetches all reimbursement expenses across pages.
func (c *Client) GetAllExpenses(ctx context.Context, params ExpenseParams) ([]Expense, error) {
	if params.Limit <= 0 {
		params.Limit = c.config.PageLimit
	}

	var all []Expense
	cursor := ""

	for {
		params.Cursor = cursor
		page, err := c.GetExpenses(ctx, params)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return all, nil
}

// FetchReimbursements implements service.TransactionFeed: it fetches all
// reimbursement expenses in the date range and converts them to domain
// transactions.
func (c *Client) FetchReimbursements(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	c.logger.Info("Fetching reimbursements from Brex",
		"start_date", start.Format("2006-01-02"),
		"end_date", end.Format("2006-01-02"))

	expenses, err := c.GetAllExpenses(ctx, ExpenseParams{
		PurchasedAtStart: start.Format("2006-01-02"),
		PurchasedAtEnd:   end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBrexConnection, err)
	}

	transactions := make([]model.Transaction, 0, len(expenses))
	for _, expense := range expenses {
		if expense.ExpenseType != "REIMBURSEMENT" {
			continue
		}
		transactions = append(transactions, c.convertExpense(expense))
	}

	c.logger.Info("Fetched reimbursements", "count", len(transactions))
	return transactions, nil
}

// buildQuery builds the expense query string with filters. The fetch is
// always restricted to reimbursement expenses, expanded with the reference
// fields the converter needs.
func (c *Client) buildQuery(params ExpenseParams) string {
	values := url.Values{}

	if params.Cursor != "" {
		values.Set("cursor", params.Cursor)
	}
	if params.Limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", params.Limit))
	}
	if params.PurchasedAtStart != "" {
		values.Add("purchased_at_start", params.PurchasedAtStart+"T00:00:00.000")
	}
	if params.PurchasedAtEnd != "" {
		values.Add("purchased_at_end", params.PurchasedAtEnd+"T23:59:59.999")
	}

	values.Add("expense_type[]", "REIMBURSEMENT")

	for _, expand := range []string{"merchant", "location", "department", "user", "budget", "payment"} {
		values.Add("expand[]", expand)
	}

	return values.Encode()
}

// doRequest sends an authorized request to the Brex API and decodes the
// JSON response into out.
func (c *Client) doRequest(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("%w: %v", common.ErrBrexConnection, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return common.ErrBrexRateLimit
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("brex API error: %d %s - %s", resp.StatusCode, resp.Status, string(body))
		// Server errors are worth retrying; client errors are not.
		return &common.RetryableError{Err: err, Retryable: resp.StatusCode >= 500}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// convertExpense maps a raw Brex expense to a domain transaction. The user
// email is derived from the budget name, which Brex formats as a possessive
// ("Jane Doe's Budget").
func (c *Client) convertExpense(expense Expense) model.Transaction {
	txn := model.Transaction{
		ID:   expense.ID,
		Memo: expense.Memo,
	}

	dateStr := expense.PurchasedAt
	if dateStr == "" {
		dateStr = expense.UpdatedAt
	}
	if idx := strings.Index(dateStr, "T"); idx > 0 {
		dateStr = dateStr[:idx]
	}
	if t, err := time.Parse("2006-01-02", dateStr); err == nil {
		txn.PurchasedAt = t
	}

	if expense.USDEquivalentAmount != nil {
		txn.USDAmount = float64(expense.USDEquivalentAmount.Amount) / 100
	}
	if expense.Department != nil {
		txn.DepartmentName = expense.Department.Name
	}
	if expense.Location != nil {
		txn.LocationName = expense.Location.Name
	}

	if expense.Budget != nil && expense.Budget.Name != "" {
		budgetName := expense.Budget.Name
		if idx := strings.Index(budgetName, "'s"); idx >= 0 {
			if trimmed := strings.TrimSpace(budgetName[idx+2:]); trimmed != "" {
				budgetName = trimmed
			}
		}
		txn.BudgetName = budgetName

		if c.config.EmailDomain != "" {
			username := strings.ToLower(strings.ReplaceAll(budgetName, " ", ""))
			txn.UserEmail = username + "@" + c.config.EmailDomain
		}
	}

	return txn
}
