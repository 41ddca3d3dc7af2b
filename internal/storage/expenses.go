package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

// CreateExpense inserts a new expense record.
func (s *SQLiteStorage) CreateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, amount, description, category_id, user_id, date, receipt_url, receipt_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Amount, expense.Description, nullable(expense.CategoryID),
		expense.UserID, expense.Date, nullable(expense.ReceiptURL), nullable(expense.ReceiptText),
		now, now)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	expense.CreatedAt = now
	expense.UpdatedAt = now
	return nil
}

// GetExpenseByID retrieves a single expense.
func (s *SQLiteStorage) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, amount, description, category_id, user_id, date, receipt_url, receipt_text, created_at, updated_at
		FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetExpenses retrieves expenses matching the filter, most recent first.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, amount, description, category_id, user_id, date, receipt_url, receipt_text, created_at, updated_at
		FROM expenses WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		expense, scanErr := scanExpense(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", scanErr)
		}
		expenses = append(expenses, *expense)
	}

	return expenses, rows.Err()
}

// UpdateExpense updates an existing expense record.
func (s *SQLiteStorage) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = ?, description = ?, category_id = ?, date = ?, receipt_url = ?, receipt_text = ?, updated_at = ?
		WHERE id = ?`,
		expense.Amount, expense.Description, nullable(expense.CategoryID), expense.Date,
		nullable(expense.ReceiptURL), nullable(expense.ReceiptText), now, expense.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, common.ErrNotFound)
	}

	expense.UpdatedAt = now
	return nil
}

// DeleteExpense removes an expense record.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// GetExpenseSummary aggregates a user's expenses: totals, per-category
// breakdown, and the monthly spend trend.
func (s *SQLiteStorage) GetExpenseSummary(ctx context.Context, userID string) (*model.ExpenseSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	summary := &model.ExpenseSummary{}

	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE user_id = ?`, userID)
	if err := row.Scan(&summary.TotalAmount, &summary.TotalExpenses); err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized'), SUM(e.amount), COUNT(*)
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ?
		GROUP BY c.name
		ORDER BY SUM(e.amount) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var total model.CategoryTotal
		if scanErr := rows.Scan(&total.Category, &total.Amount, &total.Count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", scanErr)
		}
		summary.CategoryTotals = append(summary.CategoryTotals, total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trendRows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date), SUM(amount)
		FROM expenses
		WHERE user_id = ? AND date IS NOT NULL
		GROUP BY strftime('%Y-%m', date)
		ORDER BY strftime('%Y-%m', date)`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly trend: %w", err)
	}
	defer func() { _ = trendRows.Close() }()

	for trendRows.Next() {
		var monthly model.MonthlyTotal
		if scanErr := trendRows.Scan(&monthly.Month, &monthly.Amount); scanErr != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", scanErr)
		}
		summary.MonthlyTrend = append(summary.MonthlyTrend, monthly)
	}

	return summary, trendRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var expense model.Expense
	var categoryID, receiptURL, receiptText sql.NullString
	var date sql.NullTime

	err := row.Scan(&expense.ID, &expense.Amount, &expense.Description, &categoryID,
		&expense.UserID, &date, &receiptURL, &receiptText,
		&expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return nil, err
	}

	expense.CategoryID = categoryID.String
	expense.ReceiptURL = receiptURL.String
	expense.ReceiptText = receiptText.String
	if date.Valid {
		expense.Date = date.Time
	}

	return &expense, nil
}

func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("expense cannot be nil")
	}
	if expense.ID == "" {
		return fmt.Errorf("expense ID cannot be empty")
	}
	if expense.UserID == "" {
		return fmt.Errorf("expense user ID cannot be empty")
	}
	if expense.Amount < 0 {
		return fmt.Errorf("expense amount cannot be negative")
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
