package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testExpense(id, userID string, date time.Time, amount float64) *model.Expense {
	return &model.Expense{
		ID:          id,
		Date:        date,
		Description: "Test expense",
		UserID:      userID,
		Amount:      amount,
	}
}

func TestExpenseCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	expense := testExpense("e1", "user-1", time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), 42.50)
	expense.ReceiptURL = "https://example.com/receipt.jpg"

	require.NoError(t, store.CreateExpense(ctx, expense))
	assert.False(t, expense.CreatedAt.IsZero())

	got, err := store.GetExpenseByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Test expense", got.Description)
	assert.Equal(t, 42.50, got.Amount)
	assert.Equal(t, "https://example.com/receipt.jpg", got.ReceiptURL)
	assert.Empty(t, got.CategoryID)

	got.Description = "Updated"
	got.Amount = 50
	require.NoError(t, store.UpdateExpense(ctx, got))

	updated, err := store.GetExpenseByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Description)
	assert.Equal(t, float64(50), updated.Amount)

	require.NoError(t, store.DeleteExpense(ctx, "e1"))

	_, err = store.GetExpenseByID(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpenseNotFound(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.GetExpenseByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.UpdateExpense(ctx, testExpense("missing", "user-1", time.Now(), 1))
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.DeleteExpense(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExpenseValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assert.Error(t, store.CreateExpense(ctx, nil))
	assert.Error(t, store.CreateExpense(ctx, testExpense("", "user-1", time.Now(), 1)))
	assert.Error(t, store.CreateExpense(ctx, testExpense("e1", "", time.Now(), 1)))
	assert.Error(t, store.CreateExpense(ctx, testExpense("e1", "user-1", time.Now(), -5)))
}

func TestGetExpensesFiltering(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		require.NoError(t, store.CreateExpense(ctx, testExpense(
			[]string{"e1", "e2", "e3"}[i], "user-1", d, float64(10*(i+1)))))
	}
	require.NoError(t, store.CreateExpense(ctx,
		testExpense("other", "user-2", dates[0], 99)))

	t.Run("by user, most recent first", func(t *testing.T) {
		got, err := store.GetExpenses(ctx, service.ExpenseFilter{UserID: "user-1"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "e3", got[0].ID)
		assert.Equal(t, "e1", got[2].ID)
	})

	t.Run("date range", func(t *testing.T) {
		start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
		got, err := store.GetExpenses(ctx, service.ExpenseFilter{
			UserID:    "user-1",
			StartDate: &start,
			EndDate:   &end,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "e2", got[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := store.GetExpenses(ctx, service.ExpenseFilter{
			UserID: "user-1",
			Limit:  2,
			Offset: 1,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "e2", got[0].ID)
		assert.Equal(t, "e1", got[1].ID)
	})
}

func TestGetExpenseSummary(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	meals := &model.Category{ID: "cat-1", Name: "Meals", UserID: "user-1"}
	require.NoError(t, store.CreateCategory(ctx, meals))

	e1 := testExpense("e1", "user-1", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), 30)
	e1.CategoryID = "cat-1"
	e2 := testExpense("e2", "user-1", time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), 70)
	require.NoError(t, store.CreateExpense(ctx, e1))
	require.NoError(t, store.CreateExpense(ctx, e2))

	summary, err := store.GetExpenseSummary(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, float64(100), summary.TotalAmount)
	assert.Equal(t, 2, summary.TotalExpenses)

	require.Len(t, summary.CategoryTotals, 2)
	assert.Equal(t, "Uncategorized", summary.CategoryTotals[0].Category)
	assert.Equal(t, float64(70), summary.CategoryTotals[0].Amount)
	assert.Equal(t, "Meals", summary.CategoryTotals[1].Category)

	require.Len(t, summary.MonthlyTrend, 2)
	assert.Equal(t, "2024-05", summary.MonthlyTrend[0].Month)
	assert.Equal(t, "2024-06", summary.MonthlyTrend[1].Month)
}

func TestCategories(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	category := &model.Category{ID: "cat-1", Name: "Travel", Color: "#ff0000", UserID: "user-1"}
	require.NoError(t, store.CreateCategory(ctx, category))
	require.NoError(t, store.CreateCategory(ctx,
		&model.Category{ID: "cat-2", Name: "Meals", UserID: "user-1"}))

	categories, err := store.GetCategories(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	// Ordered by name.
	assert.Equal(t, "Meals", categories[0].Name)
	assert.Equal(t, "Travel", categories[1].Name)

	got, err := store.GetCategoryByName(ctx, "user-1", "Travel")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", got.ID)
	assert.Equal(t, "#ff0000", got.Color)

	_, err = store.GetCategoryByName(ctx, "user-1", "Nonexistent")
	assert.ErrorIs(t, err, common.ErrNotFound)

	other, err := store.GetCategories(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.Error(t, err)
}
