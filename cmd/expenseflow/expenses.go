package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/anduinlabs/expenseflow/internal/cli"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Manage the local expense store",
	}

	cmd.AddCommand(expensesListCmd())
	cmd.AddCommand(expensesAddCmd())
	cmd.AddCommand(expensesSummaryCmd())

	return cmd
}

func expensesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored expenses",
		RunE:  runExpensesList,
	}

	cmd.Flags().StringP("user", "u", "", "User the expenses belong to (required)")
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of expenses to show")
	cmd.Flags().StringP("start-date", "s", "", "Only show expenses on or after this date")
	cmd.Flags().StringP("end-date", "e", "", "Only show expenses on or before this date")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExpensesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	filter := service.ExpenseFilter{UserID: user, Limit: limit}

	if v, _ := cmd.Flags().GetString("start-date"); v != "" {
		t, parseErr := time.ParseInLocation("2006-01-02", v, time.Local)
		if parseErr != nil {
			return fmt.Errorf("invalid start date %q: %w", v, parseErr)
		}
		filter.StartDate = &t
	}
	if v, _ := cmd.Flags().GetString("end-date"); v != "" {
		t, parseErr := time.ParseInLocation("2006-01-02", v, time.Local)
		if parseErr != nil {
			return fmt.Errorf("invalid end date %q: %w", v, parseErr)
		}
		filter.EndDate = &t
	}

	expenses, err := store.GetExpenses(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}

	if len(expenses) == 0 {
		slog.Info(cli.FormatWarning("No expenses found"))
		return nil
	}

	for _, e := range expenses {
		fmt.Printf("%s  $%8.2f  %s\n", e.Date.Format("2006-01-02"), e.Amount, e.Description)
	}
	fmt.Println(cli.FormatInfo(fmt.Sprintf("%d expenses", len(expenses))))

	return nil
}

func expensesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense manually",
		RunE:  runExpensesAdd,
	}

	cmd.Flags().StringP("user", "u", "", "User the expense belongs to (required)")
	cmd.Flags().StringP("description", "m", "", "Expense description (required)")
	cmd.Flags().Float64P("amount", "a", 0, "Expense amount in USD (required)")
	cmd.Flags().StringP("date", "t", "", "Expense date (default: today)")
	cmd.Flags().StringP("category", "c", "", "Category name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runExpensesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, _ := cmd.Flags().GetString("user")
	description, _ := cmd.Flags().GetString("description")
	amount, _ := cmd.Flags().GetFloat64("amount")
	categoryName, _ := cmd.Flags().GetString("category")

	date := time.Now()
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		t, parseErr := time.ParseInLocation("2006-01-02", v, time.Local)
		if parseErr != nil {
			return fmt.Errorf("invalid date %q: %w", v, parseErr)
		}
		date = t
	}

	expense := model.Expense{
		ID:          uuid.New().String(),
		Date:        date,
		Description: description,
		UserID:      user,
		Amount:      amount,
	}

	if categoryName != "" {
		category, catErr := store.GetCategoryByName(ctx, user, categoryName)
		if catErr != nil {
			return fmt.Errorf("unknown category %q: %w", categoryName, catErr)
		}
		expense.CategoryID = category.ID
	}

	if err := store.CreateExpense(ctx, &expense); err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Added expense %s ($%.2f)", expense.Description, expense.Amount)))
	return nil
}

func expensesSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending totals by category and month",
		RunE:  runExpensesSummary,
	}

	cmd.Flags().StringP("user", "u", "", "User the summary is for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExpensesSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, _ := cmd.Flags().GetString("user")
	summary, err := store.GetExpenseSummary(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}

	fmt.Println(cli.TitleStyle.Render(cli.MoneyIcon + " Expense Summary"))
	fmt.Printf("Total: $%.2f across %d expenses\n\n", summary.TotalAmount, summary.TotalExpenses)

	if len(summary.CategoryTotals) > 0 {
		fmt.Println(cli.BoldStyle.Render("By category:"))
		for _, ct := range summary.CategoryTotals {
			fmt.Printf("  %-24s $%10.2f  (%d)\n", ct.Category, ct.Amount, ct.Count)
		}
		fmt.Println()
	}

	if len(summary.MonthlyTrend) > 0 {
		fmt.Println(cli.BoldStyle.Render("By month:"))
		for _, mt := range summary.MonthlyTrend {
			fmt.Printf("  %s  $%10.2f\n", mt.Month, mt.Amount)
		}
	}

	return nil
}
