package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/anduinlabs/expenseflow/internal/cli"
	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import reimbursement expenses into the local store",
		Long: `Fetch reimbursement expenses from Brex (or a CSV export with --csv)
and store them in the local database. Expenses already present are
skipped, keyed by a hash of date, amount, memo, and employee.`,
		RunE: runImportExpenses,
	}

	cmd.Flags().StringP("start-date", "s", "", "Start date for expense fetch (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End date for expense fetch (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 30, "Number of days to fetch (used if start/end dates not specified)")
	cmd.Flags().String("csv", "", "Read expenses from a CSV export instead of the Brex API")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")

	return cmd
}

func runImportExpenses(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	csvPath, _ := cmd.Flags().GetString("csv")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	txns, err := loadTransactions(ctx, cmd, csvPath)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Importing reimbursement expenses"))
	slog.Info(fmt.Sprintf("Fetched %d expenses", len(txns)))

	if dryRun {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
		for _, txn := range txns {
			slog.Info("would import",
				"date", txn.PurchasedAt.Format("2006-01-02"),
				"amount", fmt.Sprintf("$%.2f", txn.USDAmount),
				"memo", txn.Memo)
		}
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	var imported, skipped int
	for _, txn := range txns {
		expense := expenseFromTransaction(txn)

		if _, getErr := store.GetExpenseByID(ctx, expense.ID); getErr == nil {
			skipped++
			continue
		} else if !errors.Is(getErr, common.ErrNotFound) {
			return fmt.Errorf("failed to check for duplicate expense: %w", getErr)
		}

		if createErr := store.CreateExpense(ctx, &expense); createErr != nil {
			return fmt.Errorf("failed to save expense: %w", createErr)
		}
		imported++
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Imported %d expenses (%d duplicates skipped)", imported, skipped)))
	return nil
}

func expenseFromTransaction(txn model.Transaction) model.Expense {
	return model.Expense{
		ID:          txn.GenerateHash(),
		Date:        txn.PurchaseDate(),
		Description: txn.Memo,
		UserID:      txn.UserEmail,
		Amount:      txn.USDAmount,
	}
}
